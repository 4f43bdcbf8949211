// Package submission turns a validated form record into stored files, a client row
// and submission rows, then notifies the downstream webhook.
package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/dishshot-intake/internal/app/model"
	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/internal/form"
)

// GenericFailureMessage is the only failure text shown to users.
const GenericFailureMessage = "We couldn't submit your photos. Please try again."

// PublicScope is the first path segment for public form uploads.
const PublicScope = "public"

var (
	ErrAlreadySubmitting = errors.New("submission already in progress")
	ErrNothingToSubmit   = errors.New("no dish has been filled in")
)

// Phase names the step of a submission that failed.
type Phase string

const (
	PhaseUpload Phase = "upload"
	PhaseOwner  Phase = "owner"
	PhaseInsert Phase = "insert"
	PhaseRPC    Phase = "rpc"
)

// PhaseError wraps the cause of an aborted submission.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

type ObjectStorage interface {
	Upload(ctx context.Context, key string, file form.File) error
	PublicURL(key string) string
}

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	FindByRestaurantName(ctx context.Context, name string) (*model.Client, error)
	FindByAuthUserID(ctx context.Context, authUserID string) (*model.Client, error)
}

type SubmissionRepository interface {
	CreateBatch(ctx context.Context, submissions []model.Submission) error
	PublicSubmitItemByRestaurantName(ctx context.Context, item repository.PublicItem) (*model.Submission, error)
}

type Notifier interface {
	Notify(ctx context.Context, payload interface{})
}

// Request is one submission attempt.
type Request struct {
	// Key identifies the submitter for the guard, usually the session id.
	Key        string
	AuthUserID string
	// AuthEmail replaces the placeholder when a new client has no contact email.
	AuthEmail  string
	Flow       string
	Record     form.FormRecord
}

type Result struct {
	ClientID    string
	Submissions []model.Submission
}
