package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/internal/db"
	"github.com/ikkim/dishshot-intake/internal/form"
	"github.com/ikkim/dishshot-intake/internal/session"
	"github.com/ikkim/dishshot-intake/internal/storage"
	"github.com/ikkim/dishshot-intake/internal/submission"
	"github.com/ikkim/dishshot-intake/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wizardDeps struct {
	service     WizardService
	storage     *storage.MemoryStorage
	submissions repository.SubmissionRepository
	clients     repository.ClientRepository
}

func setupWizardService(t *testing.T, resume bool) *wizardDeps {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	deps := &wizardDeps{
		storage:     storage.NewMemoryStorage("https://cdn.test"),
		submissions: repository.NewSubmissionRepository(testDB),
		clients:     repository.NewClientRepository(testDB),
	}
	orchestrator := submission.NewOrchestrator(
		deps.storage,
		deps.clients,
		deps.submissions,
		webhook.NewClient("", time.Second),
		submission.NewLocalGuard(),
	)
	deps.service = NewWizardService(session.NewManager(), orchestrator, resume)
	return deps
}

type stubSubmitter struct {
	err   error
	calls int
}

func (s *stubSubmitter) SubmitDishes(context.Context, submission.Request) (*submission.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &submission.Result{ClientID: "stub-client"}, nil
}

func (s *stubSubmitter) SubmitPublicItem(ctx context.Context, req submission.Request) (*submission.Result, error) {
	return s.SubmitDishes(ctx, req)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func jpegs(n int) []form.File {
	out := make([]form.File, n)
	for i := range out {
		out[i] = form.File{Name: "dish.jpg", ContentType: "image/jpeg", Size: 3, Data: []byte{1, 2, 3}}
	}
	return out
}

// fillDishFlow walks a dishes session to the review step with one complete dish.
func fillDishFlow(t *testing.T, svc WizardService, id string) {
	ctx := context.Background()
	_, err := svc.UpdateForm(id, form.FormPatch{RestaurantName: strPtr("Test Restaurant"), SubmitterName: strPtr("John")})
	require.NoError(t, err)
	_, err = svc.SetBusinessStatus(id, false)
	require.NoError(t, err)

	out, err := svc.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, out.State.Step)

	_, err = svc.UpdateDish(id, "1", form.DishPatch{ItemName: strPtr("Pasta"), Description: strPtr("Fresh"), QualityConfirmed: boolPtr(true)})
	require.NoError(t, err)
	_, err = svc.SelectItemType(id, "1", "main", "")
	require.NoError(t, err)
	out, err = svc.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 3, out.State.Step)

	_, err = svc.AttachFiles(id, "1", form.KindReferenceImages, jpegs(4))
	require.NoError(t, err)
	out, err = svc.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 4, out.State.Step)
	require.True(t, out.State.IsTerminal)
}

func TestWizardService_StartUnknownFlow(t *testing.T) {
	deps := setupWizardService(t, false)
	_, err := deps.service.Start("catering", "", "")
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestWizardService_UnknownSession(t *testing.T) {
	deps := setupWizardService(t, false)
	_, err := deps.service.Get("nope")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, deps.service.Delete("nope"), session.ErrSessionNotFound)
}

func TestWizardService_NextReturnsStepErrors(t *testing.T) {
	deps := setupWizardService(t, false)
	state, err := deps.service.Start("dishes", "", "")
	require.NoError(t, err)

	out, err := deps.service.Next(context.Background(), state.SessionID)
	require.NoError(t, err)
	assert.False(t, out.Submitted)
	assert.Equal(t, 1, out.State.Step)
	assert.Contains(t, out.State.Errors, form.FieldRestaurantName)
}

func TestWizardService_DishErrors(t *testing.T) {
	deps := setupWizardService(t, false)
	state, _ := deps.service.Start("dishes", "", "")
	id := state.SessionID

	_, err := deps.service.UpdateDish(id, "9", form.DishPatch{})
	assert.ErrorIs(t, err, ErrDishNotFound)
	_, err = deps.service.GetDish(id, "9")
	assert.ErrorIs(t, err, ErrDishNotFound)
	_, err = deps.service.AttachFiles(id, "1", "posters", jpegs(1))
	assert.ErrorIs(t, err, ErrUnknownFileKind)
	_, err = deps.service.DetachFile(id, "1", form.KindReferenceImages, 0)
	assert.ErrorIs(t, err, ErrFileIndexOutOfRange)

	dishID, st, err := deps.service.AddDish(id)
	require.NoError(t, err)
	assert.Equal(t, "2", dishID)
	assert.Len(t, st.Form.Dishes, 2)

	st, err = deps.service.SelectItemType(id, dishID, form.ItemTypeOther, "tapas")
	require.NoError(t, err)
	d, err := deps.service.GetDish(id, dishID)
	require.NoError(t, err)
	assert.True(t, d.IsCustomItemType)
	assert.Equal(t, "tapas", d.ItemType)
}

func TestWizardService_SubmitRequiresReviewStep(t *testing.T) {
	deps := setupWizardService(t, false)
	state, _ := deps.service.Start("dishes", "", "")

	_, err := deps.service.Submit(context.Background(), state.SessionID)
	assert.ErrorIs(t, err, ErrNotAtReview)
}

func TestWizardService_SubmitStoresRowsAndResets(t *testing.T) {
	deps := setupWizardService(t, false)
	state, _ := deps.service.Start("dishes", "", "")
	id := state.SessionID
	fillDishFlow(t, deps.service, id)

	out, err := deps.service.Submit(context.Background(), id)
	require.NoError(t, err)
	require.True(t, out.Submitted)
	require.Len(t, out.Result.Submissions, 1)
	assert.Len(t, out.Result.Submissions[0].OriginalImageURLs, 4)
	assert.Len(t, deps.storage.Keys(), 4)

	assert.Equal(t, 1, out.State.Step)
	assert.Equal(t, form.DefaultRecord(), out.State.Form)
	assert.NotNil(t, out.State.LastSubmittedAt)

	rows, err := deps.submissions.FindByClientID(context.Background(), out.Result.ClientID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWizardService_NextAtReviewSubmitsAndResumes(t *testing.T) {
	deps := setupWizardService(t, true)
	state, _ := deps.service.Start("dishes", "", "")
	id := state.SessionID
	fillDishFlow(t, deps.service, id)

	out, err := deps.service.Next(context.Background(), id)
	require.NoError(t, err)
	require.True(t, out.Submitted)

	assert.Equal(t, 2, out.State.Step)
	assert.Equal(t, "Test Restaurant", out.State.Form.RestaurantName)
	assert.Equal(t, "John", out.State.Form.SubmitterName)
	require.NotNil(t, out.State.Form.IsNewBusiness)
	assert.False(t, *out.State.Form.IsNewBusiness)
	assert.Equal(t, []string{"1"}, []string{out.State.Form.Dishes[0].ID})
	assert.Equal(t, "", out.State.Form.Dishes[0].ItemName)
}

func TestWizardService_ReviewFailureJumpsToFirstFailingStep(t *testing.T) {
	deps := setupWizardService(t, false)
	state, _ := deps.service.Start("dishes", "", "")
	id := state.SessionID
	fillDishFlow(t, deps.service, id)

	_, err := deps.service.DetachFile(id, "1", form.KindReferenceImages, 0)
	require.NoError(t, err)

	out, err := deps.service.Submit(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, out.Submitted)
	assert.Equal(t, 3, out.State.Step)
	assert.Contains(t, out.State.Errors, "dish_1_referenceImages")
	assert.Empty(t, deps.storage.Keys())
}

func TestWizardService_OwnerFailureReturnsToBusinessStep(t *testing.T) {
	stub := &stubSubmitter{err: &submission.PhaseError{Phase: submission.PhaseOwner, Err: errors.New("db down")}}
	svc := NewWizardService(session.NewManager(), stub, false)
	state, _ := svc.Start("dishes", "", "")
	id := state.SessionID
	fillDishFlow(t, svc, id)

	_, err := svc.Submit(context.Background(), id)
	var phaseErr *submission.PhaseError
	require.ErrorAs(t, err, &phaseErr)

	st, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, "Test Restaurant", st.Form.RestaurantName)
}

func TestWizardService_UploadFailureKeepsFormForRetry(t *testing.T) {
	stub := &stubSubmitter{err: &submission.PhaseError{Phase: submission.PhaseUpload, Err: errors.New("s3 down")}}
	svc := NewWizardService(session.NewManager(), stub, false)
	state, _ := svc.Start("dishes", "", "")
	id := state.SessionID
	fillDishFlow(t, svc, id)

	_, err := svc.Submit(context.Background(), id)
	require.Error(t, err)

	st, _ := svc.Get(id)
	assert.Equal(t, 4, st.Step)
	assert.Equal(t, "Pasta", st.Form.Dishes[0].ItemName)

	stub.err = nil
	stub.calls = 0
	out, err := svc.Submit(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, out.Submitted)
	assert.Equal(t, 1, stub.calls)
}

func TestWizardService_PublicFlow(t *testing.T) {
	deps := setupWizardService(t, false)
	state, err := deps.service.Start("public", "", "")
	require.NoError(t, err)
	id := state.SessionID
	assert.Equal(t, []int{1, 2, 4}, state.Steps)

	_, err = deps.service.UpdateForm(id, form.FormPatch{
		RestaurantName: strPtr("Corner Cafe"),
		SubmitterName:  strPtr("Ana"),
		ContactEmail:   strPtr("ana@example.com"),
		ContactPhone:   strPtr("555"),
		ItemName:       strPtr("Latte"),
		ItemType:       strPtr("drink"),
		Description:    strPtr("Foamy"),
	})
	require.NoError(t, err)
	_, err = deps.service.SetBusinessStatus(id, true)
	require.NoError(t, err)
	_, err = deps.service.AttachFiles(id, "", form.KindReferenceImages, jpegs(1))
	require.NoError(t, err)

	ctx := context.Background()
	out, err := deps.service.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, out.State.Step)
	out, err = deps.service.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 4, out.State.Step)

	out, err = deps.service.Next(ctx, id)
	require.NoError(t, err)
	require.True(t, out.Submitted)

	client, err := deps.clients.FindByRestaurantName(ctx, "Corner Cafe")
	require.NoError(t, err)
	assert.True(t, client.IsLead)
	assert.Equal(t, client.ID, out.Result.ClientID)
	keys := deps.storage.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "public/corner-cafe/")
}

func TestWizardService_Validate(t *testing.T) {
	deps := setupWizardService(t, false)
	state, _ := deps.service.Start("dishes", "", "")

	v, err := deps.service.Validate(state.SessionID)
	require.NoError(t, err)
	assert.Contains(t, v.Step, form.FieldRestaurantName)
	assert.Contains(t, v.Review, form.FieldRestaurantName)
}
