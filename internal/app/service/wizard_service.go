package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/dishshot-intake/internal/form"
	"github.com/ikkim/dishshot-intake/internal/session"
	"github.com/ikkim/dishshot-intake/internal/submission"
	"github.com/ikkim/dishshot-intake/internal/wizard"
	"github.com/ikkim/dishshot-intake/pkg/logger"
)

var (
	ErrUnknownFlow         = errors.New("unknown flow")
	ErrDishNotFound        = errors.New("dish not found")
	ErrUnknownFileKind     = errors.New("unknown file kind")
	ErrFileIndexOutOfRange = errors.New("file index out of range")
	ErrNotAtReview         = errors.New("submission is only possible from the review step")
)

// WizardState is the client-facing view of a session.
type WizardState struct {
	SessionID       string          `json:"session_id"`
	Flow            string          `json:"flow"`
	Step            int             `json:"step"`
	StepName        string          `json:"step_name"`
	Steps           []int           `json:"steps"`
	IsTerminal      bool            `json:"is_terminal"`
	Errors          form.Errors     `json:"errors"`
	Form            form.FormRecord `json:"form"`
	LastSubmittedAt *time.Time      `json:"last_submitted_at,omitempty"`
}

// Outcome is returned by Next and Submit. Submitted is true only when rows were stored.
type Outcome struct {
	State     *WizardState
	Submitted bool
	Result    *submission.Result
}

// Validation holds the errors of the current step and of the review step.
type Validation struct {
	Step   form.Errors `json:"step"`
	Review form.Errors `json:"review"`
}

type Submitter interface {
	SubmitDishes(ctx context.Context, req submission.Request) (*submission.Result, error)
	SubmitPublicItem(ctx context.Context, req submission.Request) (*submission.Result, error)
}

type WizardService interface {
	Start(flow, authUserID, authEmail string) (*WizardState, error)
	Get(sessionID string) (*WizardState, error)
	Delete(sessionID string) error
	UpdateForm(sessionID string, patch form.FormPatch) (*WizardState, error)
	SetBusinessStatus(sessionID string, isNew bool) (*WizardState, error)
	Reset(sessionID string) (*WizardState, error)

	AddDish(sessionID string) (string, *WizardState, error)
	RemoveDish(sessionID, dishID string) (*WizardState, error)
	UpdateDish(sessionID, dishID string, patch form.DishPatch) (*WizardState, error)
	GetDish(sessionID, dishID string) (form.DishRecord, error)
	SelectItemType(sessionID, dishID, value, customValue string) (*WizardState, error)
	// An empty dishID targets the legacy flat lists.
	AttachFiles(sessionID, dishID, kind string, files []form.File) (*WizardState, error)
	DetachFile(sessionID, dishID, kind string, index int) (*WizardState, error)

	Next(ctx context.Context, sessionID string) (*Outcome, error)
	Previous(sessionID string) (*WizardState, error)
	Goto(sessionID string, step int) (*WizardState, error)
	Validate(sessionID string) (*Validation, error)
	Submit(ctx context.Context, sessionID string) (*Outcome, error)
}

type wizardService struct {
	sessions          *session.Manager
	submitter         Submitter
	resumeAfterSubmit bool
}

func NewWizardService(sessions *session.Manager, submitter Submitter, resumeAfterSubmit bool) WizardService {
	return &wizardService{
		sessions:          sessions,
		submitter:         submitter,
		resumeAfterSubmit: resumeAfterSubmit,
	}
}

func stateOf(s *session.Session) *WizardState {
	flow := s.Navigator.Flow()
	step := s.Navigator.Current()
	return &WizardState{
		SessionID:       s.ID,
		Flow:            flow.Name,
		Step:            step.ID,
		StepName:        step.Name,
		Steps:           flow.StepIDs(),
		IsTerminal:      s.Navigator.IsTerminal(),
		Errors:          s.Navigator.Errors(),
		Form:            s.Store.Get(),
		LastSubmittedAt: s.LastSubmittedAt(),
	}
}

// with loads the session, applies fn and returns the resulting state.
func (s *wizardService) with(sessionID string, fn func(*session.Session) error) (*WizardState, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(sess); err != nil {
			return nil, err
		}
	}
	return stateOf(sess), nil
}

func (s *wizardService) Start(flowName, authUserID, authEmail string) (*WizardState, error) {
	flow, ok := wizard.FlowByName(flowName)
	if !ok {
		logger.Warn("Cannot start wizard: unknown flow", map[string]interface{}{
			"flow": flowName,
		})
		return nil, ErrUnknownFlow
	}

	sess := s.sessions.Create(flow, authUserID, authEmail)
	logger.Info("Wizard session started", map[string]interface{}{
		"session_id":    sess.ID,
		"flow":          flow.Name,
		"authenticated": authUserID != "",
	})
	return stateOf(sess), nil
}

func (s *wizardService) Get(sessionID string) (*WizardState, error) {
	return s.with(sessionID, nil)
}

func (s *wizardService) Delete(sessionID string) error {
	if !s.sessions.Delete(sessionID) {
		return session.ErrSessionNotFound
	}
	logger.Info("Wizard session deleted", map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}

func (s *wizardService) UpdateForm(sessionID string, patch form.FormPatch) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		sess.Store.Update(patch)
		return nil
	})
}

func (s *wizardService) SetBusinessStatus(sessionID string, isNew bool) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		sess.Store.SetBusinessStatus(isNew)
		return nil
	})
}

func (s *wizardService) Reset(sessionID string) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		sess.Store.Reset()
		sess.Navigator.Reset()
		return nil
	})
}

func (s *wizardService) AddDish(sessionID string) (string, *WizardState, error) {
	var id string
	state, err := s.with(sessionID, func(sess *session.Session) error {
		id = sess.Store.AddDish()
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	logger.Debug("Dish added", map[string]interface{}{
		"session_id": sessionID,
		"dish_id":    id,
	})
	return id, state, nil
}

// RemoveDish is a no-op for unknown ids and for the last remaining dish.
func (s *wizardService) RemoveDish(sessionID, dishID string) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		sess.Store.RemoveDish(dishID)
		return nil
	})
}

func (s *wizardService) UpdateDish(sessionID, dishID string, patch form.DishPatch) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		if _, ok := sess.Store.GetDish(dishID); !ok {
			return ErrDishNotFound
		}
		sess.Store.UpdateDish(dishID, patch)
		return nil
	})
}

func (s *wizardService) GetDish(sessionID, dishID string) (form.DishRecord, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return form.DishRecord{}, err
	}
	d, ok := sess.Store.GetDish(dishID)
	if !ok {
		return form.DishRecord{}, ErrDishNotFound
	}
	return d, nil
}

func (s *wizardService) SelectItemType(sessionID, dishID, value, customValue string) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		if _, ok := sess.Store.GetDish(dishID); !ok {
			return ErrDishNotFound
		}
		sess.Store.SelectItemType(dishID, value)
		if value == form.ItemTypeOther && customValue != "" {
			sess.Store.SetCustomItemType(dishID, customValue)
		}
		return nil
	})
}

func (s *wizardService) AttachFiles(sessionID, dishID, kind string, files []form.File) (*WizardState, error) {
	if !form.IsFileKind(kind) {
		return nil, ErrUnknownFileKind
	}
	return s.with(sessionID, func(sess *session.Session) error {
		if dishID == "" {
			sess.Store.AttachFiles(kind, files...)
			return nil
		}
		if !sess.Store.AttachDishFiles(dishID, kind, files...) {
			return ErrDishNotFound
		}
		logger.Debug("Files attached to dish", map[string]interface{}{
			"session_id": sessionID,
			"dish_id":    dishID,
			"kind":       kind,
			"count":      len(files),
		})
		return nil
	})
}

func (s *wizardService) DetachFile(sessionID, dishID, kind string, index int) (*WizardState, error) {
	if !form.IsFileKind(kind) {
		return nil, ErrUnknownFileKind
	}
	return s.with(sessionID, func(sess *session.Session) error {
		if dishID == "" {
			if !sess.Store.DetachFile(kind, index) {
				return ErrFileIndexOutOfRange
			}
			return nil
		}
		if _, ok := sess.Store.GetDish(dishID); !ok {
			return ErrDishNotFound
		}
		if !sess.Store.DetachDishFile(dishID, kind, index) {
			return ErrFileIndexOutOfRange
		}
		return nil
	})
}

// Next advances one step, or submits when the session is already on the review step.
func (s *wizardService) Next(ctx context.Context, sessionID string) (*Outcome, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Navigator.IsTerminal() {
		return s.submit(ctx, sess)
	}

	errs, err := sess.Navigator.Next(sess.Store.Get())
	if errors.Is(err, wizard.ErrTerminalStep) {
		return s.submit(ctx, sess)
	}
	if err != nil {
		return nil, err
	}
	if !errs.Valid() {
		logger.Debug("Step validation failed", map[string]interface{}{
			"session_id": sessionID,
			"step":       sess.Navigator.Current().ID,
			"errors":     len(errs),
		})
	}
	return &Outcome{State: stateOf(sess)}, nil
}

func (s *wizardService) Previous(sessionID string) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		sess.Navigator.Previous()
		return nil
	})
}

func (s *wizardService) Goto(sessionID string, step int) (*WizardState, error) {
	return s.with(sessionID, func(sess *session.Session) error {
		return sess.Navigator.Goto(step)
	})
}

func (s *wizardService) Validate(sessionID string) (*Validation, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	rec := sess.Store.Get()
	current := sess.Navigator.Current()
	stepErrs := form.Errors{}
	if current.Validate != nil {
		stepErrs = current.Validate(rec)
	}
	return &Validation{
		Step:   stepErrs,
		Review: sess.Navigator.Flow().Review(rec),
	}, nil
}

func (s *wizardService) Submit(ctx context.Context, sessionID string) (*Outcome, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Navigator.IsTerminal() {
		return nil, ErrNotAtReview
	}
	return s.submit(ctx, sess)
}

func (s *wizardService) submit(ctx context.Context, sess *session.Session) (*Outcome, error) {
	rec := sess.Store.Get()
	flow := sess.Navigator.Flow()

	if errs := flow.Review(rec); !errs.Valid() {
		target := sess.Navigator.Current().ID
		if step, ok := flow.FirstFailing(rec); ok {
			target = step.ID
		}
		if err := sess.Navigator.ShowErrors(target, errs); err != nil {
			return nil, err
		}
		logger.Info("Submission blocked by review validation", map[string]interface{}{
			"session_id": sess.ID,
			"step":       target,
			"errors":     len(errs),
		})
		return &Outcome{State: stateOf(sess)}, nil
	}

	req := submission.Request{
		Key:        sess.ID,
		AuthUserID: sess.AuthUserID,
		AuthEmail:  sess.AuthEmail,
		Flow:       flow.Name,
		Record:     rec,
	}
	var result *submission.Result
	var err error
	if flow.Name == wizard.FlowPublic {
		result, err = s.submitter.SubmitPublicItem(ctx, req)
	} else {
		result, err = s.submitter.SubmitDishes(ctx, req)
	}
	if err != nil {
		var phaseErr *submission.PhaseError
		if errors.As(err, &phaseErr) && phaseErr.Phase == submission.PhaseOwner {
			sess.Navigator.Reset()
		}
		return nil, err
	}

	sess.MarkSubmitted(time.Now())
	sess.Store.Reset()
	sess.Navigator.Reset()
	if s.resumeAfterSubmit && rec.RestaurantName != "" {
		s.resume(sess, rec)
	}

	logger.Info("Wizard submission completed", map[string]interface{}{
		"session_id": sess.ID,
		"client_id":  result.ClientID,
		"rows":       len(result.Submissions),
	})
	return &Outcome{State: stateOf(sess), Submitted: true, Result: result}, nil
}

// resume re-seeds the business details of the last submission and skips ahead to
// the step after them.
func (s *wizardService) resume(sess *session.Session, prev form.FormRecord) {
	sess.Store.Update(form.FormPatch{
		RestaurantName: &prev.RestaurantName,
		SubmitterName:  &prev.SubmitterName,
		ContactEmail:   &prev.ContactEmail,
		ContactPhone:   &prev.ContactPhone,
	})
	if prev.IsNewBusiness != nil {
		sess.Store.SetBusinessStatus(*prev.IsNewBusiness)
	}
	steps := sess.Navigator.Flow().Steps
	if len(steps) > 1 {
		_ = sess.Navigator.Goto(steps[1].ID)
	}
}
