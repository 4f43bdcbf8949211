package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dishshot-intake/internal/app/service"
	apperrors "github.com/ikkim/dishshot-intake/internal/errors"
	"github.com/ikkim/dishshot-intake/internal/form"
	"github.com/ikkim/dishshot-intake/internal/middleware"
	"github.com/ikkim/dishshot-intake/internal/submission"
	"github.com/ikkim/dishshot-intake/internal/validation"
)

// SubmissionSuccessMessage is shown after the rows are stored.
const SubmissionSuccessMessage = "Thanks! Your photos were submitted."

type WizardController struct {
	wizardService service.WizardService
}

func NewWizardController(wizardService service.WizardService) *WizardController {
	return &WizardController{
		wizardService: wizardService,
	}
}

type StartSessionRequest struct {
	Flow string `json:"flow"`
}

type BusinessStatusRequest struct {
	IsNewBusiness *bool `json:"isNewBusiness" binding:"required"`
}

// respondWithFailure logs err with the request logger and writes the mapped response.
func respondWithFailure(c *gin.Context, msg string, err error) {
	log := middleware.GetLoggerFromContext(c)
	fields := map[string]interface{}{
		"session_id": c.Param("id"),
		"error":      err.Error(),
	}
	var phaseErr *submission.PhaseError
	if errors.As(err, &phaseErr) {
		fields["phase"] = string(phaseErr.Phase)
	}
	log.Warn(msg, fields)
	apperrors.ParseAndRespond(c, err)
}

// bindSchema reads the body, checks it against schema and decodes it into dst.
func bindSchema(c *gin.Context, schema map[string]interface{}, dst interface{}) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Request body is required")
		return false
	}
	fields, err := validation.Check(schema, body)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Request body must be valid JSON")
		return false
	}
	if len(fields) > 0 {
		apperrors.RespondWithValidationError(c, fields)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Request body must be valid JSON")
		return false
	}
	return true
}

// StartSession creates a wizard session
// POST /api/v1/sessions
func (ctrl *WizardController) StartSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req StartSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid start session request", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
			return
		}
	}

	authUserID, _ := middleware.GetUserID(c)
	authEmail, _ := middleware.GetUserEmail(c)
	state, err := ctrl.wizardService.Start(req.Flow, authUserID, authEmail)
	if err != nil {
		respondWithFailure(c, "Failed to start session", err)
		return
	}

	log.Info("Session started", map[string]interface{}{
		"session_id": state.SessionID,
		"flow":       state.Flow,
	})
	c.JSON(http.StatusCreated, gin.H{"session": state})
}

// GetSession returns the wizard state
// GET /api/v1/sessions/:id
func (ctrl *WizardController) GetSession(c *gin.Context) {
	state, err := ctrl.wizardService.Get(c.Param("id"))
	if err != nil {
		respondWithFailure(c, "Failed to get session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// DeleteSession discards the session and its files
// DELETE /api/v1/sessions/:id
func (ctrl *WizardController) DeleteSession(c *gin.Context) {
	if err := ctrl.wizardService.Delete(c.Param("id")); err != nil {
		respondWithFailure(c, "Failed to delete session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// UpdateForm merges a partial record
// PATCH /api/v1/sessions/:id/form
func (ctrl *WizardController) UpdateForm(c *gin.Context) {
	var patch form.FormPatch
	if !bindSchema(c, validation.FormPatchSchema, &patch) {
		return
	}

	state, err := ctrl.wizardService.UpdateForm(c.Param("id"), patch)
	if err != nil {
		respondWithFailure(c, "Failed to update form", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// SetBusinessStatus answers the "new business?" question and derives the lead flag
// PUT /api/v1/sessions/:id/business-status
func (ctrl *WizardController) SetBusinessStatus(c *gin.Context) {
	var req BusinessStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "isNewBusiness is required")
		return
	}

	state, err := ctrl.wizardService.SetBusinessStatus(c.Param("id"), *req.IsNewBusiness)
	if err != nil {
		respondWithFailure(c, "Failed to set business status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// ResetForm restores the default record and returns to the first step
// POST /api/v1/sessions/:id/reset
func (ctrl *WizardController) ResetForm(c *gin.Context) {
	state, err := ctrl.wizardService.Reset(c.Param("id"))
	if err != nil {
		respondWithFailure(c, "Failed to reset form", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// respondWithOutcome writes the result of Next or Submit.
func respondWithOutcome(c *gin.Context, out *service.Outcome) {
	if out.Submitted {
		ids := make([]uint, len(out.Result.Submissions))
		for i, s := range out.Result.Submissions {
			ids[i] = s.ID
		}
		middleware.GetLoggerFromContext(c).Info("Submission completed", map[string]interface{}{
			"session_id": out.State.SessionID,
			"client_id":  out.Result.ClientID,
			"rows":       len(ids),
		})
		c.JSON(http.StatusOK, gin.H{
			"submitted":      true,
			"message":        SubmissionSuccessMessage,
			"client_id":      out.Result.ClientID,
			"submission_ids": ids,
			"session":        out.State,
		})
		return
	}
	if !out.State.Errors.Valid() {
		apperrors.RespondWithStepErrors(c, out.State.Step, out.State.Errors, out.State)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": out.State})
}

// Next advances one step, or submits from the review step
// POST /api/v1/sessions/:id/next
func (ctrl *WizardController) Next(c *gin.Context) {
	out, err := ctrl.wizardService.Next(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithFailure(c, "Failed to advance wizard", err)
		return
	}
	respondWithOutcome(c, out)
}

// Previous goes back one step without validating
// POST /api/v1/sessions/:id/previous
func (ctrl *WizardController) Previous(c *gin.Context) {
	state, err := ctrl.wizardService.Previous(c.Param("id"))
	if err != nil {
		respondWithFailure(c, "Failed to go back", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// Goto jumps to a step without validating
// POST /api/v1/sessions/:id/goto/:step
func (ctrl *WizardController) Goto(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid step")
		return
	}

	state, err := ctrl.wizardService.Goto(c.Param("id"), step)
	if err != nil {
		respondWithFailure(c, "Failed to jump to step", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// Validate reports current step and review errors without moving
// GET /api/v1/sessions/:id/validate
func (ctrl *WizardController) Validate(c *gin.Context) {
	v, err := ctrl.wizardService.Validate(c.Param("id"))
	if err != nil {
		respondWithFailure(c, "Failed to validate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      v.Review.Valid(),
		"validation": v,
	})
}

// Submit sends the reviewed form
// POST /api/v1/sessions/:id/submit
func (ctrl *WizardController) Submit(c *gin.Context) {
	out, err := ctrl.wizardService.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithFailure(c, "Submission failed", err)
		return
	}
	respondWithOutcome(c, out)
}
