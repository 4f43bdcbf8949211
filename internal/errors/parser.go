package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dishshot-intake/internal/app/service"
	"github.com/ikkim/dishshot-intake/internal/session"
	"github.com/ikkim/dishshot-intake/internal/storage"
	"github.com/ikkim/dishshot-intake/internal/submission"
	"github.com/ikkim/dishshot-intake/internal/wizard"
	"gorm.io/gorm"
)

// ErrorInfo is the response a failure maps to.
type ErrorInfo struct {
	Status  int    // HTTP status
	Code    string // code from codes.go
	Message string // user facing message
}

// ParseError maps err to a status, code and user facing message.
// Every submission phase failure gets the same message; the cause is only logged.
func ParseError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	// 1. submission
	var phaseErr *submission.PhaseError
	if errors.As(err, &phaseErr) {
		return ErrorInfo{Status: http.StatusBadGateway, Code: SubmissionFailed, Message: submission.GenericFailureMessage}
	}
	switch {
	case errors.Is(err, submission.ErrAlreadySubmitting):
		return ErrorInfo{Status: http.StatusConflict, Code: SubmissionInProgress, Message: "Your submission is already being processed"}
	case errors.Is(err, submission.ErrNothingToSubmit):
		return ErrorInfo{Status: http.StatusUnprocessableEntity, Code: SubmissionEmpty, Message: "Add at least one dish before submitting"}
	}

	// 2. session and wizard
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: SessionNotFound, Message: "Session not found or expired"}
	case errors.Is(err, service.ErrUnknownFlow):
		return ErrorInfo{Status: http.StatusBadRequest, Code: SessionUnknownFlow, Message: "Unknown flow"}
	case errors.Is(err, wizard.ErrUnknownStep):
		return ErrorInfo{Status: http.StatusBadRequest, Code: SessionUnknownStep, Message: "Unknown step"}
	case errors.Is(err, service.ErrNotAtReview):
		return ErrorInfo{Status: http.StatusConflict, Code: SessionNotAtReview, Message: "Review your submission before sending it"}
	case errors.Is(err, service.ErrDishNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: DishNotFound, Message: "Dish not found"}
	case errors.Is(err, service.ErrFileIndexOutOfRange):
		return ErrorInfo{Status: http.StatusNotFound, Code: DishFileNotFound, Message: "File not found"}
	case errors.Is(err, service.ErrUnknownFileKind):
		return ErrorInfo{Status: http.StatusBadRequest, Code: DishUnknownFileKind, Message: "Unknown file kind"}
	}

	// 3. clients
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: ClientNotFound, Message: "No client is linked to this account"}
	case errors.Is(err, service.ErrNotClientOwner):
		return ErrorInfo{Status: http.StatusForbidden, Code: AuthForbidden, Message: "You do not have access to this client"}
	}

	// 4. uploads
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return ErrorInfo{Status: http.StatusRequestEntityTooLarge, Code: UploadFileTooLarge, Message: "File is too large"}
	case errors.Is(err, storage.ErrContentTypeBlocked):
		return ErrorInfo{Status: http.StatusBadRequest, Code: UploadInvalidFileType, Message: "This file type is not supported"}
	case errors.Is(err, storage.ErrUndecodableImage):
		return ErrorInfo{Status: http.StatusBadRequest, Code: UploadUnreadableImage, Message: "This image could not be read"}
	}

	// 5. GORM / DB
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: "Requested data was not found"}
	}
	errStrLower := strings.ToLower(err.Error())
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "This data already exists"}
	}

	// 6. network
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "An external service is unavailable. Please try again later",
		}
	}

	// 7. fallback
	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

// ParseAndRespond writes the ParseError response for err.
func ParseAndRespond(c *gin.Context, err error) {
	info := ParseError(err)
	RespondWithError(c, info.Status, info.Code, info.Message)
}
