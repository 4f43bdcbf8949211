package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`   // code the frontend maps to a message
	Message string `json:"message"` // shown to the user
}

// RespondWithError writes an ErrorResponse. errorCode is one of the constants
// in codes.go.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// Shorthands

func Unauthorized(c *gin.Context, errorCode string, message string) {
	if message == "" {
		message = "Invalid or expired token"
	}
	RespondWithError(c, http.StatusUnauthorized, errorCode, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError carries per field messages.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"` // keyed by field
}

// RespondWithValidationError is used for malformed request bodies.
func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Some fields are invalid",
		Fields:  fields,
	})
}

// StepValidationError is the 422 body. State is the wizard after the attempted move.
type StepValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Step    int               `json:"step"`
	Fields  map[string]string `json:"fields"`
	State   interface{}       `json:"state,omitempty"`
}

// RespondWithStepErrors reports the fields that keep the user on step.
func RespondWithStepErrors(c *gin.Context, step int, fields map[string]string, state interface{}) {
	c.JSON(http.StatusUnprocessableEntity, StepValidationError{
		Error:   ValidationStepFailed,
		Message: "Please fix the highlighted fields",
		Step:    step,
		Fields:  fields,
		State:   state,
	})
}
