package errors

// Error codes returned in the "error" field.
// Format: CATEGORY_SPECIFIC_DETAIL
// The frontend maps these codes to its own messages.

const (
	// ==================== AUTH_ ====================
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"
	AuthForbidden    = "AUTH_FORBIDDEN"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationStepFailed   = "VALIDATION_STEP_FAILED" // step errors keep the user in place

	// ==================== SESSION_ ====================
	SessionNotFound    = "SESSION_NOT_FOUND" // missing or evicted
	SessionUnknownFlow = "SESSION_UNKNOWN_FLOW"
	SessionUnknownStep = "SESSION_UNKNOWN_STEP"
	SessionNotAtReview = "SESSION_NOT_AT_REVIEW"

	// ==================== DISH_ ====================
	DishNotFound        = "DISH_NOT_FOUND"
	DishFileNotFound    = "DISH_FILE_NOT_FOUND" // file index out of range
	DishUnknownFileKind = "DISH_UNKNOWN_FILE_KIND"

	// ==================== CLIENT_ ====================
	ClientNotFound = "CLIENT_NOT_FOUND" // no client linked to the login

	// ==================== SUBMISSION_ ====================
	SubmissionFailed     = "SUBMISSION_FAILED" // cause is only logged
	SubmissionInProgress = "SUBMISSION_IN_PROGRESS"
	SubmissionEmpty      = "SUBMISSION_EMPTY"

	// ==================== UPLOAD_ ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadUnreadableImage = "UPLOAD_UNREADABLE_IMAGE"
	UploadNoFiles         = "UPLOAD_NO_FILES"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
