// internal/api/error_codes.go
package api

// API error code constants
const (
	// Generic errors
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorForbidden     = "FORBIDDEN"
	ErrorUnauthorized  = "UNAUTHORIZED"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// Scenario errors
	ErrorScenarioNotFound     = "SCENARIO_NOT_FOUND"
	ErrorScenarioCreateFailed = "SCENARIO_CREATE_FAILED"
	ErrorScenarioInvalid      = "SCENARIO_INVALID"
	ErrorSegmentNotFound      = "SEGMENT_NOT_FOUND"

	// Practice session errors
	ErrorSessionNotFound     = "SESSION_NOT_FOUND"
	ErrorSessionClosed       = "SESSION_CLOSED"
	ErrorSessionEventInvalid = "SESSION_EVENT_INVALID"

	// Capture errors
	ErrorDevicePermissionDenied = "DEVICE_PERMISSION_DENIED"
	ErrorRecordingInvalid       = "RECORDING_INVALID"

	// Upload and storage errors
	ErrorUploadFailed   = "UPLOAD_FAILED"
	ErrorFileInvalid    = "FILE_INVALID"
	ErrorFileTooLarge   = "FILE_TOO_LARGE"
	ErrorObjectNotFound = "OBJECT_NOT_FOUND"
	ErrorStorageFailure = "STORAGE_FAILURE"

	// Review errors
	ErrorResponseNotFound = "RESPONSE_NOT_FOUND"
	ErrorReviewInvalid    = "REVIEW_INVALID"

	// User errors
	ErrorUserNotFound = "USER_NOT_FOUND"
	ErrorRoleInvalid  = "ROLE_INVALID"
)
