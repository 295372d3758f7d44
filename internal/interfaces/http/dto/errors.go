package dto

import "net/http"

// Error code constants organized by category. Domain errors carry these
// codes directly; the map below fixes the HTTP status each one travels with.

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeValidation is used for payload validation failures
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "INVALID_TOKEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "CONFLICT"
	// ErrCodeDuplicateRequest is used when an idempotency key is replayed
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
)

// Provisioning business error codes
const (
	// ErrCodeDuplicateName is used when a criteria or category name is taken
	ErrCodeDuplicateName = "DUPLICATE_NAME"
	// ErrCodeProductAlreadyAssociated is used when a loan product already
	// belongs to another criteria
	ErrCodeProductAlreadyAssociated = "PRODUCT_ALREADY_ASSOCIATED"
	// ErrCodeCriteriaInUse is used when provisioning entries block a delete
	ErrCodeCriteriaInUse = "CRITERIA_IN_USE"
	// ErrCodeCategoryInUse is used when criteria definitions block a
	// category delete
	ErrCodeCategoryInUse = "CATEGORY_IN_USE"
	// ErrCodeDataIntegrity is used for unrecognized constraint violations
	ErrCodeDataIntegrity = "DATA_INTEGRITY_VIOLATION"
)

// Request size and rate limiting error codes
const (
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeValidation:  http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeConflict:         http.StatusConflict,
	ErrCodeDuplicateRequest: http.StatusConflict,

	// Provisioning business errors -> 409 Conflict, except the generic
	// integrity violation which is a server-side problem
	ErrCodeDuplicateName:            http.StatusConflict,
	ErrCodeProductAlreadyAssociated: http.StatusConflict,
	ErrCodeCriteriaInUse:            http.StatusConflict,
	ErrCodeCategoryInUse:            http.StatusConflict,
	ErrCodeDataIntegrity:            http.StatusInternalServerError,

	// Request size and rate limiting
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
