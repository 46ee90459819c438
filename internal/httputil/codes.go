package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInternalError      = "internal_error"
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
	CodeInvalidID          = "invalid_id"
	CodeInvalidQuery       = "invalid_query"

	// auth
	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeSessionRevoked     = "session_revoked"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUsernameTaken      = "username_taken"
)
