package api

// Canonical callable error codes.
const (
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeFailedPrecondition = "FAILED_PRECONDITION"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeNotFound           = "NOT_FOUND"
	CodeResourceExhausted  = "RESOURCE_EXHAUSTED"
	CodeInternal           = "INTERNAL"
	CodeUnavailable        = "UNAVAILABLE"
)

// CallableRequest is the envelope of a callable invocation.
type CallableRequest[T any] struct {
	Data T `json:"data"`
}

// CallableResponse is the envelope of a successful callable result.
type CallableResponse struct {
	Result interface{} `json:"result"`
}

// ErrorResponse is the envelope of a failed callable invocation.
type ErrorResponse struct {
	Error CallableError `json:"error"`
}

// CallableError carries a canonical status code and a caller-safe message.
type CallableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
