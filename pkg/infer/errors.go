package infer

// inferError is a simple error type for the infer package
type inferError string

func (e inferError) Error() string { return string(e) }

// Errors for inference operations
const (
	ErrNoInput          = inferError("model has no input tensor")
	ErrNoOutput         = inferError("model has no output tensor")
	ErrSessionClosed    = inferError("session is closed")
	ErrInferenceTimeout = inferError("inference timed out")
	ErrInvalidDataType  = inferError("unsupported tensor data type")
)
