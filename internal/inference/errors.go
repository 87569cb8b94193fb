package inference

import "fmt"

// Kind classifies every way a request can fail.
type Kind int

const (
	KindInternal Kind = iota
	KindModelUnavailable
	KindMissingFile
	KindUnsupportedType
	KindDecode
	KindInferenceFailure
	KindShapeMismatch
	KindNotFound
	KindPayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindModelUnavailable:
		return "ModelUnavailable"
	case KindMissingFile:
		return "MissingFile"
	case KindUnsupportedType:
		return "UnsupportedType"
	case KindDecode:
		return "DecodeError"
	case KindInferenceFailure:
		return "InferenceFailure"
	case KindShapeMismatch:
		return "ShapeMismatch"
	case KindNotFound:
		return "NotFound"
	case KindPayloadTooLarge:
		return "PayloadTooLarge"
	}
	return "InternalError"
}

// Client facing messages
const (
	MsgModelUnavailable = "Model not loaded. Please check server logs."
	MsgNoFilePart       = "No file part in request"
	MsgNoFileSelected   = "No file selected"
	MsgUnsupportedType  = "Invalid file type. Please upload an image file."
	MsgNotFound         = "Endpoint not found"
	MsgPayloadTooLarge  = "File too large"
	MsgInternal         = "Internal server error"
)

// Error is the single failure outcome of a classification request.
// Message is safe to show to the client; Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
