package errs

import "errors"

var (
	ErrRecordNotFound       = errors.New("record not found")
	ErrNoTransaction        = errors.New("no transaction in context")
	ErrInvalidResourceID    = errors.New("invalid resource id")
	ErrInvalidCSV           = errors.New("invalid id csv")
	ErrInvalidMp3           = errors.New("invalid mp3")
	ErrInvalidMetadata      = errors.New("invalid song metadata")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadSerialization = errors.New("payload serialization failed")
)

// InputError is a client-caused failure. Message is safe to return to the caller as is.
type InputError struct {
	Kind    error
	Message string
	Details map[string]string
}

func NewInputError(kind error, message string) *InputError {
	return &InputError{Kind: kind, Message: message}
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Unwrap() error {
	return e.Kind
}
