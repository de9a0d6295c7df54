package transcriber

import "errors"

var (
	// ErrNoTranscript is returned when no unit of a file produced text.
	ErrNoTranscript = errors.New("no transcript produced")
	// ErrUnknownModel means a Model value outside the known variants.
	ErrUnknownModel = errors.New("unknown transcription model")
)

// FatalTranscriptionError marks an error that will repeat for every file in
// this run: a missing binary, model file or API key. Callers stop early.
type FatalTranscriptionError struct {
	Err error
}

func (e *FatalTranscriptionError) Error() string {
	if e == nil || e.Err == nil {
		return "fatal transcription error"
	}
	return e.Err.Error()
}

func (e *FatalTranscriptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewFatalTranscriptionError(err error) error {
	if err == nil {
		return nil
	}
	return &FatalTranscriptionError{Err: err}
}

func IsFatalTranscriptionError(err error) bool {
	var fatal *FatalTranscriptionError
	return errors.As(err, &fatal)
}
