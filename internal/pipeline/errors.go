package pipeline

import "errors"

// PreconditionError reports that a step's required upstream output is
// missing, so the step cannot run at all.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

func precondition(msg string) error {
	return &PreconditionError{Msg: msg}
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
