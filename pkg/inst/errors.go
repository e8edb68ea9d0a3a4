package inst

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrTypeMismatch is returned by Assert if the held value has an unexpected type.
var ErrTypeMismatch = errors.New("instance type mismatch")

// ResolutionError is the failure of obtaining an instance of Type.
type ResolutionError struct {
	Type  reflect.Type
	Cause error
}

func (e *ResolutionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("exception getting an instance of %v", e.Type)
	}
	return fmt.Sprintf("exception getting an instance of %v: %v", e.Type, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }
