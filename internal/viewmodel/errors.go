package viewmodel

import "fmt"

// InvalidParameterError reports a view parameter the engine cannot apply.
type InvalidParameterError struct {
	Param  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

func invalidParam(param, value, reason string) *InvalidParameterError {
	return &InvalidParameterError{Param: param, Value: value, Reason: reason}
}
