package starrow

import "fmt"

// ErrBinding is a sentinel for use with errors.Is to check whether any error
// in a chain is a *BindingError.
var ErrBinding = &BindingError{}

// BindingError represents a failure detected at the binding boundary before
// a call is forwarded to the underlying Arrow library.
type BindingError struct {
	Kind    string // e.g. "TypeError", "IndexError", "ValueError"
	Message string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is supports errors.Is by matching any *BindingError target.
func (e *BindingError) Is(target error) bool {
	_, ok := target.(*BindingError)
	return ok
}

func typeErrorf(format string, args ...any) *BindingError {
	return &BindingError{Kind: "TypeError", Message: fmt.Sprintf(format, args...)}
}

func indexErrorf(format string, args ...any) *BindingError {
	return &BindingError{Kind: "IndexError", Message: fmt.Sprintf(format, args...)}
}

func valueErrorf(format string, args ...any) *BindingError {
	return &BindingError{Kind: "ValueError", Message: fmt.Sprintf(format, args...)}
}
