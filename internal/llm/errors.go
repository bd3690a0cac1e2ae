package llm

import "fmt"

// UnavailableError is a transport failure: the model endpoint was
// unreachable, timed out, or returned a non-success status. It is never a
// security signal; the pipeline degrades and skips downstream stages.
type UnavailableError struct {
	Detail string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %s", e.Detail)
}

func unavailable(format string, args ...any) error {
	return &UnavailableError{Detail: fmt.Sprintf(format, args...)}
}
