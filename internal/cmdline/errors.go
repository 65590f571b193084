package cmdline

import (
	"fmt"
)

// TemplateError reports a wrapper template that cannot be applied.
// It unwraps to the ftmgmt sentinel describing the failure.
type TemplateError struct {
	Setting  string
	Template string
	Err      error
	Hint     string
}

func (e *TemplateError) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Setting, e.Template, e.Err)
	if e.Hint != "" {
		msg += fmt.Sprintf("\n  Hint: %s", e.Hint)
	}
	return msg
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
