package vars

import (
	"fmt"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// UnresolvedError reports a placeholder with no value in any source.
type UnresolvedError struct {
	Name     string
	Template string
	Hint     string
}

func (e *UnresolvedError) Error() string {
	msg := fmt.Sprintf("unresolved variable ${%s} in %q", e.Name, e.Template)
	if e.Hint != "" {
		msg += fmt.Sprintf("\n  Hint: %s", e.Hint)
	}
	return msg
}

func (e *UnresolvedError) Unwrap() error {
	return ftmgmt.ErrUnresolvedVariable
}
