package policy

import (
	"fmt"
	"strings"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// PolicyError is a structured policy problem with its location in the
// configuration document and a suggestion for fixing it.
type PolicyError struct {
	FileType string
	Unit     string
	Field    string
	Line     int
	Column   int
	Message  string
	Hint     string
}

func (e *PolicyError) Error() string {
	var where []string
	if e.FileType != "" {
		where = append(where, "filetype "+e.FileType)
	}
	if e.Unit != "" {
		where = append(where, "unit "+e.Unit)
	}
	if e.Field != "" {
		where = append(where, "field "+e.Field)
	}
	location := strings.Join(where, ", ")
	if e.Line > 0 {
		if location != "" {
			location += " "
		}
		if e.Column > 0 {
			location += fmt.Sprintf("(line %d, col %d)", e.Line, e.Column)
		} else {
			location += fmt.Sprintf("(line %d)", e.Line)
		}
	}

	msg := "policy error: " + e.Message
	if location != "" {
		msg = fmt.Sprintf("policy error in %s: %s", location, e.Message)
	}
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	return msg
}

func (e *PolicyError) Unwrap() error {
	return ftmgmt.ErrInvalidConfig
}

// ValidationResult contains the outcome of policy validation.
// If Valid is false, Errors contains human-readable error messages.
// Warnings name fields that resolution will skip; they never invalidate.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string `json:",omitempty"`
}

// AddWarning records a non-fatal problem.
func (v *ValidationResult) AddWarning(format string, args ...interface{}) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// AddError appends an error message to the validation result and marks it as invalid.
func (v *ValidationResult) AddError(format string, args ...interface{}) {
	v.Valid = false
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if the validation result contains errors.
func (v *ValidationResult) HasErrors() bool {
	return len(v.Errors) > 0
}

// ErrorString returns all validation errors joined with semicolons.
func (v *ValidationResult) ErrorString() string {
	return strings.Join(v.Errors, "; ")
}

// Err converts an invalid result into an error wrapping ftmgmt.ErrInvalidConfig.
func (v *ValidationResult) Err() error {
	if v.Valid {
		return nil
	}
	var msg strings.Builder
	msg.WriteString("invalid metadata policy:\n")
	for i, e := range v.Errors {
		msg.WriteString(fmt.Sprintf("  %d. %s\n", i+1, e))
	}
	return fmt.Errorf("%w: %s", ftmgmt.ErrInvalidConfig, strings.TrimRight(msg.String(), "\n"))
}
