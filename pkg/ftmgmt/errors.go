package ftmgmt

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	rec, prov, err := engine.Resolve(ctx, path, "raw_hsc")
//	if errors.Is(err, ftmgmt.ErrUnknownFileType) {
//	    // policy has no entry for this file type
//	}
var (
	// ErrUnknownFileType indicates the policy has no entry for the requested file type.
	ErrUnknownFileType = errors.New("unknown file type")

	// ErrUnresolvedVariable indicates a placeholder could not be resolved
	// and keepvars was not requested.
	ErrUnresolvedVariable = errors.New("unresolved variable")

	// ErrKeyNotFound indicates a header or configuration key is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnitNotFound indicates a structural unit (HDU) is absent from a file.
	ErrUnitNotFound = errors.New("structural unit not found")

	// ErrNotDerivable indicates a computed function cannot produce a value
	// for this particular file.
	ErrNotDerivable = errors.New("value not derivable")

	// ErrAmbiguousUnit indicates a list record has several sub-units and none
	// matches the requested name.
	ErrAmbiguousUnit = errors.New("ambiguous sub-unit")

	// ErrFieldNotFound indicates a join-mode field is absent from a list record.
	ErrFieldNotFound = errors.New("field not found")

	// ErrUnsupportedListFormat indicates an unknown list file format.
	ErrUnsupportedListFormat = errors.New("unsupported list format")

	// ErrNotImplemented indicates a template shape or section that is not supported.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFileNotFound indicates an input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrListNotFound indicates a list file referenced by the configuration does not exist.
	ErrListNotFound = errors.New("list not found")

	// ErrMultipleValues indicates a template expanded into more than one value
	// where a single value was required.
	ErrMultipleValues = errors.New("multiple values where one expected")

	// ErrExpansionDepth indicates recursive placeholder expansion did not settle.
	ErrExpansionDepth = errors.New("variable expansion too deep")

	// ErrInvalidSection indicates a template references a section other than list or file.
	ErrInvalidSection = errors.New("invalid section name")

	// ErrStoreUnavailable indicates the existence-check store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedListFormat),
		errors.Is(err, ErrUnresolvedVariable),
		errors.Is(err, ErrExpansionDepth):
		return ExitConfigError
	case errors.Is(err, ErrStoreUnavailable):
		return ExitStoreError
	case errors.Is(err, ErrUnknownFileType):
		return ExitResolutionError
	case errors.Is(err, ErrNotImplemented),
		errors.Is(err, ErrAmbiguousUnit),
		errors.Is(err, ErrFieldNotFound),
		errors.Is(err, ErrInvalidSection),
		errors.Is(err, ErrMultipleValues):
		return ExitTemplateError
	case errors.Is(err, ErrFileNotFound), errors.Is(err, ErrListNotFound):
		return ExitInputMissing
	}

	if isUsageError(err.Error()) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// isUsageError recognises the messages cobra produces for command-line misuse.
func isUsageError(msg string) bool {
	usagePatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"requires at least",
		"required flag",
		"invalid argument",
		"missing required argument",
	}
	for _, p := range usagePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
