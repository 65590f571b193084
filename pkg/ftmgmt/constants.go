package ftmgmt

import "unicode/utf8"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration, policy or parameters
	ExitStoreError      = 11 // Existence-check store unreachable or failing
	ExitResolutionError = 12 // File type unknown or input file not resolvable
	ExitTemplateError   = 13 // Command template could not be expanded
	ExitInputMissing    = 14 // Input file or list file not found
)

const (
	// MaxCommandLineLength is the longest command line the downstream
	// execution record can hold. Longer command lines are truncated by the
	// caller, never rejected.
	MaxCommandLineLength = 3995

	// DefaultExpandDepth bounds recursive placeholder expansion.
	DefaultExpandDepth = 50

	// DefaultResolveParallelism is the number of files resolved concurrently
	// by ResolveMany when no explicit value is configured.
	DefaultResolveParallelism = 4

	// DefaultIngestTable is the table consulted by the existence-check store
	// when the configuration does not name one.
	DefaultIngestTable = "image"

	// DefaultIngestColumn is the filename column of the existence-check table.
	DefaultIngestColumn = "filename"

	// ExistenceBatchSize caps the number of filenames sent in one store query.
	ExistenceBatchSize = 500
)

// TruncateCommandLine clips s to at most MaxCommandLineLength bytes without
// splitting a UTF-8 sequence.
func TruncateCommandLine(s string) string {
	if len(s) <= MaxCommandLineLength {
		return s
	}
	cut := MaxCommandLineLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
