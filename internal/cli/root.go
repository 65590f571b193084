package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ftmgmt",
	Short: "Metadata and command-line assembly for archive file ingestion",
	Long: `ftmgmt resolves the metadata record of data files (FITS by default) from
their filename, their headers, the configuration document and computed
functions, following the per-file-type policy in filetype_metadata.

It also assembles wrapper command lines from list files and reports which
input files are already recorded in the downstream archive.

Configuration:
  The configuration document (YAML) is read from --config, $FTMGMT_CONFIG,
  or ./ftmgmt.yaml. Values can be overridden with --params-file (.env format)
  and --param key=value; dotted keys address nested sections.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration, policy or parameters
  11 - Existence-check store unavailable
  12 - Unknown file type or unresolvable input
  13 - Command template could not be expanded
  14 - Input file or list file not found`,
	SilenceUsage: true,
}

type globalFlagValues struct {
	config      string
	params      []string
	paramsFiles []string
	verbose     bool
	logJSON     bool
}

var globalFlags globalFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(rootCmd.OutOrStdout())
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&globalFlags.config, "config", "c", "",
		"Configuration document (default: $FTMGMT_CONFIG or ./ftmgmt.yaml)")
	pf.StringSliceVar(&globalFlags.params, "param", nil,
		"Override a configuration value as key=value (can be specified multiple times)\n"+
			"Example: --param store.driver=sqlite --param resolve.parallelism=8")
	pf.StringSliceVar(&globalFlags.paramsFiles, "params-file", nil,
		"Load overrides from .env files (can be specified multiple times)\n"+
			"Later files override earlier ones, --param overrides all")
	pf.BoolVarP(&globalFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	pf.BoolVar(&globalFlags.logJSON, "log-json", false, "Write log lines to stderr as JSON")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
