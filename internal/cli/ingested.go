package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ftmgmt/internal/db"
	"github.com/vvka-141/ftmgmt/internal/resolve"
	"github.com/vvka-141/ftmgmt/internal/store"
)

var ingestedCmd = &cobra.Command{
	Use:   "ingested FILE...",
	Short: "Report which files are already recorded in the archive",
	Long: `Ingested looks up the bare filename of each input (directory and
compression extension removed) in the archive table and prints
"filename: true|false" per input.

The store is taken from the store section of the configuration
(store.driver, store.dsn, store.table, store.column); flags override it.
The memory driver answers from store.names (a list or a comma separated
string) and is meant for dry runs.
For postgres, an empty DSN falls back to DATABASE_URL and the PG* variables.

Examples:
  ftmgmt ingested raw_0001.fits raw_0002.fits.fz
  ftmgmt ingested --driver sqlite --dsn archive.db --table image *.fits`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngested,
}

type ingestedFlagValues struct {
	driver, dsn, table, column   string
	auth, awsRegion, gcpInstance string
	json                         bool
}

var ingestedFlags ingestedFlagValues

func init() {
	rootCmd.AddCommand(ingestedCmd)
	ingestedCmd.Flags().StringVar(&ingestedFlags.driver, "driver", "", "Store driver: postgres|sqlite|memory (default: store.driver or postgres)")
	ingestedCmd.Flags().StringVar(&ingestedFlags.dsn, "dsn", "", "Connection string, or database file for sqlite")
	ingestedCmd.Flags().StringVar(&ingestedFlags.table, "table", "", "Table holding ingested filenames (default: image)")
	ingestedCmd.Flags().StringVar(&ingestedFlags.column, "column", "", "Filename column (default: filename)")
	ingestedCmd.Flags().StringVar(&ingestedFlags.auth, "auth", "",
		"Postgres authentication: password|aws|azure|google (default: store.auth or password)\n"+
			"aws: RDS IAM token, azure: Entra ID token (DefaultAzureCredential),\n"+
			"google: Cloud SQL connector with IAM authentication")
	ingestedCmd.Flags().StringVar(&ingestedFlags.awsRegion, "aws-region", "", "AWS region for --auth aws (default: store.aws_region or $AWS_REGION)")
	ingestedCmd.Flags().StringVar(&ingestedFlags.gcpInstance, "google-instance", "", "Cloud SQL instance connection name (project:region:instance)")
	ingestedCmd.Flags().BoolVar(&ingestedFlags.json, "json", false, "Output as a JSON object")
}

func runIngested(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sc := store.ConfigFromStore(a.cfg)
	if ingestedFlags.driver != "" {
		sc.Driver = ingestedFlags.driver
	}
	if ingestedFlags.dsn != "" {
		sc.DSN = ingestedFlags.dsn
	}
	if ingestedFlags.table != "" {
		sc.Table = ingestedFlags.table
	}
	if ingestedFlags.column != "" {
		sc.Column = ingestedFlags.column
	}
	if ingestedFlags.auth != "" {
		sc.Auth = ingestedFlags.auth
	}
	if ingestedFlags.awsRegion != "" {
		sc.AWSRegion = ingestedFlags.awsRegion
	}
	if ingestedFlags.gcpInstance != "" {
		sc.GoogleInstance = ingestedFlags.gcpInstance
	}
	if sc.Driver == store.DriverPostgres && getVerboseFlag(cmd) && sc.DSN != "" {
		if parsed, err := db.ParseConnectionString(sc.DSN); err == nil {
			a.logger.Verbose("Existence store: %s/%s table %s", parsed.Addr(), parsed.Database, sc.Table)
		}
	}

	s, err := store.Open(cmd.Context(), sc, a.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	found, err := resolve.Ingested(cmd.Context(), s, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ingestedFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}
	for _, name := range args {
		fmt.Fprintf(out, "%s: %t\n", name, found[name])
	}
	return nil
}
