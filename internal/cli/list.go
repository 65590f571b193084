package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ftmgmt/internal/files/filesystem"
	"github.com/vvka-141/ftmgmt/internal/listfile"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

var listCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "Parse a list file and print its records",
	Long: `List parses a list file the way wrapper templates read it and prints one
record per line. No configuration document is needed.

Formats: ` + strings.Join(listfile.Formats(), ", ") + `
Text formats (textsp, textcsv, texttab) need --columns.

Examples:
  ftmgmt list visits.txt --columns expnum,ccd
  ftmgmt list ccds.csv --format textcsv --columns ccd,band --json
  ftmgmt list corrections.hcl --format hcl`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

type listFlagValues struct {
	format   string
	columns  string
	keepCase bool
	json     bool
}

var listFlags listFlagValues

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFlags.format, "format", "f", listfile.DefaultFormat, "List file format")
	listCmd.Flags().StringVar(&listFlags.columns, "columns", "", "Column names for text formats, comma or space separated")
	listCmd.Flags().BoolVar(&listFlags.keepCase, "keep-case", false, "Keep the case of column names")
	listCmd.Flags().BoolVar(&listFlags.json, "json", false, "Output records as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	records, err := listfile.Read(filesystem.NewOSFileSystem(), args[0], listFlags.format,
		listfile.ParseColumns(listFlags.columns, listFlags.keepCase))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	for _, rec := range records {
		for _, unit := range rec.Units() {
			fields, _ := rec.Unit(unit)
			parts := make([]string, 0, fields.Len())
			fields.Range(func(key string, v ftmgmt.Value) bool {
				parts = append(parts, key+"="+v.String())
				return true
			})
			fmt.Fprintf(out, "%s %s: %s\n", rec.Name, unit, strings.Join(parts, " "))
		}
	}
	return nil
}
