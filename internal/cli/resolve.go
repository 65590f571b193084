package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ftmgmt/internal/filename"
	"github.com/vvka-141/ftmgmt/internal/files/filesystem"
	"github.com/vvka-141/ftmgmt/internal/fitshdr"
	"github.com/vvka-141/ftmgmt/internal/resolve"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve FILE|DIR...",
	Short: "Resolve the metadata record of data files",
	Long: `Resolve builds the metadata record of each file from the policy of its
file type (filetype_metadata.<type>) and prints it with the provenance of
every value. Directories are searched recursively for FITS files.

Examples:
  # Text output
  ftmgmt resolve --filetype raw ./night/

  # JSON output, 8 files at a time
  ftmgmt resolve --filetype raw --json --parallel 8 a.fits b.fits.fz

  # Show the resolution steps instead of resolving
  ftmgmt resolve --filetype raw --plan`,
	RunE: runResolve,
}

type resolveFlagValues struct {
	fileType string
	json     bool
	parallel int
	plan     bool
}

var resolveFlags resolveFlagValues

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVarP(&resolveFlags.fileType, "filetype", "t", "", "File type as named in filetype_metadata (required)")
	resolveCmd.Flags().BoolVar(&resolveFlags.json, "json", false, "Output records as JSON")
	resolveCmd.Flags().IntVar(&resolveFlags.parallel, "parallel", 0,
		"Files resolved concurrently (default: resolve.parallelism or 4)")
	resolveCmd.Flags().BoolVar(&resolveFlags.plan, "plan", false, "Print the resolution steps of the file type and exit")
	_ = resolveCmd.MarkFlagRequired("filetype")
}

// fileResult is the JSON shape of one resolved file.
type fileResult struct {
	Path       string                   `json:"path"`
	ID         string                   `json:"id"`
	Record     *ftmgmt.Record           `json:"record,omitempty"`
	Provenance *ftmgmt.ProvenanceRecord `json:"provenance,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	model, err := a.policy()
	if err != nil {
		return err
	}
	engine := resolve.New(model, fitshdr.Opener{}, a.cfg, a.registry, a.logger)
	out := cmd.OutOrStdout()

	if resolveFlags.plan {
		steps, err := engine.Plan(resolveFlags.fileType)
		if err != nil {
			return err
		}
		fmt.Fprint(out, resolve.DescribePlan(steps))
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("missing required argument: FILE|DIR\n\nUsage: %s", cmd.UseLine())
	}

	paths, err := filesystem.CollectDataFiles(a.fs, args)
	if err != nil {
		return err
	}

	parallel := resolveFlags.parallel
	if parallel <= 0 {
		if n, err := a.cfg.Int("resolve.parallelism"); err == nil {
			parallel = n
		}
	}

	results, err := engine.ResolveMany(cmd.Context(), paths, resolveFlags.fileType, parallel)
	if err != nil {
		return err
	}

	if resolveFlags.json {
		err = writeResultsJSON(out, results)
	} else {
		writeResultsText(out, results)
	}
	if err != nil {
		return err
	}
	return firstError(results)
}

func writeResultsJSON(w io.Writer, results []resolve.Result) error {
	out := make([]fileResult, len(results))
	for i, r := range results {
		out[i] = fileResult{Path: r.Path, ID: filename.RecordID(r.Path).String(), Record: r.Record, Provenance: r.Provenance}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeResultsText(w io.Writer, results []resolve.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%s (%s)\n", r.Path, filename.RecordID(r.Path))
		if r.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", r.Err)
			continue
		}
		r.Record.Range(func(key string, v ftmgmt.Value) bool {
			prov, _ := r.Provenance.Get(key)
			fmt.Fprintf(w, "  %-20s = %-30s [%s %s]\n", key, v.String(), prov.Source.Code(), prov.Key)
			return true
		})
	}
}

// firstError reports a batch as failed when any file failed.
func firstError(results []resolve.Result) error {
	failed := 0
	var first error
	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("%d of %d file(s) failed to resolve, first: %w", failed, len(results), first)
}
