package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ftmgmt/internal/policy"
	"github.com/vvka-141/ftmgmt/internal/resolve"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the metadata policy",
	Long: `Policy commands work on the filetype_metadata section of the configuration
document. Neither needs access to data files or the archive.

Available commands:
  validate  Check every file type for malformed or unresolvable descriptors
  show      Print the fields and resolution steps of one file type`,
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate filetype_metadata",
	Args:  cobra.NoArgs,
	RunE:  runPolicyValidate,
}

var policyShowCmd = &cobra.Command{
	Use:   "show FILETYPE",
	Short: "Show the policy of one file type",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyShow,
}

var policyJSON bool

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyValidateCmd)
	policyCmd.AddCommand(policyShowCmd)

	policyValidateCmd.Flags().BoolVar(&policyJSON, "json", false, "Output validation results as JSON")
}

func runPolicyValidate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	model, err := policy.FromStore(a.cfg)
	if err != nil {
		return err
	}
	result := policy.Validate(model, a.registry)

	out := cmd.OutOrStdout()
	if policyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(out, "%s%d file type(s) valid: %s\n", checkMark(out), model.Len(), strings.Join(model.FileTypes(), ", "))
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}
	return result.Err()
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	model, err := policy.FromStore(a.cfg)
	if err != nil {
		return err
	}
	ft, err := model.FileType(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File type: %s\n", ft.ID)
	if ft.FilenamePattern != nil {
		fmt.Fprintf(out, "Filename pattern: %s\n", ft.FilenamePattern)
	}
	fmt.Fprintf(out, "Fields: %s\n\n", strings.Join(ft.Fields(), ", "))
	fmt.Fprint(out, resolve.DescribePlan(resolve.Plan(ft)))
	return nil
}
