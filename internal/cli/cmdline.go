package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ftmgmt/internal/cmdline"
	"github.com/vvka-141/ftmgmt/internal/vars"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

var cmdlineCmd = &cobra.Command{
	Use:   "cmdline",
	Short: "Assemble the wrapper command line",
	Long: `Cmdline builds the command line of a wrapped program from the wrapper
section of the configuration:

  wrapper.base_cmdline      the command itself (or --base)
  wrapper.per_file_cmdline  list.<list>.<unit>:<fragment>, one fragment per list line
  wrapper.add_cmdline       '<sep>'.join(list.<list>.<unit>.<field>)

per_file_cmdline takes precedence over add_cmdline. The result is clipped to
3995 characters.

Examples:
  ftmgmt cmdline
  ftmgmt cmdline --base "detrend.py --ccds " --param "wrapper.add_cmdline=','.join(list.ccds.file.ccd)"`,
	Args: cobra.NoArgs,
	RunE: runCmdline,
}

type cmdlineFlagValues struct {
	base   string
	strict bool
}

var cmdlineFlags cmdlineFlagValues

func init() {
	rootCmd.AddCommand(cmdlineCmd)
	cmdlineCmd.Flags().StringVar(&cmdlineFlags.base, "base", "", "Base command (default: wrapper.base_cmdline)")
	cmdlineCmd.Flags().BoolVar(&cmdlineFlags.strict, "strict", false,
		"Fail when a template cannot be expanded instead of printing the base command")
}

func runCmdline(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	w := cmdline.WrapperFromConfig(a.cfg)
	base := w.Base
	if cmdlineFlags.base != "" {
		base = cmdlineFlags.base
	}
	if base == "" {
		return fmt.Errorf("%w: no base command (set wrapper.base_cmdline or --base)", ftmgmt.ErrInvalidConfig)
	}

	resolver := vars.NewResolver(a.cfg)
	base, err = resolver.ReplaceSingle(base, vars.DefaultOptions())
	if err != nil {
		return err
	}

	exp := cmdline.New(resolver, cmdline.NewConfigLists(a.cfg, a.fs), a.logger)
	line, err := exp.Build(cmd.Context(), base, w)
	if err != nil {
		if cmdlineFlags.strict {
			return err
		}
		a.logger.Info("WARN: %v; using the base command", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ftmgmt.TruncateCommandLine(line))
	return nil
}
