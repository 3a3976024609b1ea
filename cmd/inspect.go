package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/apb/internal/config"
	"github.com/papapumpkin/apb/internal/ui"
)

// errStale is returned by inspect --check when the Dockerfile lags apb.yml.
var errStale = errors.New("embedded spec does not match the spec file; run 'apb prepare'")

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the spec embedded in the project's Dockerfile",
	Long: "Decode the spec stored under the spec label of the Dockerfile and write it to " +
		"stdout. Differences from apb.yml and from the prepare lock are reported on stderr.",
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	addInspectFlags(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

// addInspectFlags registers CLI flags for the inspect subcommand.
func addInspectFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-path", ".", "Project directory")
	cmd.Flags().Bool("check", false, "Exit non-zero when the embedded spec is out of date")
}

func runInspect(cmd *cobra.Command, args []string) error {
	printer := ui.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	basePath, _ := cmd.Flags().GetString("base-path")
	check, _ := cmd.Flags().GetBool("check")

	p, err := loadProject(cfg, basePath, nil)
	if err != nil {
		return err
	}

	ins, err := p.Inspect()
	if err != nil {
		return err
	}

	if _, err := cmd.OutOrStdout().Write(ins.Spec); err != nil {
		return fmt.Errorf("writing spec: %w", err)
	}

	switch {
	case ins.SpecFileMissing:
		printer.Warn(p.SpecFile + " not found; nothing to compare against")
	case !ins.MatchesSpecFile:
		printer.Warn(p.Dockerfile + " is stale: embedded spec differs from " + p.SpecFile)
	}
	if ins.Lock == nil {
		printer.Info("no " + p.LockFile + "; run 'apb prepare' to record one")
	} else if !ins.MatchesLock {
		printer.Warn(p.LockFile + " does not describe the embedded spec")
	}

	if check && !ins.SpecFileMissing && !ins.MatchesSpecFile {
		return errStale
	}
	return nil
}

