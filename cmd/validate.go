package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/apb/internal/bundle"
	"github.com/papapumpkin/apb/internal/config"
	"github.com/papapumpkin/apb/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the project is ready to prepare",
	Long: "Check apb.yml and the Dockerfile without changing them. Problems that the next " +
		"'apb prepare' fixes are reported as warnings.",
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("base-path", ".", "Project directory")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	printer := ui.NewWithWriter(cmd.ErrOrStderr())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	basePath, _ := cmd.Flags().GetString("base-path")

	p, err := loadProject(cfg, basePath, nil)
	if err != nil {
		return err
	}

	findings := p.Check()
	for _, f := range findings {
		if f.Warning {
			printer.Warn(f.Error())
		} else {
			printer.Error(f.Error())
		}
	}
	if bundle.HasErrors(findings) {
		return fmt.Errorf("validation failed with %d finding(s)", len(findings))
	}
	printer.Success(p.Dir + " is valid")
	return nil
}
