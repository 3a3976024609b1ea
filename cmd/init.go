package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/apb/internal/config"
	"github.com/papapumpkin/apb/internal/project"
	"github.com/papapumpkin/apb/internal/telemetry"
	"github.com/papapumpkin/apb/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new APB project directory",
	Long: "Create <base-path>/<name> with an example apb.yml, a Dockerfile carrying the " +
		"spec label, and empty playbooks/ and roles/ directories.",
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	addInitFlags(initCmd)
	rootCmd.AddCommand(initCmd)
}

// addInitFlags registers CLI flags for the init subcommand.
func addInitFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-path", ".", "Directory in which the project is created")
	cmd.Flags().Bool("force", false, "Recreate the project directory if it already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	printer := ui.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	basePath, _ := cmd.Flags().GetString("base-path")
	force, _ := cmd.Flags().GetBool("force")

	em, err := openTelemetry(cfg)
	if err != nil {
		return err
	}
	defer em.Close()

	printer.Info("Initializing " + args[0] + " for an APB")
	dir, err := project.Init(project.Options{
		BasePath:     basePath,
		Name:         args[0],
		Force:        force,
		TemplateDir:  cfg.TemplateDir,
		Ignore:       cfg.TemplateIgnore,
		SpecFile:     cfg.SpecFile,
		Dockerfile:   cfg.Dockerfile,
		SpecLabel:    cfg.SpecLabel,
		VersionLabel: cfg.VersionLabel,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	_ = em.Emit(telemetry.Event{Kind: telemetry.KindProjectInit, Project: args[0], Data: map[string]string{"path": dir}})
	printer.ProjectCreated(dir)
	return nil
}
