package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/apb/internal/bundle"
	"github.com/papapumpkin/apb/internal/config"
	"github.com/papapumpkin/apb/internal/telemetry"
	"github.com/papapumpkin/apb/internal/ui"
	"github.com/papapumpkin/apb/internal/watch"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Embed apb.yml into the project's Dockerfile",
	Long: "Assign the spec an id if it has none, then base64-encode apb.yml and write it " +
		"under the spec label of the Dockerfile, replacing any previously embedded spec.",
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	addPrepareFlags(prepareCmd)
	rootCmd.AddCommand(prepareCmd)
}

// addPrepareFlags registers CLI flags for the prepare subcommand.
func addPrepareFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-path", ".", "Project directory")
	cmd.Flags().Bool("watch", false, "Re-embed whenever the spec file changes")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	printer := ui.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	basePath, _ := cmd.Flags().GetString("base-path")
	watchMode, _ := cmd.Flags().GetBool("watch")

	em, err := openTelemetry(cfg)
	if err != nil {
		return err
	}
	defer em.Close()

	p, err := loadProject(cfg, basePath, em)
	if err != nil {
		return err
	}

	if err := prepareOnce(printer, p); err != nil {
		if !watchMode {
			return err
		}
		printer.Error(err.Error())
	}
	if !watchMode {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchAndPrepare(ctx, printer, p, cfg, em)
}

func prepareOnce(printer *ui.Printer, p *bundle.Project) error {
	rep, err := p.Prepare()
	if err != nil {
		return err
	}
	if rep.IDAssigned {
		printer.SpecIDAssigned(rep.SpecID, p.SpecFile)
	}
	printer.Embedded(p.Dockerfile, rep.Embed.BlobLength, rep.Embed.BlockLines, !rep.UpToDate)
	return nil
}

// watchAndPrepare re-runs prepare on every spec change until ctx is done.
// Failures are reported and watching continues.
func watchAndPrepare(ctx context.Context, printer *ui.Printer, p *bundle.Project, cfg config.Config, em *telemetry.Emitter) error {
	specPath := p.SpecPath()
	w, err := watch.New(filepath.Dir(specPath), []string{filepath.Base(specPath)}, cfg.WatchDebounce, logger)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Stop()

	printer.Watching(p.SpecFile)
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if change.Removed {
				printer.Warn(p.SpecFile + " removed; waiting for it to reappear")
				continue
			}
			logger.Debug("spec changed", zap.String("file", change.File))
			_ = em.Emit(telemetry.Event{Kind: telemetry.KindWatchRebuild, Project: filepath.Base(p.Dir)})
			if err := prepareOnce(printer, p); err != nil {
				printer.Error(err.Error())
			}
		}
	}
}
