package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papapumpkin/apb/internal/bundle"
	"github.com/papapumpkin/apb/internal/config"
	"github.com/papapumpkin/apb/internal/logging"
	"github.com/papapumpkin/apb/internal/telemetry"
	"github.com/papapumpkin/apb/internal/ui"
)

// logger is built once per invocation in PersistentPreRunE.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "apb",
	Short: "Ansible Playbook Bundle project tool",
	Long: "apb scaffolds Ansible Playbook Bundle projects and embeds their apb.yml spec " +
		"into the Dockerfile so the broker can read it from the image labels.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initLogger,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.New().Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .apb.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".apb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("APB")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

func initLogger(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logging.New(cfg.Verbose, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// openTelemetry returns the configured event log, or a nil no-op emitter when
// telemetry is disabled.
func openTelemetry(cfg config.Config) (*telemetry.Emitter, error) {
	if cfg.TelemetryPath == "" {
		return nil, nil
	}
	return telemetry.NewEmitter(cfg.TelemetryPath)
}

// loadProject resolves the project rooted at basePath using cfg.
func loadProject(cfg config.Config, basePath string, em *telemetry.Emitter) (*bundle.Project, error) {
	dir, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}
	return &bundle.Project{
		Dir:        dir,
		SpecFile:   cfg.SpecFile,
		Dockerfile: cfg.Dockerfile,
		LockFile:   cfg.LockFile,
		Label:      cfg.SpecLabel,
		Logger:     logger,
		Telemetry:  em,
	}, nil
}
