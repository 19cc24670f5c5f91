// Package cmd wires the vectorinsight command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/cmd/audit"
	"github.com/vectorcam/vectorinsight/cmd/collectors"
	configcmd "github.com/vectorcam/vectorinsight/cmd/config"
	"github.com/vectorcam/vectorinsight/cmd/load"
	metricscmd "github.com/vectorcam/vectorinsight/cmd/metrics"
	"github.com/vectorcam/vectorinsight/cmd/migrate"
	"github.com/vectorcam/vectorinsight/cmd/run"
	"github.com/vectorcam/vectorinsight/cmd/version"
	"github.com/vectorcam/vectorinsight/internal/buildinfo"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/telemetry"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configFile string
	envFile    string
	debug      bool
}

// app holds what the persistent pre-run sets up, so it can be torn down
// once the command returns.
type app struct {
	settings  *conf.Settings
	flags     globalFlags
	central   *logger.CentralLogger
	telemetry bool
}

// newRootCommand creates the root command. Execute owns a and tears it down.
func newRootCommand(a *app) *cobra.Command {
	var skip bool

	rootCmd := &cobra.Command{
		Use:   "vectorinsight",
		Short: "VectorCam surveillance data pipeline",
		Long: `vectorinsight extracts VectorCam surveillance and specimen exports, cleans and
merges them, loads them into a relational store and computes monthly
surveillance metrics. Without a subcommand it runs the pipeline.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run.Execute(cmd.Context(), run.Params{
				Settings:       a.settings,
				SkipExtraction: skip,
				Out:            cmd.OutOrStdout(),
			})
		},
	}

	setupFlags(rootCmd, &a.flags)
	run.AddFlags(rootCmd, &skip)

	versionCmd := version.Command()
	rootCmd.AddCommand(
		run.Command(a.settings),
		load.Command(a.settings),
		audit.Command(a.settings),
		collectors.Command(a.settings),
		migrate.Command(a.settings),
		metricscmd.Command(a.settings),
		configcmd.Command(a.settings),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// version needs no configuration
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return a.initialize()
	}

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, flags *globalFlags) {
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Path to a .env file (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug output")
}

// initialize loads the settings and sets up logging and telemetry.
func (a *app) initialize() error {
	loaded, err := conf.Load(conf.LoadOptions{
		ConfigFile: a.flags.configFile,
		EnvFile:    a.flags.envFile,
		Debug:      a.flags.debug,
	})
	if err != nil {
		return err
	}
	*a.settings = *loaded

	central, err := logger.NewCentralLogger(&a.settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	a.central = central
	logger.SetGlobal(central)

	log := central.Module("main")
	for _, w := range a.settings.Warnings {
		log.Warn("configuration warning", logger.String("warning", w))
	}
	if a.settings.ConfigFile != "" {
		log.Debug("loaded configuration", logger.String("path", a.settings.ConfigFile))
	}

	on, err := telemetry.Init(a.settings, log, telemetry.Options{Release: buildinfo.Get().Version})
	if err != nil {
		log.Warn("error telemetry disabled", logger.Error(err))
	}
	a.telemetry = on
	return nil
}

func (a *app) shutdown() {
	if a.telemetry {
		telemetry.Flush(telemetry.DefaultFlushTimeout)
		telemetry.Shutdown()
		a.telemetry = false
	}
	if a.central != nil {
		_ = a.central.Flush()
		_ = a.central.Close()
		logger.SetGlobal(nil)
		a.central = nil
	}
}

// Execute runs the command line with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{settings: &conf.Settings{}}
	defer a.shutdown()

	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
