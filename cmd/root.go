// Package cmd implements the pembenihan command line interface.
package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sekarsister/prediksi-pembenihan/internal/conf"
	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
	"github.com/sekarsister/prediksi-pembenihan/internal/logging"
	"github.com/sekarsister/prediksi-pembenihan/internal/model"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	v          *viper.Viper
	configFile string
	settings   *conf.Settings
	logger     *zap.Logger
}

// RootCommand creates the root command with every subcommand attached.
func RootCommand() (*cobra.Command, error) {
	a := &app{v: conf.New(), logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:          "pembenihan",
		Short:        "Prediksi volume produksi pembenihan ikan",
		Long:         `Forecasts hatchery production volume per species group and region from pre-trained models.`,
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, a); err != nil {
		return nil, err
	}

	rootCmd.AddCommand(
		segmentsCommand(a),
		predictCommand(a),
		validateCommand(a),
		serveCommand(a),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.initialize()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = a.logger.Sync()
	}

	return rootCmd, nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	rootCmd, err := RootCommand()
	if err != nil {
		return err
	}
	return rootCmd.ExecuteContext(ctx)
}

func setupFlags(rootCmd *cobra.Command, a *app) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to config file (default ./config.yaml or $HOME/.pembenihan/config.yaml)")
	flags.String("data", "", "Path to the production dataset (xlsx or csv)")
	flags.String("models", "", "Directory holding the model artifacts")
	flags.BoolP("debug", "d", false, "Enable debug output")

	bindings := map[string]string{
		"dataset.path": "data",
		"models.dir":   "models",
		"debug":        "debug",
	}
	for key, name := range bindings {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// initialize loads the settings and builds the logger before a subcommand runs.
func (a *app) initialize() error {
	settings, err := conf.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings

	logger, err := logging.New(settings.Logging.Level, settings.Logging.Format, settings.Debug)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("dataset", settings.Dataset.Path),
		zap.String("models", settings.Models.Dir),
		zap.String("config", a.v.ConfigFileUsed()))
	return nil
}

// loadTable loads the configured dataset, or path when it is not empty.
func (a *app) loadTable(path string) (*dataset.Table, error) {
	if path == "" {
		path = a.settings.Dataset.Path
	}
	table, err := dataset.Load(path, dataset.Options{Sheet: a.settings.Dataset.Sheet})
	if err != nil {
		return nil, err
	}
	a.logger.Info("dataset loaded",
		zap.String("source", table.Source()),
		zap.Int("rows", table.Len()),
		zap.Int("segments", len(table.Segments())))
	return table, nil
}

func (a *app) newStore() *model.Store {
	return model.NewStore(a.settings.Models.Dir, a.settings.Models.Prefix, a.settings.Models.CacheTTL, a.logger)
}

// session loads the dataset and opens the model store for one run.
func (a *app) session() (*forecast.Context, *model.Store, error) {
	table, err := a.loadTable("")
	if err != nil {
		return nil, nil, err
	}
	store := a.newStore()
	fc := forecast.NewContext(table, store, a.logger)
	fc.MaxPeriods = a.settings.Forecast.MaxPeriods
	return fc, store, nil
}

// outputPath places bare file names under the configured output directory.
func (a *app) outputPath(name string) string {
	if name == "" || filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	return filepath.Join(a.settings.Output.Dir, name)
}
