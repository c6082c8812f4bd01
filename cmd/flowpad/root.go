package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowpad/internal/config"
)

// app carries state resolved before any subcommand runs
type app struct {
	configFlag string
	addr       string
	logLevel   string
	seed       string

	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "flowpad",
		Short: "flowpad: node-graph diagram editor backend",
		Long: Brand.Sprint("flowpad") + " keeps a node/edge diagram, its selection, clipboard and history\n" +
			Subtle.Sprint("and serves it to browser canvases over HTTP and server-sent events"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.SetVersionTemplate("flowpad {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configFlag, "config", "", "Config file (default: search "+config.EnvConfigPath+", ./"+config.ConfigFileName+", XDG paths)")
	root.PersistentFlags().StringVar(&a.addr, "addr", "", "HTTP listen address")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.seed, "seed", "", "Diagram document to start from")

	root.AddCommand(
		serveCmd(a),
		exportCmd(a),
		configCmd(a),
		versionCmd(),
	)
	return root
}

// setup loads config, applies flag overrides and builds the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, path, err := config.Load(a.configFlag)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = a.addr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("seed") {
		cfg.Editor.SeedPath = a.seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg, a.cfgPath, a.logger = cfg, path, logger
	return nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level

	return zcfg.Build(zap.AddStacktrace(zap.ErrorLevel))
}

