package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/tenken"
	"github.com/aretw0/tenken/internal/platform"
	"github.com/aretw0/tenken/pkg/metrics"
	"github.com/aretw0/tenken/pkg/report"
)

var (
	verbose     bool
	configPath  string
	adapter     string
	dataPath    string
	localeName  string
	metricsFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tenken",
	Short: "Facility safety inspection checklists from the command line",
	Long: `tenken records facility inspections against an editable checklist.
Answers are kept per inspection area and survive checklist changes for every
item that still exists.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: tenken.yaml at the project root)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs, sqlite, redis, memory")
	rootCmd.PersistentFlags().StringVar(&dataPath, "path", "", "Data location (default: .tenken at the project root)")
	rootCmd.PersistentFlags().StringVar(&localeName, "locale", "", "Report language: ja or en")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
}

// env is everything a command needs once the session is open.
type env struct {
	sess     *tenken.Session
	cfg      platform.Config
	root     string
	locale   report.Locale
	registry *prometheus.Registry
}

// projectRoot finds the project root, falling back to the working directory.
func projectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := platform.FindRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

func openEnv(ctx context.Context) (*env, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = filepath.Join(root, platform.ConfigFile)
	}
	cfg, err := platform.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	locale, err := report.LocaleFor(firstNonEmpty(localeName, cfg.Locale))
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts := append(cfg.Options(),
		platform.WithLogger(slog.Default()),
		platform.WithObserver(metrics.New(registry)),
		// Every command is a single short-lived operation.
		platform.WithDebounce(0),
	)
	if adapter != "" {
		opts = append(opts, platform.WithAdapter(adapter))
	}

	path := dataPath
	if path == "" {
		path = cfg.DataPath(root)
	}
	sess, err := tenken.Open(ctx, path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open checklist data: %w", err)
	}
	return &env{sess: sess, cfg: cfg, root: root, locale: locale, registry: registry}, nil
}

func (e *env) close(ctx context.Context) error {
	err := e.sess.Close(ctx)
	if metricsFile != "" {
		err = errors.Join(err, prometheus.WriteToTextfile(metricsFile, e.registry))
	}
	return err
}

// withSession opens the session around a command and closes it afterwards.
func withSession(fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		runErr := fn(cmd, args, e)
		if err := e.close(ctx); err != nil {
			slog.Warn("failed to persist checklist data", "error", err)
		}
		return runErr
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
