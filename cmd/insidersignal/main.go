package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"InsiderSignal/internal/backtest"
	"InsiderSignal/internal/collector"
	"InsiderSignal/internal/config"
	"InsiderSignal/internal/notifier"
	"InsiderSignal/internal/pipeline"
	"InsiderSignal/internal/pricestore"
	"InsiderSignal/internal/recorder"
	"InsiderSignal/internal/scheduler"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "insidersignal",
	Short:         "Insider trade enrichment, tagging and conviction scoring",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		if cfgPath == "" {
			cfgPath = "configs/config.yaml"
			if v := os.Getenv("CONFIG_PATH"); v != "" {
				cfgPath = v
			}
		}
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if trades, _ := cmd.Flags().GetString("trades"); trades != "" {
			cfg.Data.TradesCSV = trades
		}
		setupLogging(cfg.Logging.Level, cfg.Logging.Format)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: configs/config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("trades", "", "trade CSV path override")

	rootCmd.AddCommand(runCmd, serveCmd, versionCmd)
}

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// app holds the wired collaborators of one process.
type app struct {
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}

func buildApp(cfg *config.Config) (*app, error) {
	a := &app{}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using memory")
			rec = recorder.NewMemoryRecorder()
		} else {
			rec = sr
			a.closers = append(a.closers, sr.Close)
		}
	} else {
		rec = recorder.NewMemoryRecorder()
	}

	fetcher, err := collector.New(cfg.DataSource.Kind, cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	var layers []pricestore.SnapshotCache
	if cfg.Redis.Addr != "" {
		rc, err := recorder.NewRedisSnapshotCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, snapshot cache is local only")
		} else {
			layers = append(layers, rc)
			a.closers = append(a.closers, rc.Close)
		}
	}
	layers = append(layers, rec)

	opts, err := cfg.PipelineOptions()
	if err != nil {
		a.Close()
		return nil, err
	}
	p := pipeline.New(opts, rec)
	p.Fetcher = fetcher
	snaps := &pricestore.Snapshots{Layers: layers}
	if sf, ok := fetcher.(collector.SnapshotFetcher); ok {
		snaps.Fetcher = sf
	}
	p.Snapshots = snaps
	a.pipeline = p
	return a, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once over the trade CSV and write the outputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := a.pipeline.RunFile(ctx, cfg.Data.TradesCSV)
		if err != nil {
			return err
		}
		if err := pipeline.WriteOutputs(cfg.Data.OutputDir, res); err != nil {
			return err
		}
		fmt.Println(backtest.Report(res.Case1, res.Case2))
		log.Info().Str("dir", cfg.Data.OutputDir).Msg("outputs written")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var tn *notifier.TelegramNotifier
		if cfg.TelegramEnabled() {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		}

		sched := scheduler.NewScheduler(ctx, a.pipeline, tn, cfg.Data.TradesCSV, cfg.Data.OutputDir)
		if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if tn != nil {
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")
		}
		if cfg.Schedule.RunOnStart {
			log.Info().Msg("run_on_start enabled, executing pipeline now")
			go func() {
				if _, err := sched.RunNow(); err != nil {
					log.Error().Err(err).Msg("startup run")
				}
			}()
		}

		log.Info().Str("cron", cfg.Schedule.DailyCron).Msg("InsiderSignal is running, press Ctrl+C to stop")
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutdown signal received, stopping")
		cancel()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("InsiderSignal %s (commit %s)\n", version, commit)
	},
}
