package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"InsiderSignal/internal/enricher"
	"InsiderSignal/internal/ingest"
	"InsiderSignal/internal/model"
	"InsiderSignal/internal/pattern"
	"InsiderSignal/internal/pipeline"
	"InsiderSignal/internal/pricestore"
	"InsiderSignal/internal/scoring"
	"InsiderSignal/internal/tagger"
)

// ComboConfig is a combo bonus keyed by serialized tag labels.
type ComboConfig struct {
	Tags  []string `yaml:"tags"`
	Bonus int      `yaml:"bonus"`
}

// ScoringConfig is the YAML form of scoring.Config. Weights are keyed by
// serialized tag label and override the default table entry by entry.
type ScoringConfig struct {
	Weights        map[string]int        `yaml:"weights"`
	Buckets        []scoring.BucketRange `yaml:"buckets"`
	Combos         []ComboConfig         `yaml:"combos"`
	RequireSizeTag bool                  `yaml:"require_size_tag"`
}

// Config holds all application configuration.
type Config struct {
	Data struct {
		TradesCSV string `yaml:"trades_csv"`
		OutputDir string `yaml:"output_dir"`
	} `yaml:"data"`
	DataSource struct {
		Kind        string `yaml:"kind"`
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		Refresh     bool   `yaml:"refresh"`
		Concurrency int    `yaml:"concurrency"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Indicators struct {
		SMAPeriod int `yaml:"sma_period"`
		RSIPeriod int `yaml:"rsi_period"`
	} `yaml:"indicators"`
	Exclusions ingest.Exclusions    `yaml:"exclusions"`
	Noise      enricher.NoiseFilter `yaml:"noise"`
	Tagger     tagger.Rules         `yaml:"tagger"`
	Patterns   pattern.Config       `yaml:"patterns"`
	Scoring    ScoringConfig        `yaml:"scoring"`
	Logging    struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	cfg := &Config{
		Tagger:   tagger.DefaultRules(),
		Patterns: pattern.DefaultConfig(),
	}
	cfg.Data.TradesCSV = "data/insider_trades.csv"
	cfg.Data.OutputDir = "data/output"
	cfg.DataSource.Kind = "yahoo"
	cfg.DataSource.Refresh = true
	cfg.DataSource.Concurrency = 4
	cfg.Database.SQLitePath = "data/insidersignal.db"
	cfg.Redis.TTL = 24 * time.Hour
	cfg.Schedule.DailyCron = "0 0 7 * * 1-5"
	cfg.Indicators.SMAPeriod = pricestore.DefaultSMAPeriod
	cfg.Indicators.RSIPeriod = pricestore.DefaultRSIPeriod
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	return cfg
}

// Load reads an optional .env file and the YAML config on top of the
// defaults, then applies environment variable overrides. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	str := map[string]*string{
		"TRADES_CSV":       &c.Data.TradesCSV,
		"OUTPUT_DIR":       &c.Data.OutputDir,
		"DATA_SOURCE":      &c.DataSource.Kind,
		"DATA_SOURCE_URL":  &c.DataSource.BaseURL,
		"DATA_SOURCE_KEY":  &c.DataSource.APIKey,
		"SQLITE_PATH":      &c.Database.SQLitePath,
		"REDIS_ADDR":       &c.Redis.Addr,
		"REDIS_PASSWORD":   &c.Redis.Password,
		"CRON_DAILY":       &c.Schedule.DailyCron,
		"TELEGRAM_TOKEN":   &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID": &c.Telegram.ChatID,
		"LOG_LEVEL":        &c.Logging.Level,
		"LOG_FORMAT":       &c.Logging.Format,
		"HTTPS_PROXY":      &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart = v == "true" || v == "1"
	}
	if v := os.Getenv("REFRESH_PRICES"); v != "" {
		c.DataSource.Refresh = v == "true" || v == "1"
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Data.TradesCSV == "" {
		return fmt.Errorf("data.trades_csv is required")
	}
	switch c.DataSource.Kind {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest source")
		}
	default:
		return fmt.Errorf("data_source.kind %q is not one of yahoo, rest, mock", c.DataSource.Kind)
	}
	if c.Patterns.WindowBusinessDays <= 0 {
		return fmt.Errorf("patterns.window_business_days must be positive")
	}
	if c.Patterns.MinWinRate < 0 || c.Patterns.MinWinRate > 1 {
		return fmt.Errorf("patterns.min_win_rate must be within [0, 1]")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := c.ScoringConfig(); err != nil {
		return err
	}
	return nil
}

// ScoringConfig resolves tag labels into a scoring configuration. Missing
// buckets or combos fall back to the defaults.
func (c *Config) ScoringConfig() (scoring.Config, error) {
	out := scoring.DefaultConfig()
	out.RequireSizeTag = c.Scoring.RequireSizeTag
	for label, w := range c.Scoring.Weights {
		tag, err := model.ParseTag(label)
		if err != nil {
			return scoring.Config{}, fmt.Errorf("scoring.weights: %w", err)
		}
		out.Weights[tag.Code] = w
	}
	if len(c.Scoring.Buckets) > 0 {
		out.Buckets = c.Scoring.Buckets
	}
	if len(c.Scoring.Combos) > 0 {
		out.Combos = out.Combos[:0]
		for _, cc := range c.Scoring.Combos {
			combo := scoring.Combo{Bonus: cc.Bonus}
			for _, label := range cc.Tags {
				tag, err := model.ParseTag(label)
				if err != nil {
					return scoring.Config{}, fmt.Errorf("scoring.combos: %w", err)
				}
				combo.Tags = append(combo.Tags, tag.Code)
			}
			out.Combos = append(out.Combos, combo)
		}
	}
	return out, nil
}

// PipelineOptions assembles the run options.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	sc, err := c.ScoringConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Exclusions:    c.Exclusions,
		Noise:         c.Noise,
		Rules:         c.Tagger,
		Patterns:      c.Patterns,
		Scoring:       sc,
		SMAPeriod:     c.Indicators.SMAPeriod,
		RSIPeriod:     c.Indicators.RSIPeriod,
		RefreshPrices: c.DataSource.Refresh,
		Concurrency:   c.DataSource.Concurrency,
	}, nil
}

// TelegramEnabled reports whether run digests should be sent.
func (c *Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.Telegram.BotToken) != ""
}
