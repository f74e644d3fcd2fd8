package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InsiderSignal/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.DataSource.Kind)
	assert.Equal(t, 20, cfg.Indicators.SMAPeriod)
	assert.Equal(t, 5, cfg.Patterns.MinTrades)
	assert.Equal(t, 15, cfg.Tagger.Timing.LookbackDays)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  trades_csv: in/trades.csv
data_source:
  kind: mock
redis:
  addr: localhost:6379
  ttl: 2h
exclusions:
  ipo_too_recent: [NEWCO]
  min_market_cap: 5.0e7
noise:
  max_split_ratio: 1.7
tagger:
  timing:
    knife:
      nominal: -12
patterns:
  min_trades: 8
scoring:
  require_size_tag: true
  weights:
    "👑 CEO": 5
  combos:
    - tags: ["🔁 CLUSTER BUY", "🧠 SMART INSIDER"]
      bonus: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "in/trades.csv", cfg.Data.TradesCSV)
	assert.Equal(t, "data/output", cfg.Data.OutputDir, "untouched default")
	assert.Equal(t, 2*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, []string{"NEWCO"}, cfg.Exclusions.IPOTooRecent)
	assert.Equal(t, 1.7, cfg.Noise.MaxSplitRatio)
	assert.Equal(t, -12.0, cfg.Tagger.Timing.Knife.Nominal)
	assert.Equal(t, 0.15, cfg.Tagger.Timing.Knife.Slack, "sibling keeps default")
	assert.Equal(t, 8, cfg.Patterns.MinTrades)
	assert.Equal(t, 0.7, cfg.Patterns.MinWinRate)

	opts, err := cfg.PipelineOptions()
	require.NoError(t, err)
	assert.True(t, opts.Scoring.RequireSizeTag)
	assert.Equal(t, 5, opts.Scoring.Weights[model.TagCEO])
	assert.Equal(t, 3, opts.Scoring.Weights[model.TagCFO])
	require.Len(t, opts.Scoring.Combos, 1)
	assert.Equal(t, []model.TagCode{model.TagClusterBuy, model.TagSmartInsider}, opts.Scoring.Combos[0].Tags)
	assert.Len(t, opts.Scoring.Buckets, 5)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CRON_DAILY", "0 30 6 * * *")
	t.Setenv("RUN_ON_START", "true")

	cfg, err := Load(writeConfig(t, "database:\n  sqlite_path: from-file.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0 30 6 * * *", cfg.Schedule.DailyCron)
	assert.True(t, cfg.Schedule.RunOnStart)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown source", func(c *Config) { c.DataSource.Kind = "ftp" }, "data_source.kind"},
		{"rest without url", func(c *Config) { c.DataSource.Kind = "rest" }, "base_url"},
		{"win rate range", func(c *Config) { c.Patterns.MinWinRate = 1.5 }, "min_win_rate"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "t" }, "telegram"},
		{"bad weight label", func(c *Config) { c.Scoring.Weights = map[string]int{"CEO": 1} }, "scoring.weights"},
		{"bad combo label", func(c *Config) {
			c.Scoring.Combos = []ComboConfig{{Tags: []string{"nope"}, Bonus: 1}}
		}, "scoring.combos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "data: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}
