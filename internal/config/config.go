package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"scoresim/internal/domain"
	"scoresim/internal/embedding"
	"scoresim/internal/embedding/keyword"
	"scoresim/internal/embedding/openai"
	"scoresim/internal/scoring"
	"scoresim/internal/simulation"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type    string                `yaml:"type"`
	Dim     int                   `yaml:"dim,omitempty"`
	Clamp   bool                  `yaml:"clamp"`
	Buckets []keyword.Bucket      `yaml:"buckets,omitempty"`
	OpenAI  *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// Spec converts the section into an embedding.Spec.
func (c EmbedderConfig) Spec() embedding.Spec {
	spec := embedding.Spec{Type: c.Type, Dim: c.Dim, Clamp: c.Clamp, Buckets: c.Buckets}
	if c.OpenAI != nil {
		spec.OpenAI = openai.Config{
			BaseURL:   c.OpenAI.BaseURL,
			APIKeyEnv: c.OpenAI.APIKeyEnv,
			Model:     c.OpenAI.Model,
			Timeout:   time.Duration(c.OpenAI.TimeoutSecs) * time.Second,
		}
	}
	return spec
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type          string `yaml:"type"`
	LinesPerChunk int    `yaml:"lines_per_chunk"`
	OverlapLines  int    `yaml:"overlap_lines"`
	MaxLines      int    `yaml:"max_lines"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LexicalConfig selects the strategy behind the bm25 component. Seed, Min
// and Span only apply to the random strategy.
type LexicalConfig struct {
	Type string  `yaml:"type"`
	Seed int64   `yaml:"seed"`
	Min  float64 `yaml:"min"`
	Span float64 `yaml:"span"`
}

// ScoringConfig picks the weights. Explicit weights win over the preset.
type ScoringConfig struct {
	Preset        string                 `yaml:"preset"`
	Weights       *domain.ScoringWeights `yaml:"weights,omitempty"`
	StageOneLimit int                    `yaml:"stage_one_limit"`
}

// ResolveWeights returns the explicit weights, or the preset's.
func (c ScoringConfig) ResolveWeights() (domain.ScoringWeights, error) {
	if c.Weights != nil {
		return *c.Weights, nil
	}
	name := c.Preset
	if name == "" {
		name = "default"
	}
	return scoring.Preset(name)
}

// TimingConfig paces the simulation in milliseconds.
type TimingConfig struct {
	FilterMs    int `yaml:"filter_ms"`
	CalculateMs int `yaml:"calculate_ms"`
	SettleMs    int `yaml:"settle_ms"`
	RankMs      int `yaml:"rank_ms"`
	HighlightMs int `yaml:"highlight_ms"`
}

// Delays converts the section into engine delays.
func (c TimingConfig) Delays() simulation.Delays {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return simulation.Delays{
		Filter:    ms(c.FilterMs),
		Calculate: ms(c.CalculateMs),
		Settle:    ms(c.SettleMs),
		Rank:      ms(c.RankMs),
		Highlight: ms(c.HighlightMs),
	}
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Logger builds a zap logger for the section. Output goes to stderr.
func (c LogConfig) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.Level, err)
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// MetricsConfig configures the prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Lexical    LexicalConfig    `yaml:"lexical"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Timing     TimingConfig     `yaml:"timing"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./scoresim.yaml first, then ~/.config/scoresim/config.yaml.
// If neither exists, it writes defaults to ~/.config/scoresim/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "scoresim.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "scoresim", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	d := simulation.DefaultDelays()
	cfg := &AppConfig{
		Embedder:   EmbedderConfig{Type: "keyword", Dim: keyword.DefaultDimension},
		Chunker:    ChunkerConfig{Type: "lines", LinesPerChunk: 35, OverlapLines: 5, MaxLines: 3},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 1},
		Lexical:    LexicalConfig{Type: "overlap", Seed: 1, Min: 0.1, Span: 0.1},
		Scoring:    ScoringConfig{Preset: "default", StageOneLimit: simulation.DefaultStageOneLimit},
		Timing: TimingConfig{
			FilterMs:    int(d.Filter.Milliseconds()),
			CalculateMs: int(d.Calculate.Milliseconds()),
			SettleMs:    int(d.Settle.Milliseconds()),
			RankMs:      int(d.Rank.Milliseconds()),
			HighlightMs: int(d.Highlight.Milliseconds()),
		},
		Log: LogConfig{Level: "info"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Type == "keyword" && cfg.Embedder.Dim == 0 {
		cfg.Embedder.Dim = def.Embedder.Dim
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = def.Chunker.Type
	}
	if cfg.Chunker.LinesPerChunk == 0 {
		cfg.Chunker.LinesPerChunk = def.Chunker.LinesPerChunk
	}
	if cfg.Chunker.MaxLines == 0 {
		cfg.Chunker.MaxLines = def.Chunker.MaxLines
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = def.Summarizer.Type
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = def.Summarizer.MaxSentences
	}
	if cfg.Lexical.Type == "" {
		cfg.Lexical.Type = def.Lexical.Type
	}
	if cfg.Lexical.Type == "random" && cfg.Lexical.Span == 0 {
		cfg.Lexical.Min, cfg.Lexical.Span = def.Lexical.Min, def.Lexical.Span
	}
	if cfg.Scoring.Preset == "" && cfg.Scoring.Weights == nil {
		cfg.Scoring.Preset = def.Scoring.Preset
	}
	if cfg.Scoring.StageOneLimit == 0 {
		cfg.Scoring.StageOneLimit = def.Scoring.StageOneLimit
	}
	if cfg.Timing == (TimingConfig{}) {
		cfg.Timing = def.Timing
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}
