package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// AnthropicConfig holds Anthropic API settings. Classification runs on the
// cheap model; extraction and mapping need the stronger one.
type AnthropicConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	ClassifierModel string  `yaml:"classifier_model" mapstructure:"classifier_model"`
	ExtractorModel  string  `yaml:"extractor_model" mapstructure:"extractor_model"`
	MapperModel     string  `yaml:"mapper_model" mapstructure:"mapper_model"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
}

// PipelineConfig configures extraction behavior.
type PipelineConfig struct {
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
	MinPageChars   int    `yaml:"min_page_chars" mapstructure:"min_page_chars"`
	MaxConcurrency int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	CacheTTLHours  int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FINEXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "finextract.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("ocr.provider", "native")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("anthropic.classifier_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.extractor_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.mapper_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.requests_per_sec", 2.0)
	v.SetDefault("anthropic.burst", 4)
	v.SetDefault("pipeline.output_dir", "outputs")
	v.SetDefault("pipeline.min_page_chars", 100)
	v.SetDefault("pipeline.max_concurrency", 10)
	v.SetDefault("pipeline.cache_ttl_hours", 24)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that required fields are set for the given mode.
// Modes: "pipeline" (full extraction runs), "compare" (offline accuracy
// comparison, no API key needed), "serve" (HTTP server).
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(cond bool, msg string) {
		if !cond {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "pipeline":
		check(c.Anthropic.Key != "", "anthropic.key is required")
		check(c.Store.DatabaseURL != "", "store.database_url is required")
		check(c.Pipeline.MaxConcurrency >= 1 && c.Pipeline.MaxConcurrency <= 50,
			"pipeline.max_concurrency must be between 1 and 50")
		check(c.Pipeline.MinPageChars >= 0, "pipeline.min_page_chars must be >= 0")
	case "compare":
		// Fully offline; nothing beyond structural defaults.
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
