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
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Synergy   SynergyConfig   `yaml:"synergy" mapstructure:"synergy"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ScoringConfig configures deal scoring.
type ScoringConfig struct {
	// Profile selects a built-in weight preset ("balanced" or "screening").
	Profile string `yaml:"profile" mapstructure:"profile"`
	// WeightsFile overrides the preset with weights loaded from a YAML file.
	WeightsFile string `yaml:"weights_file" mapstructure:"weights_file"`
}

// SynergyConfig configures synergy valuation and tracking.
type SynergyConfig struct {
	DiscountRate        float64 `yaml:"discount_rate" mapstructure:"discount_rate"`
	IntegrationCostRate float64 `yaml:"integration_cost_rate" mapstructure:"integration_cost_rate"`
	MarketGrowthRate    float64 `yaml:"market_growth_rate" mapstructure:"market_growth_rate"`
}

// PipelineConfig configures velocity analysis and forecasting.
type PipelineConfig struct {
	BottleneckRatio float64 `yaml:"bottleneck_ratio" mapstructure:"bottleneck_ratio"`
	OptimisticClose bool    `yaml:"optimistic_close" mapstructure:"optimistic_close"`
	CaseSpread      float64 `yaml:"case_spread" mapstructure:"case_spread"`
}

// AnthropicConfig holds Anthropic API settings for insight enrichment.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// BatchConfig configures batch scoring.
type BatchConfig struct {
	MaxConcurrentDeals int `yaml:"max_concurrent_deals" mapstructure:"max_concurrent_deals"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port            int `yaml:"port" mapstructure:"port"`
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
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
	v.SetEnvPrefix("DEALINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key gets one, even when the zero value is the
	// default: AutomaticEnv only resolves keys viper already knows about,
	// so a key without a default is invisible to env overrides.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "dealintel.db")
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("scoring.profile", "balanced")
	v.SetDefault("scoring.weights_file", "")
	v.SetDefault("synergy.discount_rate", 0.10)
	v.SetDefault("synergy.integration_cost_rate", 0.15)
	v.SetDefault("synergy.market_growth_rate", 0.03)
	v.SetDefault("pipeline.bottleneck_ratio", 1.5)
	v.SetDefault("pipeline.optimistic_close", true)
	v.SetDefault("pipeline.case_spread", 0.30)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("anthropic.requests_per_minute", 50)
	v.SetDefault("batch.max_concurrent_deals", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_ttl_minutes", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the configuration is usable for the given mode.
// Modes: "score", "synergy", "pipeline", "insight", "serve".
func (c *Config) Validate(mode string) error {
	var missing []string

	check := func(ok bool, msg string) {
		if !ok {
			missing = append(missing, msg)
		}
	}

	// Bounds shared by every mode.
	check(c.Batch.MaxConcurrentDeals >= 1 && c.Batch.MaxConcurrentDeals <= 50,
		"batch.max_concurrent_deals must be between 1 and 50")
	check(c.Pipeline.BottleneckRatio > 1.0,
		"pipeline.bottleneck_ratio must be > 1.0")
	check(c.Pipeline.CaseSpread >= 0 && c.Pipeline.CaseSpread < 1,
		"pipeline.case_spread must be in [0, 1)")
	check(c.Synergy.DiscountRate > 0 && c.Synergy.DiscountRate < 1,
		"synergy.discount_rate must be in (0, 1)")
	check(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres",
		"store.driver must be sqlite or postgres")
	check(c.Store.DatabaseURL != "", "store.database_url is required")

	switch mode {
	case "score", "synergy", "pipeline":
	case "insight":
		check(c.Anthropic.Key != "", "anthropic.key is required")
		check(c.Anthropic.RequestsPerMinute > 0,
			"anthropic.requests_per_minute must be > 0")
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Server.CacheTTLMinutes > 0, "server.cache_ttl_minutes must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: invalid for mode %s: %s", mode, strings.Join(missing, "; "))
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
