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
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Tavily       TavilyConfig       `yaml:"tavily" mapstructure:"tavily"`
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage" mapstructure:"alphavantage"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI       OpenAIConfig       `yaml:"openai" mapstructure:"openai"`
	Research     ResearchConfig     `yaml:"research" mapstructure:"research"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AuthSecret     string   `yaml:"auth_secret" mapstructure:"auth_secret"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AlphaVantageConfig holds Alpha Vantage API settings.
type AlphaVantageConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// AnthropicConfig holds settings for the primary analysis model.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OpenAIConfig holds settings for the fallback analysis model.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ResearchConfig tunes the research pipeline.
type ResearchConfig struct {
	SearchMaxResults     int `yaml:"search_max_results" mapstructure:"search_max_results"`
	CompetitorMaxResults int `yaml:"competitor_max_results" mapstructure:"competitor_max_results"`
	StageTimeoutSecs     int `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
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
	v.SetEnvPrefix("RESEARCHHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("alphavantage.base_url", "https://www.alphavantage.co")
	v.SetDefault("alphavantage.requests_per_minute", 5)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4000)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("research.search_max_results", 10)
	v.SetDefault("research.competitor_max_results", 5)
	v.SetDefault("research.stage_timeout_secs", 120)

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
