package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultSequence pre-fills the predict form.
const DefaultSequence = "PIAQIHILEGRSDEQKETLIREVSEAISRSLDAPLTSVRVIITEMAKGHFGIGGELASK"

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	ESMFold   ESMFoldConfig   `yaml:"esmfold" mapstructure:"esmfold"`
	AlphaFold AlphaFoldConfig `yaml:"alphafold" mapstructure:"alphafold"`
	Predict   PredictConfig   `yaml:"predict" mapstructure:"predict"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Viewer    ViewerConfig    `yaml:"viewer" mapstructure:"viewer"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ESMFoldConfig configures the structure prediction service.
type ESMFoldConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Timeout returns the per-request timeout.
func (c ESMFoldConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// AlphaFoldConfig configures the AlphaFold DB download.
type AlphaFoldConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	ModelVersion int     `yaml:"model_version" mapstructure:"model_version"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxAttempts  int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Timeout returns the per-request timeout.
func (c AlphaFoldConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PredictConfig configures the predict flow.
type PredictConfig struct {
	MaxSequenceLength int    `yaml:"max_sequence_length" mapstructure:"max_sequence_length"`
	CacheSize         int    `yaml:"cache_size" mapstructure:"cache_size"`
	DefaultSequence   string `yaml:"default_sequence" mapstructure:"default_sequence"`
}

// FetchConfig configures the AlphaFold DB flow.
type FetchConfig struct {
	DefaultAccession string `yaml:"default_accession" mapstructure:"default_accession"`
}

// ViewerConfig configures the structure viewer.
type ViewerConfig struct {
	Height string `yaml:"height" mapstructure:"height"`
}

// SessionConfig configures the in-memory session store.
type SessionConfig struct {
	MaxSessions int    `yaml:"max_sessions" mapstructure:"max_sessions"`
	TTLMinutes  int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	CookieName  string `yaml:"cookie_name" mapstructure:"cookie_name"`
}

// TTL returns how long an idle session is kept.
func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("esmfold.base_url", "https://api.esmatlas.com")
	v.SetDefault("esmfold.timeout_secs", 60)
	v.SetDefault("esmfold.rate_per_sec", 1)
	v.SetDefault("esmfold.max_attempts", 1)
	v.SetDefault("alphafold.base_url", "https://alphafold.ebi.ac.uk")
	v.SetDefault("alphafold.model_version", 4)
	v.SetDefault("alphafold.timeout_secs", 30)
	v.SetDefault("alphafold.rate_per_sec", 5)
	v.SetDefault("alphafold.max_attempts", 2)
	v.SetDefault("predict.max_sequence_length", 400)
	v.SetDefault("predict.cache_size", 64)
	v.SetDefault("predict.default_sequence", DefaultSequence)
	v.SetDefault("fetch.default_accession", "Q8W3K0")
	v.SetDefault("viewer.height", "600px")
	v.SetDefault("session.max_sessions", 1024)
	v.SetDefault("session.ttl_minutes", 60)
	v.SetDefault("session.cookie_name", "proviewer_session")

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

// Validate checks the settings a command mode depends on. Modes are "serve",
// "predict", "fetch" and "score".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
		if c.Session.MaxSessions <= 0 {
			errs = append(errs, "session.max_sessions must be > 0")
		}
		if c.Session.TTLMinutes <= 0 {
			errs = append(errs, "session.ttl_minutes must be > 0")
		}
		if c.Session.CookieName == "" {
			errs = append(errs, "session.cookie_name is required")
		}
		errs = append(errs, c.validatePredict()...)
		errs = append(errs, c.validateFetch()...)
	case "predict":
		errs = append(errs, c.validatePredict()...)
	case "fetch":
		errs = append(errs, c.validateFetch()...)
	case "score":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validatePredict() []string {
	var errs []string
	if c.ESMFold.BaseURL == "" {
		errs = append(errs, "esmfold.base_url is required")
	}
	if c.ESMFold.TimeoutSecs <= 0 {
		errs = append(errs, "esmfold.timeout_secs must be > 0")
	}
	if c.ESMFold.MaxAttempts < 1 || c.ESMFold.MaxAttempts > 5 {
		errs = append(errs, fmt.Sprintf("esmfold.max_attempts must be between 1 and 5, got %d", c.ESMFold.MaxAttempts))
	}
	if c.Predict.MaxSequenceLength <= 0 {
		errs = append(errs, "predict.max_sequence_length must be > 0")
	}
	return errs
}

func (c *Config) validateFetch() []string {
	var errs []string
	if c.AlphaFold.BaseURL == "" {
		errs = append(errs, "alphafold.base_url is required")
	}
	if c.AlphaFold.ModelVersion <= 0 {
		errs = append(errs, "alphafold.model_version must be > 0")
	}
	if c.AlphaFold.TimeoutSecs <= 0 {
		errs = append(errs, "alphafold.timeout_secs must be > 0")
	}
	if c.AlphaFold.MaxAttempts < 1 || c.AlphaFold.MaxAttempts > 5 {
		errs = append(errs, fmt.Sprintf("alphafold.max_attempts must be between 1 and 5, got %d", c.AlphaFold.MaxAttempts))
	}
	return errs
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
