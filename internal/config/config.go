package config

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	FREDAPIKey  string
	FREDBaseURL string

	DatabaseURL string
	RedisURL    string

	CurvePollSecs     int
	CurveCacheTTLSecs int

	HTTPPort int
	APIKey   string

	TelegramBotToken string

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string
	ScenarioStepBps        int

	LogLevel       string
	LogFormat      string
	TracingEnabled bool
	OTLPEndpoint   string
}

// PollInterval is how often the curve poller refreshes the Treasury curve.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.CurvePollSecs) * time.Second
}

// CacheTTL is how long cached curves and analyses stay in Redis.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CurveCacheTTLSecs) * time.Second
}

// ScenarioStep is the TUI bump size in percentage points.
func (c *Config) ScenarioStep() float64 {
	return float64(c.ScenarioStepBps) / 100
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("FRED_BASE_URL", "https://api.stlouisfed.org")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("CURVE_POLL_SECS", 3600)
	v.SetDefault("CURVE_CACHE_TTL_SECS", 900)
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("SSH_PORT", 23234)
	v.SetDefault("SSH_HOST_KEY_PATH", ".ssh/curve_desk_ed25519")
	v.SetDefault("SCENARIO_STEP_BPS", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("TRACING_ENABLED", true)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
}

// Load reads configuration from the environment. Invalid numeric values fall
// back to their defaults.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		FREDAPIKey:       strings.TrimSpace(v.GetString("FRED_API_KEY")),
		FREDBaseURL:      strings.TrimSpace(v.GetString("FRED_BASE_URL")),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		RedisURL:         strings.TrimSpace(v.GetString("REDIS_URL")),
		APIKey:           v.GetString("API_KEY"),
		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		SSHHostKeyPath:   strings.TrimSpace(v.GetString("SSH_HOST_KEY_PATH")),
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
		TracingEnabled:   v.GetBool("TRACING_ENABLED"),
		OTLPEndpoint:     strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.CurvePollSecs = positiveInt(v, "CURVE_POLL_SECS", 3600)
	cfg.CurveCacheTTLSecs = positiveInt(v, "CURVE_CACHE_TTL_SECS", 900)
	cfg.ScenarioStepBps = positiveInt(v, "SCENARIO_STEP_BPS", 5)
	cfg.HTTPPort = positiveInt(v, "HTTP_PORT", 8080)
	cfg.SSHPort = positiveInt(v, "SSH_PORT", 23234)

	for _, fp := range strings.Split(v.GetString("SSH_ALLOWED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAllowedFingerprints = append(cfg.SSHAllowedFingerprints, fp)
		}
	}

	if cfg.FREDAPIKey == "" {
		log.Println("Warning: FRED_API_KEY not set, live curve retrieval will fail")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL empty, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	return cfg
}

func positiveInt(v *viper.Viper, key string, def int) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	n := v.GetInt(key)
	if n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}
