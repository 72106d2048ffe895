package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBHost     string `toml:"db_host"`
	DBPort     int    `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	DBSSLMode  string `toml:"db_sslmode"`

	OpenAIKey       string   `toml:"openai_api_key"`
	OpenAIModel     string   `toml:"openai_model"`
	OpenAIBaseURL   string   `toml:"openai_base_url"`
	AITimeout       Duration `toml:"ai_timeout"`
	AIMaxTokens     int      `toml:"ai_max_tokens"`
	AITemperature   float64  `toml:"ai_temperature"`
	PendingLifetime Duration `toml:"pending_lifetime"`

	JWTSecret     string   `toml:"jwt_secret"`
	HTTPAddr      string   `toml:"http_addr"`
	CORSOrigins   []string `toml:"cors_origins"`
	PurgeInterval Duration `toml:"purge_interval"`
}

// Sampling temperature stays low so decomposition output is stable.
const (
	MinTemperature = 0.3
	MaxTemperature = 0.7
)

// Duration lets TOML files spell durations as "30s" or "1h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		DBPort:    5432,
		DBSSLMode: "disable",

		OpenAIModel:     "gpt-4o-mini",
		OpenAIBaseURL:   "https://api.openai.com/v1",
		AITimeout:       Duration{30 * time.Second},
		AIMaxTokens:     1000,
		AITemperature:   0.3,
		PendingLifetime: Duration{24 * time.Hour},

		HTTPAddr:      ":8080",
		CORSOrigins:   []string{"*"},
		PurgeInterval: Duration{time.Hour},
	}
}

// Load builds the config from defaults, then the optional TOML file at path,
// then environment variables. Later layers win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.AITemperature < MinTemperature || cfg.AITemperature > MaxTemperature {
		return nil, fmt.Errorf("ai_temperature %.2f outside %.1f..%.1f", cfg.AITemperature, MinTemperature, MaxTemperature)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")
	setString(&c.DBSSLMode, "DB_SSLMODE")

	// DB_PORT keeps its fallback when unparsable
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.DBPort = port
		}
	}

	setString(&c.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIModel, "OPENAI_MODEL")
	setString(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.HTTPAddr, "HTTP_ADDR")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}

	if err := setDuration(&c.AITimeout, "AI_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.PurgeInterval, "PURGE_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&c.PendingLifetime, "PENDING_LIFETIME"); err != nil {
		return err
	}

	if v := os.Getenv("AI_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("AI_MAX_TOKENS: invalid value %q", v)
		}
		c.AIMaxTokens = n
	}
	if v := os.Getenv("AI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AI_TEMPERATURE: invalid value %q", v)
		}
		c.AITemperature = f
	}
	return nil
}

// Validate reports settings the API server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	dst.Duration = d
	return nil
}
