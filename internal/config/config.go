package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env     string `mapstructure:"ENV"`
	Addr    string `mapstructure:"ADDR"`
	GinMode string `mapstructure:"GIN_MODE"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	TokenSigningKey string        `mapstructure:"TOKEN_SIGNING_KEY"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL"`

	StorageRoot             string   `mapstructure:"STORAGE_ROOT"`
	UploadURLPrefix         string   `mapstructure:"UPLOAD_URL_PREFIX"`
	PublicBaseURL           string   `mapstructure:"PUBLIC_BASE_URL"`
	AllowedUploadExtensions []string `mapstructure:"ALLOWED_UPLOAD_EXTENSIONS"`
	MaxUploadBytes          int64    `mapstructure:"MAX_UPLOAD_BYTES"`
	MaxImageDimension       int      `mapstructure:"MAX_IMAGE_DIMENSION"`

	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	OpenAIAPIKey    string        `mapstructure:"OPENAI_API_KEY"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"ENV":                       "local",
	"ADDR":                      ":8080",
	"GIN_MODE":                  "debug",
	"DB_DRIVER":                 "sqlite",
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "3306",
	"DB_USER":                   "lostfound",
	"DB_PASSWORD":               "lostfound",
	"DB_NAME":                   "lost_and_found",
	"DB_PATH":                   "lostfound.db",
	"REDIS_HOST":                "",
	"REDIS_PORT":                "6379",
	"SESSION_SECRET":            "default-secret-key-change-me",
	"TOKEN_SIGNING_KEY":         "",
	"TOKEN_TTL":                 "24h",
	"STORAGE_ROOT":              "uploads",
	"UPLOAD_URL_PREFIX":         "/static/uploads",
	"PUBLIC_BASE_URL":           "",
	"ALLOWED_UPLOAD_EXTENSIONS": "png,jpg,jpeg,gif",
	"MAX_UPLOAD_BYTES":          5 << 20,
	"MAX_IMAGE_DIMENSION":       0,
	"CORS_ORIGINS":              "",
	"OPENAI_API_KEY":            "",
	"SHUTDOWN_TIMEOUT":          "10s",
}

// Load reads configuration from defaults, an optional config.yaml in ./ or
// ./configs, and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.AllowedUploadExtensions = splitList(cfg.AllowedUploadExtensions)
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxImageDimension < 0 {
		return fmt.Errorf("MAX_IMAGE_DIMENSION must not be negative, got %d", c.MaxImageDimension)
	}
	return nil
}

// IsProduction reports whether the service runs in a deployed environment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// splitList flattens comma-separated entries. Values from the environment
// arrive as a single comma-joined string, values from YAML as a list.
func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
