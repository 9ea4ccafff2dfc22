package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port           string
	AppName        string
	AppEnv         string
	MaxUploadBytes int64
	RateLimit      int

	// Auth
	AuthEnabled       bool
	SecretKey         string
	AccessTokenExpiry time.Duration
	DefaultAdminEmail string

	// Database
	SQLiteDBPath string

	// Summary cache
	SummaryCacheTTL  time.Duration
	SummaryCacheSize int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Calendar mirror
	GoogleCalendarID         string
	GoogleCalendarJSONBase64 string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads settings from the environment, then from the optional file named
// by HOMEPORTAL_CONFIG. Environment values win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8000")
	v.SetDefault("app_name", "HomePortal")
	v.SetDefault("app_env", "development")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("app_auth_enabled", false)
	v.SetDefault("secret_key", "")
	v.SetDefault("access_token_expire_minutes", 60)
	v.SetDefault("default_admin_email", "")
	v.SetDefault("sqlite_db_path", "./data/homeportal.db")
	v.SetDefault("summary_cache_ttl", "5m")
	v.SetDefault("summary_cache_size", 128)
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "homeportal")
	v.SetDefault("amqp_queue", "homeportal_events")
	v.SetDefault("google_calendar_id", "")
	v.SetDefault("google_calendar_json_base64", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.AutomaticEnv()

	if path := os.Getenv("HOMEPORTAL_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return &Config{
		Port:           v.GetString("port"),
		AppName:        v.GetString("app_name"),
		AppEnv:         v.GetString("app_env"),
		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		RateLimit:      v.GetInt("rate_limit_per_minute"),

		AuthEnabled:       v.GetBool("app_auth_enabled"),
		SecretKey:         v.GetString("secret_key"),
		AccessTokenExpiry: time.Duration(v.GetInt("access_token_expire_minutes")) * time.Minute,
		DefaultAdminEmail: v.GetString("default_admin_email"),

		SQLiteDBPath: v.GetString("sqlite_db_path"),

		SummaryCacheTTL:  v.GetDuration("summary_cache_ttl"),
		SummaryCacheSize: v.GetInt("summary_cache_size"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),
		AMQPQueue:    v.GetString("amqp_queue"),

		GoogleCalendarID:         v.GetString("google_calendar_id"),
		GoogleCalendarJSONBase64: v.GetString("google_calendar_json_base64"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}, nil
}

// MessagingEnabled reports whether an AMQP broker is configured.
func (c *Config) MessagingEnabled() bool {
	return c.AMQPURL != ""
}

// CalendarMirrorEnabled reports whether local events are copied to Google Calendar.
func (c *Config) CalendarMirrorEnabled() bool {
	return c.GoogleCalendarID != "" && c.GoogleCalendarJSONBase64 != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AuthEnabled {
		if c.SecretKey == "" {
			errors = append(errors, "SECRET_KEY is required when APP_AUTH_ENABLED is true")
		} else if len(c.SecretKey) < 16 {
			errors = append(errors, "SECRET_KEY must be at least 16 characters")
		}
	}
	if c.AccessTokenExpiry <= 0 {
		errors = append(errors, fmt.Sprintf("invalid access token expiry %v: must be positive", c.AccessTokenExpiry))
	}

	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}
	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}
	if c.SummaryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at least 1", c.SummaryCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if (c.GoogleCalendarID == "") != (c.GoogleCalendarJSONBase64 == "") {
		errors = append(errors, "GOOGLE_CALENDAR_ID and GOOGLE_CALENDAR_JSON_BASE64 must be set together")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
