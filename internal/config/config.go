package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/BlackMission/workosauth/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig
	Secrets SecretsConfig
	WorkOS  WorkOSConfig
	Session SessionConfig
	Redis   RedisConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int
	Host       string
	BaseURL    string
	PathPrefix string

	// TrustProxyHeaders honors X-Forwarded-Proto/Host when BASE_URL is unset.
	TrustProxyHeaders bool
}

// SecretsConfig holds cryptographic key references.
type SecretsConfig struct {
	StateSigningKey      string
	SessionEncryptionKey string
}

// WorkOSConfig holds the broker integration settings. Empty credentials are
// not a load error: the request phase reports them on every attempt.
type WorkOSConfig struct {
	ClientID         string
	ClientSecret     string
	BaseURL          string
	AuthorizePath    string
	TokenPath        string
	CallbackURL      string
	AuthorizeOptions []string
	InfoFields       domain.InfoFields
}

// SessionConfig holds session cookie settings.
type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
}

// RedisConfig selects the session backend. An empty URL keeps sessions in
// process memory.
type RedisConfig struct {
	URL string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  slog.Level
	Format string
}

// rawEnv holds the environment values before validation.
type rawEnv struct {
	Port       int    `env:"PORT"             envDefault:"8080"`
	Host       string `env:"HOST"             envDefault:"0.0.0.0"`
	BaseURL    string `env:"BASE_URL"`
	PathPrefix string `env:"AUTH_PATH_PREFIX" envDefault:"/auth"`

	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	StateSigningKey      string `env:"STATE_SIGNING_KEY"`
	SessionEncryptionKey string `env:"SESSION_ENCRYPTION_KEY"`

	WorkOSClientID         string `env:"WORKOS_CLIENT_ID"`
	WorkOSClientSecret     string `env:"WORKOS_CLIENT_SECRET"`
	WorkOSBaseURL          string `env:"WORKOS_BASE_URL"          envDefault:"https://api.workos.com"`
	WorkOSAuthorizePath    string `env:"WORKOS_AUTHORIZE_PATH"    envDefault:"/sso/authorize"`
	WorkOSTokenPath        string `env:"WORKOS_TOKEN_PATH"        envDefault:"/sso/token"`
	WorkOSCallbackURL      string `env:"WORKOS_CALLBACK_URL"`
	WorkOSAuthorizeOptions string `env:"WORKOS_AUTHORIZE_OPTIONS" envDefault:"organization,connection,provider,login_hint"`
	WorkOSInfoFields       string `env:"WORKOS_INFO_FIELDS"       envDefault:"all"`

	SessionCookieName   string        `env:"SESSION_COOKIE_NAME"   envDefault:"workos_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionTTL          time.Duration `env:"SESSION_TTL"           envDefault:"1h"`

	RedisURL string `env:"REDIS_URL"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadFromEnv reads configuration purely from environment variables.
func LoadFromEnv() (*Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	infoFields, err := domain.ParseInfoFields(raw.WorkOSInfoFields)
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw.LogLevel)); err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %v", domain.ErrInvalidConfig, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:       raw.Port,
			Host:       raw.Host,
			BaseURL:    strings.TrimRight(raw.BaseURL, "/"),
			PathPrefix: "/" + strings.Trim(raw.PathPrefix, "/"),

			TrustProxyHeaders: raw.TrustProxyHeaders,
		},
		Secrets: SecretsConfig{
			StateSigningKey:      raw.StateSigningKey,
			SessionEncryptionKey: raw.SessionEncryptionKey,
		},
		WorkOS: WorkOSConfig{
			ClientID:         raw.WorkOSClientID,
			ClientSecret:     raw.WorkOSClientSecret,
			BaseURL:          raw.WorkOSBaseURL,
			AuthorizePath:    raw.WorkOSAuthorizePath,
			TokenPath:        raw.WorkOSTokenPath,
			CallbackURL:      raw.WorkOSCallbackURL,
			AuthorizeOptions: splitComma(raw.WorkOSAuthorizeOptions),
			InfoFields:       infoFields,
		},
		Session: SessionConfig{
			CookieName:   raw.SessionCookieName,
			CookieSecure: raw.SessionCookieSecure,
			TTL:          raw.SessionTTL,
		},
		Redis: RedisConfig{URL: raw.RedisURL},
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(raw.LogFormat),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CallbackPath is the path of the broker callback under the prefix.
func (c *Config) CallbackPath() string {
	return c.RequestPath() + "/callback"
}

// RequestPath is the path that starts the flow.
func (c *Config) RequestPath() string {
	return strings.TrimRight(c.Server.PathPrefix, "/") + "/" + domain.ProviderName
}

// FailurePath is where failed attempts are redirected.
func (c *Config) FailurePath() string {
	return strings.TrimRight(c.Server.PathPrefix, "/") + "/failure"
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: PORT %d out of range", domain.ErrInvalidConfig, cfg.Server.Port)
	}
	if cfg.Secrets.StateSigningKey == "" {
		return fmt.Errorf("%w: STATE_SIGNING_KEY is required", domain.ErrMissingConfig)
	}
	if cfg.Secrets.SessionEncryptionKey == "" {
		return fmt.Errorf("%w: SESSION_ENCRYPTION_KEY is required", domain.ErrMissingConfig)
	}
	if len(cfg.Secrets.SessionEncryptionKey) != 32 {
		return fmt.Errorf("%w: SESSION_ENCRYPTION_KEY must be exactly 32 bytes, got %d",
			domain.ErrInvalidConfig, len(cfg.Secrets.SessionEncryptionKey))
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be positive", domain.ErrInvalidConfig)
	}
	if cfg.WorkOS.BaseURL == "" {
		return fmt.Errorf("%w: WORKOS_BASE_URL is required", domain.ErrMissingConfig)
	}
	if len(cfg.WorkOS.AuthorizeOptions) == 0 {
		return fmt.Errorf("%w: WORKOS_AUTHORIZE_OPTIONS names no parameter", domain.ErrInvalidConfig)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be json or text, got %q", domain.ErrInvalidConfig, cfg.Log.Format)
	}
	return nil
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
