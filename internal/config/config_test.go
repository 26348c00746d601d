package config

import (
	"errors"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/BlackMission/workosauth/internal/domain"
)

// setRequiredEnv sets the minimum required env vars for a valid config.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STATE_SIGNING_KEY", "test-signing-key-1234567890123456")
	t.Setenv("SESSION_ENCRYPTION_KEY", "01234567890123456789012345678901")
}

func TestLoadFromEnv_FullConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("BASE_URL", "https://sso.example.com/")
	t.Setenv("AUTH_PATH_PREFIX", "/login/")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("WORKOS_CLIENT_ID", "client_01")
	t.Setenv("WORKOS_CLIENT_SECRET", "sk_test")
	t.Setenv("WORKOS_BASE_URL", "https://workos.internal")
	t.Setenv("WORKOS_AUTHORIZE_PATH", "/custom/authorize")
	t.Setenv("WORKOS_TOKEN_PATH", "/custom/token")
	t.Setenv("WORKOS_CALLBACK_URL", "https://sso.example.com/login/workos/callback")
	t.Setenv("WORKOS_AUTHORIZE_OPTIONS", "connection, organization,domain_hint")
	t.Setenv("WORKOS_INFO_FIELDS", "email,first_name,last_name")
	t.Setenv("SESSION_COOKIE_NAME", "sso")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.BaseURL != "https://sso.example.com" {
		t.Errorf("expected trimmed base_url, got %s", cfg.Server.BaseURL)
	}
	if !cfg.Server.TrustProxyHeaders {
		t.Error("expected proxy headers to be trusted")
	}
	if cfg.RequestPath() != "/login/workos" {
		t.Errorf("unexpected request path: %s", cfg.RequestPath())
	}
	if cfg.CallbackPath() != "/login/workos/callback" {
		t.Errorf("unexpected callback path: %s", cfg.CallbackPath())
	}
	if cfg.FailurePath() != "/login/failure" {
		t.Errorf("unexpected failure path: %s", cfg.FailurePath())
	}

	w := cfg.WorkOS
	if w.ClientID != "client_01" || w.ClientSecret != "sk_test" {
		t.Errorf("unexpected credentials: %q / %q", w.ClientID, w.ClientSecret)
	}
	if w.BaseURL != "https://workos.internal" || w.AuthorizePath != "/custom/authorize" || w.TokenPath != "/custom/token" {
		t.Errorf("unexpected endpoints: %s %s %s", w.BaseURL, w.AuthorizePath, w.TokenPath)
	}
	if w.CallbackURL != "https://sso.example.com/login/workos/callback" {
		t.Errorf("unexpected callback url: %s", w.CallbackURL)
	}
	if want := []string{"connection", "organization", "domain_hint"}; !reflect.DeepEqual(w.AuthorizeOptions, want) {
		t.Errorf("expected authorize options %v, got %v", want, w.AuthorizeOptions)
	}
	if w.InfoFields.All() {
		t.Error("expected explicit info fields")
	}
	if want := []string{"email", "first_name", "last_name"}; !reflect.DeepEqual(w.InfoFields.Names(), want) {
		t.Errorf("expected info fields %v, got %v", want, w.InfoFields.Names())
	}

	if cfg.Session.CookieName != "sso" || !cfg.Session.CookieSecure || cfg.Session.TTL != 30*time.Minute {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("unexpected redis url: %s", cfg.Redis.URL)
	}
	if cfg.Log.Level != slog.LevelDebug || cfg.Log.Format != "text" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadFromEnv_DefaultValues(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.TrustProxyHeaders {
		t.Error("expected proxy headers to be untrusted by default")
	}
	if cfg.RequestPath() != "/auth/workos" || cfg.CallbackPath() != "/auth/workos/callback" || cfg.FailurePath() != "/auth/failure" {
		t.Errorf("unexpected default paths: %s %s %s", cfg.RequestPath(), cfg.CallbackPath(), cfg.FailurePath())
	}
	if cfg.WorkOS.BaseURL != "https://api.workos.com" {
		t.Errorf("unexpected default broker: %s", cfg.WorkOS.BaseURL)
	}
	if cfg.WorkOS.AuthorizePath != "/sso/authorize" || cfg.WorkOS.TokenPath != "/sso/token" {
		t.Errorf("unexpected default endpoints: %s %s", cfg.WorkOS.AuthorizePath, cfg.WorkOS.TokenPath)
	}
	if want := []string{"organization", "connection", "provider", "login_hint"}; !reflect.DeepEqual(cfg.WorkOS.AuthorizeOptions, want) {
		t.Errorf("expected default authorize options %v, got %v", want, cfg.WorkOS.AuthorizeOptions)
	}
	if !cfg.WorkOS.InfoFields.All() {
		t.Error("expected info fields to default to all")
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("expected default session ttl 1h, got %v", cfg.Session.TTL)
	}
	if cfg.Log.Level != slog.LevelInfo || cfg.Log.Format != "json" {
		t.Errorf("unexpected default log config: %+v", cfg.Log)
	}
}

func TestLoadFromEnv_MissingBrokerCredentialsIsNotAnError(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkOS.ClientID != "" || cfg.WorkOS.ClientSecret != "" {
		t.Errorf("expected empty credentials, got %q / %q", cfg.WorkOS.ClientID, cfg.WorkOS.ClientSecret)
	}
}

func TestLoadFromEnv_MissingSigningKey(t *testing.T) {
	t.Setenv("SESSION_ENCRYPTION_KEY", "01234567890123456789012345678901")

	_, err := LoadFromEnv()
	if !errors.Is(err, domain.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

func TestLoadFromEnv_MissingEncryptionKey(t *testing.T) {
	t.Setenv("STATE_SIGNING_KEY", "test-signing-key-1234567890123456")

	_, err := LoadFromEnv()
	if !errors.Is(err, domain.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "PORT", "abc"},
		{"port out of range", "PORT", "70000"},
		{"short encryption key", "SESSION_ENCRYPTION_KEY", "too-short"},
		{"bad session ttl", "SESSION_TTL", "forever"},
		{"negative session ttl", "SESSION_TTL", "-1m"},
		{"empty info field list", "WORKOS_INFO_FIELDS", " , "},
		{"empty authorize options", "WORKOS_AUTHORIZE_OPTIONS", " , "},
		{"bad log level", "LOG_LEVEL", "chatty"},
		{"bad log format", "LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSplitComma(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
		{",", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := splitComma(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("index %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}
