// Package strategy implements the WorkOS SSO authentication flow: the
// authorize redirect, the broker callback, and the check that the returned
// profile belongs to the connection or organization that was requested.
package strategy

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/BlackMission/workosauth/internal/domain"
	"github.com/BlackMission/workosauth/internal/state"
)

const (
	DefaultBaseURL       = "https://api.workos.com"
	DefaultAuthorizePath = "/sso/authorize"
	DefaultTokenPath     = "/sso/token"
	DefaultCallbackPath  = "/auth/workos/callback"

	// TokenLifetime is the broker's documented access token lifetime. The
	// token response carries no expiry, so it is applied locally.
	TokenLifetime = 10 * time.Minute

	sessionKeyAuthorizeParams = "workos.authorize_params"
	sessionKeyState           = "workos.state"
)

// DefaultAuthorizeOptions lists the request params forwarded to the broker.
var DefaultAuthorizeOptions = []string{"organization", "connection", "provider", "login_hint"}

// Options configures a Strategy. It is read-only once the strategy is built.
type Options struct {
	ClientID     string
	ClientSecret string

	BaseURL       string
	AuthorizePath string
	TokenPath     string

	// CallbackURL is the redirect_uri sent to the broker. When empty it is
	// derived from the request Host header and CallbackPath, so it must be
	// set whenever clients can reach the service without a proxy that
	// rewrites Host.
	CallbackURL  string
	CallbackPath string

	// TrustProxyHeaders lets X-Forwarded-Proto and X-Forwarded-Host shape
	// the derived callback URL. Leave it off unless a proxy overwrites them.
	TrustProxyHeaders bool

	AuthorizeOptions []string
	InfoFields       domain.InfoFields
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.AuthorizePath == "" {
		o.AuthorizePath = DefaultAuthorizePath
	}
	if o.TokenPath == "" {
		o.TokenPath = DefaultTokenPath
	}
	if o.CallbackPath == "" {
		o.CallbackPath = DefaultCallbackPath
	}
	if o.AuthorizeOptions == nil {
		o.AuthorizeOptions = DefaultAuthorizeOptions
	}
	// Protocol params are owned by the OAuth2 layer and cannot be passed through.
	opts := make([]string, 0, len(o.AuthorizeOptions))
	for _, name := range o.AuthorizeOptions {
		if !reservedParams[name] {
			opts = append(opts, name)
		}
	}
	o.AuthorizeOptions = opts
	return o
}

var reservedParams = map[string]bool{
	"response_type": true,
	"client_id":     true,
	"redirect_uri":  true,
	"state":         true,
	"scope":         true,
}

// AuthorizeURL is the broker's authorize endpoint.
func (o Options) AuthorizeURL() string { return o.BaseURL + o.AuthorizePath }

// TokenURL is the broker's token endpoint.
func (o Options) TokenURL() string { return o.BaseURL + o.TokenPath }

// Strategy drives one broker integration. It holds no per-user state: both
// phases read and write the session they are handed.
type Strategy struct {
	opts      Options
	oauth     oauth2.Config
	states    *state.Service
	exchanger TokenExchanger
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Strategy.
type Option func(*Strategy)

// WithExchanger replaces the token exchange collaborator.
func WithExchanger(e TokenExchanger) Option {
	return func(s *Strategy) { s.exchanger = e }
}

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Strategy) { s.exchanger = NewOAuth2Exchanger(s.oauth, c) }
}

// WithLogger sets the strategy logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Strategy) { s.logger = l }
}

// New builds a strategy. states signs the anti-forgery state parameter.
func New(opts Options, states *state.Service, options ...Option) *Strategy {
	opts = opts.withDefaults()
	s := &Strategy{
		opts: opts,
		oauth: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthorizeURL(),
				TokenURL:  opts.TokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		states: states,
		logger: slog.Default(),
		now:    time.Now,
	}
	s.exchanger = NewOAuth2Exchanger(s.oauth, nil)
	for _, o := range options {
		o(s)
	}
	s.logger = s.logger.With("strategy", domain.ProviderName)
	return s
}

// Name returns the strategy name.
func (s *Strategy) Name() string { return domain.ProviderName }

// Options returns the effective configuration.
func (s *Strategy) Options() Options { return s.opts }

// SetNow overrides the time function (for testing).
func (s *Strategy) SetNow(fn func() time.Time) {
	s.now = fn
}

// CallbackURL returns the redirect_uri for requests served on r. Query
// strings are never part of it.
func (s *Strategy) CallbackURL(r *http.Request) string {
	if s.opts.CallbackURL != "" {
		return s.opts.CallbackURL
	}
	return s.fullHost(r) + s.opts.CallbackPath
}

func (s *Strategy) fullHost(r *http.Request) string {
	scheme, host := "http", r.Host
	if r.TLS != nil {
		scheme = "https"
	}
	if s.opts.TrustProxyHeaders {
		if proto := firstValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
			scheme = proto
		}
		if fwd := firstValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
			host = fwd
		}
	}
	return scheme + "://" + host
}

func firstValue(header string) string {
	v, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(v)
}
