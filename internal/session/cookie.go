package session

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultCookieName is used when CookieOptions.Name is empty.
const DefaultCookieName = "workos_session"

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		// Lax lets the cookie ride along on the broker's top-level redirect back.
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// Manager resolves the session of each request from its cookie, issuing a
// new one when the cookie is missing, expired or tampered with.
type Manager struct {
	store  Store
	codec  *Codec
	ttl    time.Duration
	opts   CookieOptions
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(store Store, codec *Codec, ttl time.Duration, opts CookieOptions, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		codec:  codec,
		ttl:    ttl,
		opts:   opts.normalize(),
		logger: logger,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string { return m.opts.Name }

// Load returns the request's session, setting a fresh cookie on w when the
// request did not carry a usable one.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.opts.Name); err == nil {
		id, err := m.codec.Decode(c.Value)
		if err == nil {
			return New(id, m.store, m.ttl), nil
		}
		m.logger.Debug("discarding session cookie", "error", err)
	}

	id := NewID()
	value, expiresAt, err := m.codec.Encode(id)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.Name,
		Value:    value,
		Path:     m.opts.Path,
		Domain:   m.opts.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	})
	return New(id, m.store, m.ttl), nil
}

// Middleware attaches the request's session to its context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(w, r)
		if err != nil {
			m.logger.Error("loading session", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
