package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProviderName is the strategy name reported in identities and failures.
const ProviderName = "workos"

// AuthorizeParams are the whitelisted request parameters forwarded to the
// broker's authorize endpoint. Blank values are never present.
type AuthorizeParams map[string]string

// PendingAuthorization is the part of an authorize request that must survive
// the redirect to the broker so the callback can check the returned profile
// against it.
type PendingAuthorization struct {
	Connection   string          `json:"connection,omitempty"`
	Organization string          `json:"organization,omitempty"`
	Params       AuthorizeParams `json:"params,omitempty"`
}

// NewPendingAuthorization captures the connection and organization
// constraints from the forwarded params.
func NewPendingAuthorization(params AuthorizeParams) PendingAuthorization {
	return PendingAuthorization{
		Connection:   params["connection"],
		Organization: params["organization"],
		Params:       params,
	}
}

// Constrained reports whether a connection or an organization was requested.
func (p PendingAuthorization) Constrained() bool {
	return p.Connection != "" || p.Organization != ""
}

// RawProfile is the broker profile embedded in the token response.
type RawProfile map[string]any

// String returns the value of key when it is a string.
func (p RawProfile) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Credentials describes the broker access token.
type Credentials struct {
	Token     string `json:"token"`
	Expires   bool   `json:"expires"`
	ExpiresAt int64  `json:"expires_at"`
}

// ExpiresAtTime returns ExpiresAt as a time.Time.
func (c Credentials) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}

// Identity is the normalized result of a successful callback.
type Identity struct {
	Provider    string         `json:"provider"`
	UID         string         `json:"uid"`
	Info        map[string]any `json:"info"`
	Credentials Credentials    `json:"credentials"`
}

// InfoFields selects which profile fields end up in Identity.Info.
// The zero value selects every field except id.
type InfoFields struct {
	fields []string
}

// AllExceptID selects every profile field except id.
func AllExceptID() InfoFields { return InfoFields{} }

// Fields selects exactly the named profile fields, in order.
func Fields(names ...string) InfoFields {
	return InfoFields{fields: append(make([]string, 0, len(names)), names...)}
}

// All reports whether the selection is AllExceptID.
func (f InfoFields) All() bool { return f.fields == nil }

// Names returns the explicit field list; nil under AllExceptID.
func (f InfoFields) Names() []string {
	if f.fields == nil {
		return nil
	}
	return append([]string(nil), f.fields...)
}

func (f InfoFields) String() string {
	if f.All() {
		return "all"
	}
	return strings.Join(f.fields, ",")
}

// ParseInfoFields accepts "all" or a comma-separated list of field names.
func ParseInfoFields(s string) (InfoFields, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return AllExceptID(), nil
	}
	var names []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return InfoFields{}, fmt.Errorf("%w: info fields %q names no field", ErrInvalidConfig, s)
	}
	return Fields(names...), nil
}

// StatePayload is the data embedded in the HMAC-signed OAuth state token.
// The nonce is also kept in the end-user session so a state minted for one
// session cannot complete a callback in another.
type StatePayload struct {
	SessionID string    `json:"sid"`
	Nonce     string    `json:"nce"`
	ExpiresAt time.Time `json:"exp"`
}
