package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BlackMission/workosauth/internal/domain"
)

type cookiePayload struct {
	SessionID string    `json:"sid"`
	ExpiresAt time.Time `json:"exp"`
}

// Codec seals session ids into cookie values using AES-256-GCM.
type Codec struct {
	aead   cipher.AEAD
	expiry time.Duration
	now    func() time.Time
}

// NewCodec creates a cookie codec with the given 32-byte AES key. Sealed
// values stop decoding after expiry.
func NewCodec(key []byte, expiry time.Duration) (*Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: session key must be 32 bytes, got %d", domain.ErrInvalidConfig, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Codec{
		aead:   aead,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// SetNow overrides the time function (for testing).
func (c *Codec) SetNow(fn func() time.Time) {
	c.now = fn
}

// Encode seals a session id into a base64url cookie value. It also returns
// the value's expiry, for the cookie's Expires attribute.
func (c *Codec) Encode(sessionID string) (string, time.Time, error) {
	payload := cookiePayload{
		SessionID: sessionID,
		ExpiresAt: c.now().Add(c.expiry),
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshaling cookie payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", time.Time{}, fmt.Errorf("generating nonce: %w", err)
	}

	// nonce || ciphertext+tag
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)

	return base64.RawURLEncoding.EncodeToString(sealed), payload.ExpiresAt, nil
}

// Decode opens a cookie value and returns the session id it carries.
func (c *Codec) Decode(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", domain.ErrInvalidCookie
	}

	if len(raw) < c.aead.NonceSize() {
		return "", domain.ErrInvalidCookie
	}

	nonce := raw[:c.aead.NonceSize()]
	ciphertext := raw[c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", domain.ErrInvalidCookie
	}

	var payload cookiePayload
	if err := json.Unmarshal(plaintext, &payload); err != nil || payload.SessionID == "" {
		return "", domain.ErrInvalidCookie
	}

	if c.now().After(payload.ExpiresAt) {
		return "", domain.ErrExpiredCookie
	}

	return payload.SessionID, nil
}
