package state

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BlackMission/workosauth/internal/domain"
)

const (
	// DefaultExpiry bounds the time between the authorize redirect and the
	// broker callback.
	DefaultExpiry = 10 * time.Minute
	nonceBytes    = 16
)

// Service generates and validates HMAC-signed OAuth state tokens bound to an
// end-user session.
type Service struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

// NewService creates a state token service with the given HMAC signing key.
func NewService(key []byte) *Service {
	return &Service{
		key:    key,
		expiry: DefaultExpiry,
		now:    time.Now,
	}
}

// Expiry returns how long a generated token stays valid.
func (s *Service) Expiry() time.Duration { return s.expiry }

// Generate creates a state token for the given session. The returned payload
// carries the fresh nonce the caller must keep in the session.
func (s *Service) Generate(sessionID string) (string, *domain.StatePayload, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, fmt.Errorf("generating nonce: %w", err)
	}
	payload := domain.StatePayload{
		SessionID: sessionID,
		Nonce:     hex.EncodeToString(nonce),
		ExpiresAt: s.now().Add(s.expiry),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling state payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	sig := s.sign(encoded)

	return encoded + "." + sig, &payload, nil
}

// Validate verifies the HMAC signature and expiry of a state token.
func (s *Service) Validate(token string) (*domain.StatePayload, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return nil, domain.ErrMalformedState
	}

	encoded, sig := parts[0], parts[1]

	expectedSig := s.sign(encoded)
	if !hmac.Equal([]byte(sig), []byte(expectedSig)) {
		return nil, domain.ErrInvalidState
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, domain.ErrMalformedState
	}

	var payload domain.StatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.ErrMalformedState
	}

	if s.now().After(payload.ExpiresAt) {
		return nil, domain.ErrExpiredState
	}

	return &payload, nil
}

// Verify validates token and checks that it was minted for sessionID and
// carries the nonce the session remembered.
func (s *Service) Verify(token, sessionID, nonce string) (*domain.StatePayload, error) {
	payload, err := s.Validate(token)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal([]byte(payload.SessionID), []byte(sessionID)) {
		return nil, fmt.Errorf("%w: session mismatch", domain.ErrInvalidState)
	}
	if nonce == "" || !hmac.Equal([]byte(payload.Nonce), []byte(nonce)) {
		return nil, fmt.Errorf("%w: nonce mismatch", domain.ErrInvalidState)
	}
	return payload, nil
}

// SetNow overrides the time function (for testing).
func (s *Service) SetNow(fn func() time.Time) {
	s.now = fn
}

func (s *Service) sign(data string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
