package strategy

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/BlackMission/workosauth/internal/domain"
	"github.com/BlackMission/workosauth/internal/session"
)

// AuthorizeParams picks the whitelisted params with a non-empty value from
// the inbound query. Blank params make the broker reject the request.
func (s *Strategy) AuthorizeParams(query url.Values) domain.AuthorizeParams {
	params := make(domain.AuthorizeParams, len(s.opts.AuthorizeOptions))
	for _, key := range s.opts.AuthorizeOptions {
		if value := query.Get(key); value != "" {
			params[key] = value
		}
	}
	return params
}

// checkCredentials runs before anything else in the request phase.
func (s *Strategy) checkCredentials() error {
	if s.opts.ClientID == "" {
		return domain.NewFailure(domain.FailureMissingClientID, "client_id is not configured")
	}
	if s.opts.ClientSecret == "" {
		return domain.NewFailure(domain.FailureMissingClientSecret, "client_secret is not configured")
	}
	return nil
}

// RequestPhase records the attempt in sess and returns the broker authorize
// URL the user agent must be redirected to.
func (s *Strategy) RequestPhase(ctx context.Context, sess *session.Session, query url.Values, callbackURL string) (string, error) {
	if err := s.checkCredentials(); err != nil {
		return "", err
	}

	params := s.AuthorizeParams(query)

	token, minted, err := s.states.Generate(sess.ID())
	if err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}

	// Both entries live no longer than the state token that unlocks them.
	ttl := s.states.Expiry()
	if err := sess.PutTTL(ctx, sessionKeyState, minted.Nonce, ttl); err != nil {
		return "", fmt.Errorf("storing state: %w", err)
	}
	// The callback verifies the returned profile against these.
	if err := sess.PutTTL(ctx, sessionKeyAuthorizeParams, domain.NewPendingAuthorization(params), ttl); err != nil {
		return "", fmt.Errorf("storing authorize params: %w", err)
	}

	cfg := s.oauth
	cfg.RedirectURL = callbackURL

	opts := make([]oauth2.AuthCodeOption, 0, len(params))
	for _, key := range s.opts.AuthorizeOptions {
		if value, ok := params[key]; ok {
			opts = append(opts, oauth2.SetAuthURLParam(key, value))
		}
	}

	s.logger.DebugContext(ctx, "redirecting to broker",
		"connection", params["connection"],
		"organization", params["organization"],
	)

	return cfg.AuthCodeURL(token, opts...), nil
}
