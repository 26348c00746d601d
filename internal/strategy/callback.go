package strategy

import (
	"context"
	"fmt"
	"net/url"

	"github.com/BlackMission/workosauth/internal/domain"
	"github.com/BlackMission/workosauth/internal/session"
)

// CallbackPhase completes the attempt recorded in sess. It returns the
// identity only when every check passed; any failure is a *domain.Failure
// and no identity data accompanies it.
//
// The state nonce is consumed before it is checked, so any callback for the
// session, stale or forged ones included, ends the pending attempt. The
// pending authorization is consumed right after the state checks out, so of
// two racing callbacks for one attempt only the first gets past the state
// check.
func (s *Strategy) CallbackPhase(ctx context.Context, sess *session.Session, query url.Values, callbackURL string) (*domain.Identity, error) {
	var nonce string
	if _, err := sess.Consume(ctx, sessionKeyState, &nonce); err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if err := s.checkState(query.Get("state"), sess.ID(), nonce); err != nil {
		return nil, err
	}

	var pending domain.PendingAuthorization
	found, err := sess.Consume(ctx, sessionKeyAuthorizeParams, &pending)
	if err != nil {
		return nil, fmt.Errorf("loading authorize params: %w", err)
	}

	if code := query.Get("error"); code != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = code
		}
		return nil, domain.NewFailure(domain.FailureCallbackError, "%s", desc)
	}

	code := query.Get("code")
	if code == "" {
		return nil, domain.NewFailure(domain.FailureInvalidCredentials, "missing authorization code")
	}

	exchanged, err := s.exchanger.Exchange(ctx, code, callbackURL)
	if err != nil {
		f := exchangeFailure(err)
		s.logger.ErrorContext(ctx, "token exchange failed", "code", f.Code, "error", err)
		return nil, f
	}

	identity, err := s.Normalize(exchanged.Profile, exchanged.AccessToken)
	if err != nil {
		return nil, err
	}

	var requested *domain.PendingAuthorization
	if found {
		requested = &pending
	}
	if f := Verify(requested, exchanged.Profile); f != nil {
		s.logger.DebugContext(ctx, "broker identity does not match the request",
			"code", f.Code,
			"uid", identity.UID,
			"requested", pending.Params,
		)
		return nil, f
	}

	return identity, nil
}

func (s *Strategy) checkState(token, sessionID, nonce string) error {
	if token == "" || nonce == "" {
		return domain.NewFailure(domain.FailureCSRFDetected, "CSRF detected")
	}
	if _, err := s.states.Verify(token, sessionID, nonce); err != nil {
		return domain.NewFailure(domain.FailureCSRFDetected, "CSRF detected").Wrap(err)
	}
	return nil
}
