package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BlackMission/workosauth/internal/domain"
	"github.com/BlackMission/workosauth/internal/metrics"
	"github.com/BlackMission/workosauth/internal/session"
	"github.com/BlackMission/workosauth/internal/strategy"
)

// Callback handles GET|POST /auth/workos/callback.
// It completes the attempt stored in the session and renders the identity as
// JSON, or redirects to the failure path with the failure code.
func Callback(s *strategy.Strategy, m *metrics.Metrics, failurePath string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sess, ok := session.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusInternalServerError, "no session")
			return
		}

		var origin string
		if _, err := sess.Consume(r.Context(), sessionKeyOrigin, &origin); err != nil {
			logger.WarnContext(r.Context(), "loading origin", "error", err)
		}

		identity, err := s.CallbackPhase(r.Context(), sess, query(r), s.CallbackURL(r))
		if err != nil {
			if f, ok := domain.AsFailure(err); ok {
				m.ObserveCallbackPhase(string(f.Code), time.Since(start))
				// A mismatch after a good exchange means someone came back with an
				// identity the session never asked for.
				level := slog.LevelInfo
				if f.SessionIntegrity() {
					level = slog.LevelWarn
				}
				logger.Log(r.Context(), level, "callback phase failed", "code", f.Code, "reason", f.Message)
				http.Redirect(w, r, failureURL(failurePath, f.Code, origin), http.StatusFound)
				return
			}
			m.ObserveCallbackPhase("error", time.Since(start))
			logger.ErrorContext(r.Context(), "callback phase error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to complete authentication")
			return
		}

		// The attempt is over; nothing in the session may outlive it.
		if err := sess.Destroy(r.Context()); err != nil {
			logger.WarnContext(r.Context(), "destroying session", "error", err)
		}

		m.ObserveCallbackPhase(metrics.OutcomeSuccess, time.Since(start))
		logger.InfoContext(r.Context(), "authenticated",
			"uid", identity.UID,
			"token_expires_at", identity.Credentials.ExpiresAtTime(),
		)
		writeJSON(w, http.StatusOK, identity)
	}
}
