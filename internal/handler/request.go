package handler

import (
	"log/slog"
	"net/http"

	"github.com/BlackMission/workosauth/internal/domain"
	"github.com/BlackMission/workosauth/internal/metrics"
	"github.com/BlackMission/workosauth/internal/session"
	"github.com/BlackMission/workosauth/internal/strategy"
)

// Request handles GET|POST /auth/workos.
// It records the attempt in the session and redirects to the broker's authorize URL.
func Request(s *strategy.Strategy, m *metrics.Metrics, failurePath string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusInternalServerError, "no session")
			return
		}

		params := query(r)
		origin := params.Get("origin")

		authURL, err := s.RequestPhase(r.Context(), sess, params, s.CallbackURL(r))
		if err != nil {
			if f, ok := domain.AsFailure(err); ok {
				m.ObserveRequestPhase(string(f.Code))
				logger.WarnContext(r.Context(), "request phase failed", "code", f.Code)
				http.Redirect(w, r, failureURL(failurePath, f.Code, origin), http.StatusFound)
				return
			}
			logger.ErrorContext(r.Context(), "request phase error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start authentication")
			return
		}

		if origin != "" {
			if err := sess.Put(r.Context(), sessionKeyOrigin, origin); err != nil {
				logger.ErrorContext(r.Context(), "storing origin", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to start authentication")
				return
			}
		}

		m.ObserveRequestPhase(metrics.OutcomeSuccess)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}
