package handler

import (
	"net/http"
)

// Failure handles GET /auth/failure.
func Failure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		body := map[string]string{
			"error":    q.Get("message"),
			"strategy": q.Get("strategy"),
		}
		if origin := q.Get("origin"); origin != "" {
			body["origin"] = origin
		}
		writeJSON(w, http.StatusUnauthorized, body)
	}
}
