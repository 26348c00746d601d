package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/BlackMission/workosauth/internal/domain"
)

// sessionKeyOrigin holds the page the user started from.
const sessionKeyOrigin = "workos.origin"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// failureURL builds the redirect target for a failed attempt.
func failureURL(failurePath string, code domain.FailureCode, origin string) string {
	q := url.Values{}
	q.Set("message", string(code))
	q.Set("strategy", domain.ProviderName)
	if origin != "" {
		q.Set("origin", origin)
	}
	return failurePath + "?" + q.Encode()
}

// query merges the URL query and, for POST, the form body.
func query(r *http.Request) url.Values {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			return r.Form
		}
	}
	return r.URL.Query()
}
