package strategy

import (
	"github.com/BlackMission/workosauth/internal/domain"
)

// Verify checks the broker profile against what the authorize phase asked
// for. A nil pending means nothing was recorded for this session.
//
// Presence is checked before the match: an attempt that constrained neither
// the connection nor the organization is refused outright.
func Verify(pending *domain.PendingAuthorization, profile domain.RawProfile) *domain.Failure {
	if pending == nil || !pending.Constrained() {
		return domain.NewFailure(domain.FailureInvalidSession,
			"invalid session; no connection nor organization was requested")
	}

	if pending.Connection != "" {
		got, _ := profile.String("connection_id")
		if got != pending.Connection {
			return domain.NewFailure(domain.FailureConnectionMismatch,
				"the user's connection_id `%s` doesn't match what was requested `%s`", got, pending.Connection)
		}
	}

	if pending.Organization != "" {
		got, _ := profile.String("organization_id")
		if got != pending.Organization {
			return domain.NewFailure(domain.FailureOrganizationMismatch,
				"the user's organization_id `%s` doesn't match what was requested `%s`", got, pending.Organization)
		}
	}

	return nil
}
