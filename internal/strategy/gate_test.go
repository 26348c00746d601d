package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BlackMission/workosauth/internal/domain"
)

func TestVerify(t *testing.T) {
	profile := domain.RawProfile{
		"id":              "prof_01",
		"connection_id":   "conn_01",
		"organization_id": "org_01",
	}

	tests := []struct {
		name    string
		pending *domain.PendingAuthorization
		profile domain.RawProfile
		want    domain.FailureCode
	}{
		{"no pending authorization", nil, profile, domain.FailureInvalidSession},
		{"unconstrained", &domain.PendingAuthorization{Params: domain.AuthorizeParams{"provider": "GoogleOAuth"}}, profile, domain.FailureInvalidSession},
		{"connection matches", &domain.PendingAuthorization{Connection: "conn_01"}, profile, ""},
		{"organization matches", &domain.PendingAuthorization{Organization: "org_01"}, profile, ""},
		{"both match", &domain.PendingAuthorization{Connection: "conn_01", Organization: "org_01"}, profile, ""},
		{"connection mismatch", &domain.PendingAuthorization{Connection: "conn_99"}, profile, domain.FailureConnectionMismatch},
		{"connection checked before organization", &domain.PendingAuthorization{Connection: "conn_99", Organization: "org_99"}, profile, domain.FailureConnectionMismatch},
		{"organization mismatch", &domain.PendingAuthorization{Connection: "conn_01", Organization: "org_99"}, profile, domain.FailureOrganizationMismatch},
		{"profile lacks connection", &domain.PendingAuthorization{Connection: "conn_01"}, domain.RawProfile{"id": "prof_01"}, domain.FailureConnectionMismatch},
		{"non-string connection id", &domain.PendingAuthorization{Connection: "1"}, domain.RawProfile{"connection_id": 1.0}, domain.FailureConnectionMismatch},
		{"empty profile, nothing requested", &domain.PendingAuthorization{}, domain.RawProfile{}, domain.FailureInvalidSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Verify(tt.pending, tt.profile)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, got.Code)
				assert.NotEmpty(t, got.Message)
			}
		})
	}
}

func TestVerifyMismatchMessage(t *testing.T) {
	got := Verify(&domain.PendingAuthorization{Connection: "invalid"}, domain.RawProfile{"connection_id": "conn_01"})
	if assert.NotNil(t, got) {
		assert.Equal(t, "the user's connection_id `conn_01` doesn't match what was requested `invalid`", got.Message)
	}
}
