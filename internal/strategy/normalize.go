package strategy

import (
	"maps"

	"github.com/BlackMission/workosauth/internal/domain"
)

// Normalize turns the broker profile and access token into an identity.
// It fails with missing_identifier when the profile has no id.
func (s *Strategy) Normalize(profile domain.RawProfile, accessToken string) (*domain.Identity, error) {
	uid, _ := profile.String("id")
	if uid == "" {
		return nil, domain.NewFailure(domain.FailureMissingIdentifier, "the profile carries no id")
	}

	return &domain.Identity{
		Provider:    domain.ProviderName,
		UID:         uid,
		Info:        Info(profile, s.opts.InfoFields),
		Credentials: s.credentials(accessToken),
	}, nil
}

// Info selects the identity info from profile. Under AllExceptID it is a
// shallow copy without id; otherwise it holds exactly the named fields, nil
// when the profile lacks one.
func Info(profile domain.RawProfile, fields domain.InfoFields) map[string]any {
	if fields.All() {
		info := maps.Clone(map[string]any(profile))
		if info == nil {
			info = make(map[string]any)
		}
		delete(info, "id")
		return info
	}

	names := fields.Names()
	info := make(map[string]any, len(names))
	for _, name := range names {
		info[name] = profile[name]
	}
	return info
}

func (s *Strategy) credentials(accessToken string) domain.Credentials {
	return domain.Credentials{
		Token:     accessToken,
		Expires:   true,
		ExpiresAt: s.now().UTC().Unix() + int64(TokenLifetime.Seconds()),
	}
}
