package strategy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/BlackMission/workosauth/internal/domain"
)

// Exchanged is what the broker returns for an authorization code.
type Exchanged struct {
	AccessToken string
	Profile     domain.RawProfile
}

// TokenExchanger trades an authorization code for an access token and the
// profile the broker embeds next to it. Codes are single use, so callers
// never retry.
type TokenExchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (*Exchanged, error)
}

// OAuth2Exchanger posts the code to the broker token endpoint.
type OAuth2Exchanger struct {
	config     oauth2.Config
	httpClient *http.Client
}

// NewOAuth2Exchanger creates an exchanger. A nil httpClient uses
// http.DefaultClient.
func NewOAuth2Exchanger(config oauth2.Config, httpClient *http.Client) *OAuth2Exchanger {
	return &OAuth2Exchanger{config: config, httpClient: httpClient}
}

func (e *OAuth2Exchanger) Exchange(ctx context.Context, code, redirectURI string) (*Exchanged, error) {
	cfg := e.config
	cfg.RedirectURL = redirectURI
	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenExchange, err)
	}

	profile, ok := token.Extra("profile").(map[string]any)
	if !ok {
		return nil, domain.ErrMissingProfile
	}

	return &Exchanged{
		AccessToken: token.AccessToken,
		Profile:     domain.RawProfile(profile),
	}, nil
}

// exchangeFailure maps a token exchange error onto a failure code.
func exchangeFailure(err error) *domain.Failure {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewFailure(domain.FailureTimeout, "token exchange timed out").Wrap(err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		msg := retrieveErr.ErrorCode
		if retrieveErr.ErrorDescription != "" {
			msg = retrieveErr.ErrorDescription
		}
		if msg == "" && retrieveErr.Response != nil {
			msg = fmt.Sprintf("token endpoint answered %d", retrieveErr.Response.StatusCode)
		}
		if msg == "" {
			msg = "token request rejected"
		}
		return domain.NewFailure(domain.FailureInvalidCredentials, "%s", msg).Wrap(err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return domain.NewFailure(domain.FailureFailedToConnect, "could not reach the token endpoint").Wrap(err)
	}

	return domain.NewFailure(domain.FailureInvalidCredentials, "%s", err.Error()).Wrap(err)
}
