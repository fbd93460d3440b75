package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/constants"
	"github.com/joshnies/survol/lib/api"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/lib/httpw"
	"github.com/joshnies/survol/models"
)

// Build the token request form from config.
// Field order matters to some identity servers and is kept fixed.
func TokenForm(cfg config.Config) []httpw.FormField {
	return []httpw.FormField{
		{Key: "scope", Value: cfg.Scope},
		{Key: "client_id", Value: cfg.ClientID},
		{Key: "client_secret", Value: cfg.ClientSecret},
		{Key: "deviceType", Value: cfg.DeviceType},
		{Key: "deviceIdentifier", Value: cfg.DeviceIdentifier},
		{Key: "deviceName", Value: cfg.DeviceName},
		{Key: "grant_type", Value: cfg.GrantType},
	}
}

// Headers sent with the token request.
func TokenHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", constants.ContentTypeForm)
	h.Set("Accept", constants.ContentTypeJSON)
	h.Set(constants.DeviceTypeHeader, constants.DeviceTypeHeaderValue)
	return h
}

// Exchange the configured client credentials for an access token.
//
// Returns the raw response. Use ParseAccessTokenResponse to extract the token,
// which lets the caller persist the response even when it has no token.
func RequestToken(ctx context.Context, client *httpw.Client, cfg config.Config) (json.RawMessage, error) {
	reqUrl := api.BuildURL(cfg.IdentityURL, constants.PathToken)
	return client.PostForm(ctx, reqUrl, TokenForm(cfg), TokenHeaders())
}

// Parse access token response from the identity service.
func ParseAccessTokenResponse(raw json.RawMessage) (models.TokenResponse, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return models.TokenResponse{}, errs.Wrap(errs.KindMissingField, err)
	}

	// Validate response
	tokenJson, ok := body["access_token"]
	if !ok {
		return models.TokenResponse{}, errs.New(errs.KindMissingField, "\"access_token\" not found in response")
	}

	var accessToken string
	if err := json.Unmarshal(tokenJson, &accessToken); err != nil {
		return models.TokenResponse{}, errs.New(errs.KindMissingField, "\"access_token\" is not a string")
	}

	if accessToken == "" {
		return models.TokenResponse{}, errs.New(errs.KindMissingField, "\"access_token\" is empty")
	}

	return models.TokenResponse{
		AccessToken: accessToken,
		Raw:         raw,
	}, nil
}
