package models

import "encoding/json"

// Request body for `accounts/prelogin`
type PreloginRequest struct {
	Email string `json:"email"`
}

// Token endpoint response. Only `access_token` is read; the raw body is kept for the artifact.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	// Raw response body
	Raw json.RawMessage `json:"-"`
}

// Error body returned by the identity and API services on failure.
// The identity service uses OAuth2 field names; the API service uses `message`.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}
