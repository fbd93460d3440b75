package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims read from an access token. The signature is not verified.
type TokenInfo struct {
	Subject   string
	Email     string
	Issuer    string
	ExpiresAt time.Time
}

// Decode the claims of a JWT access token without verifying it.
// Returns an error for opaque (non-JWT) tokens.
func InspectAccessToken(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, err
	}

	info := TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if email, ok := claims["email"].(string); ok {
		info.Email = email
	}

	if info == (TokenInfo{}) {
		return TokenInfo{}, errors.New("token has no recognized claims")
	}

	return info, nil
}
