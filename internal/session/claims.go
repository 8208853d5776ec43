package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client can read from a JWT credential without verifying it.
// The values are informational only; validation is the remote service's job.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the credential carries an expiry in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes the credential as an unverified JWT.
func ParseClaims(credential string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return Claims{}, fmt.Errorf("credential is not a jwt: %w", err)
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return Claims{}, fmt.Errorf("reading subject: %w", err)
	}

	result := Claims{Subject: subject}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("reading expiry: %w", err)
	}
	if exp != nil {
		result.ExpiresAt = exp.Time
	}

	return result, nil
}
