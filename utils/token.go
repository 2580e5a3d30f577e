// utils/token.go
package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StripBearer removes a case-insensitive "Bearer " prefix.
func StripBearer(token string) string {
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

// TokenExpiry reads the exp claim of a gateway JWT without verifying its signature;
// the gateway owns the signing key. ok is false when the token is not a JWT or has
// no expiry.
func TokenExpiry(token string) (expiresAt time.Time, ok bool, err error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(StripBearer(token), jwt.MapClaims{})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, err
	}
	if exp == nil {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}
