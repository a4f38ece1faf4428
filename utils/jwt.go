package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cppla/tripjournal/config"
)

const (
	// SessionCookieName is the httpOnly cookie carrying the admin session token.
	SessionCookieName = "admin-session"
	// AdminSubject is the only subject the session token is ever issued for.
	AdminSubject = "admin"
	sessionIssuer = "tripjournal"
)

// SessionClaims are the claims of an admin session token. ID (jti) identifies the
// session for revocation.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionTTL returns the configured admin session lifetime.
func SessionTTL() time.Duration {
	hours := config.Get().SessionTTLHours
	if hours <= 0 {
		hours = 7 * 24
	}
	return time.Duration(hours) * time.Hour
}

// GenerateSessionToken issues a signed admin session token valid for ttl.
func GenerateSessionToken(ttl time.Duration) (string, *SessionClaims, error) {
	cfg := config.Get()
	if cfg.SessionSecret == "" {
		return "", nil, errors.New("session secret not configured")
	}
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   AdminSubject,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SessionSecret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseSessionToken verifies signature, expiry, issuer and subject of an admin session token.
func ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.SessionSecret), nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithSubject(AdminSubject),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, errors.New("invalid session claims")
	}
	return claims, nil
}
