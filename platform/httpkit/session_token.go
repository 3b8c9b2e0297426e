package httpkit

import (
	"errors"
	"time"

	"travel_portal_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTokenType = "wizard_session"

// IssueSessionToken signs an HS256 token bound to a wizard session.
func IssueSessionToken(cfg config.SessionConfig, sessionID uuid.UUID, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(cfg.GetSessionTTL())
	claims := jwt.MapClaims{
		"sub":  sessionID.String(),
		"type": sessionTokenType,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.GetSessionSecret()))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseSessionToken validates a session token and returns its session ID.
func ParseSessionToken(cfg config.SessionConfig, rawToken string) (uuid.UUID, error) {
	id, _, err := parseSessionToken(cfg, rawToken)
	return id, err
}

// refreshSessionToken returns a new token when less than half of the
// session TTL is left on the presented one, so active sessions keep a
// valid token while their store entry slides.
func refreshSessionToken(cfg config.SessionConfig, sessionID uuid.UUID, expiresAt, now time.Time) (string, time.Time, bool) {
	if expiresAt.Sub(now) > cfg.GetSessionTTL()/2 {
		return "", time.Time{}, false
	}
	token, newExpiry, err := IssueSessionToken(cfg, sessionID, now)
	if err != nil {
		return "", time.Time{}, false
	}
	return token, newExpiry, true
}

func parseSessionToken(cfg config.SessionConfig, rawToken string) (uuid.UUID, time.Time, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.GetSessionSecret()), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return uuid.Nil, time.Time{}, errors.New(errInvalidToken)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, time.Time{}, errors.New(errInvalidToken)
	}

	if tokenType, _ := claims["type"].(string); tokenType != sessionTokenType {
		return uuid.Nil, time.Time{}, errors.New(errInvalidToken)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return uuid.Nil, time.Time{}, errors.New(errInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, time.Time{}, errors.New(errInvalidToken)
	}
	return id, exp.Time, nil
}
