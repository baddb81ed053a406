package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest accepted session secret.
const MinSecretLength = 32

// DefaultIssuer is the iss claim of session tokens.
const DefaultIssuer = "sharegate"

// Common errors for token operations.
var (
	ErrInvalidToken        = errors.New("invalid session token")
	ErrExpiredToken        = errors.New("session token has expired")
	ErrTokenSigningFailed  = errors.New("failed to sign session token")
	ErrInvalidSecretLength = fmt.Errorf("session secret must be at least %d characters", MinSecretLength)
)

// Claims is the payload of the session cookie. The subject is the session id.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService signs and validates session cookies with HMAC-SHA256.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService returns a TokenService keyed with secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}
	return &TokenService{secret: []byte(secret), issuer: DefaultIssuer}, nil
}

// Issue returns a token naming sessionID, valid until expiresAt.
func (s *TokenService) Issue(sessionID string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", ErrTokenSigningFailed
	}
	return signed, nil
}

// Validate checks the signature, issuer and expiry of token and returns the
// session id it names.
func (s *TokenService) Validate(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
