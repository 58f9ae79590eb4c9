package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is set on every token and required when parsing.
const Issuer = "cloudcfg"

// MinSecretLength is the shortest HS256 secret accepted.
const MinSecretLength = 32

const defaultTTL = 60 * time.Minute

// CustomClaims extends JWT standard claims with the operator's role.
type CustomClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// GenerateToken creates a signed HS256 operator token.
//
// Parameters:
//   - subject: Who the token is for, e.g. an operator's login name
//   - role: Access level granted
//   - secret: Signing secret, at least MinSecretLength bytes
//   - ttl: Token lifetime; zero or negative means 60 minutes
//
// Returns:
//   - string: Compact signed JWT
//   - error: If inputs are invalid or signing fails
func GenerateToken(subject string, role Role, secret string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if !role.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if len(secret) < MinSecretLength {
		return "", ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken validates and parses an operator token, returning its claims.
// It checks the signature, algorithm, issuer, expiry and role.
func ParseToken(tokenString, secret string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: %w %q", ErrTokenInvalid, ErrInvalidRole, claims.Role)
	}

	return claims, nil
}
