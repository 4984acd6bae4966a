package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "studybuddy-backend/pkg/errors"
)

// JWTConfig holds JWT validation configuration
type JWTConfig struct {
	SigningMethod string
	SecretKey     string
	Issuer        string
	Audience      []string
}

// JWTValidator validates bearer tokens issued by the identity provider
type JWTValidator struct {
	config JWTConfig
}

// NewJWTValidator creates a validator for the given configuration
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}
	if config.SigningMethod == "" {
		config.SigningMethod = "HS256"
	}
	return &JWTValidator{config: config}, nil
}

// claims is the token payload we care about
type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Validate parses and verifies a bearer token and returns the user identity
func (v *JWTValidator) Validate(tokenString string) (*UserContext, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != v.config.SigningMethod {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return []byte(v.config.SecretKey), nil
	},
		jwt.WithIssuer(v.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.NewUnauthenticatedError("invalid token").WithCause(err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.NewUnauthenticatedError("invalid token claims")
	}

	if c.Subject == "" {
		return nil, apperrors.NewUnauthenticatedError("token has no subject")
	}

	if len(v.config.Audience) > 0 {
		if !audienceMatches(c.Audience, v.config.Audience) {
			return nil, apperrors.NewUnauthenticatedError("token audience mismatch")
		}
	}

	return &UserContext{
		UserID: c.Subject,
		Email:  c.Email,
	}, nil
}

func audienceMatches(got jwt.ClaimStrings, want []string) bool {
	for _, g := range got {
		for _, w := range want {
			if g == w {
				return true
			}
		}
	}
	return false
}
