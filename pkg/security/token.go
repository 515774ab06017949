package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the token failed validation. Structural, signature
// and expiry failures all collapse to this one value.
var ErrInvalidToken = errors.New("invalid token")

// TokenTypeRefresh marks refresh tokens. Access tokens carry no type claim.
const TokenTypeRefresh = "refresh"

// Claims is the signed payload carried by access and refresh tokens.
type Claims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c Claims) IsRefresh() bool {
	return c.Type == TokenTypeRefresh
}

// TokenCodec signs and verifies HMAC JWTs with a fixed secret and algorithm.
type TokenCodec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// CodecOption configures TokenCodec behaviour.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for expiry checks.
func WithClock(fn func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewTokenCodec builds a codec for one of HS256, HS384 or HS512.
func NewTokenCodec(secret, algorithm string, opts ...CodecOption) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	codec := &TokenCodec{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Algorithm returns the configured JWS algorithm name.
func (c *TokenCodec) Algorithm() string {
	return c.method.Alg()
}

// Encode sets exp to expiresAt and returns the signed compact token.
func (c *TokenCodec) Encode(claims Claims, expiresAt time.Time) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, algorithm and expiry with zero leeway. A token is
// already expired at its exp instant.
func (c *TokenCodec) Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
