package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// IssuedToken is a freshly signed token together with its claims.
type IssuedToken struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) { i.now = now }
}

// WithIssuer sets the iss claim written and required by the issuer.
func WithIssuer(issuer string) TokenOption {
	return func(i *TokenIssuer) { i.issuer = issuer }
}

// TokenIssuer signs and verifies HS256 session tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer whose tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration, opts ...TokenOption) *TokenIssuer {
	i := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// TTLMinutes returns the configured token lifetime in whole minutes.
func (i *TokenIssuer) TTLMinutes() int {
	return int(i.ttl / time.Minute)
}

// Sign mints a token for the given user id.
func (i *TokenIssuer) Sign(userID int64) (*IssuedToken, error) {
	if len(i.secret) == 0 {
		return nil, errors.New("empty signing secret")
	}

	// JWT NumericDate has second precision.
	now := i.now().Truncate(time.Second)
	id := uuid.NewString()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{
		Value:     signed,
		ID:        id,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}, nil
}

// Verify parses the token and validates signature, expiry and issuer.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	return i.parse(tokenString, opts...)
}

// VerifySignature parses the token and checks only its signature, so expired
// tokens are still returned.
func (i *TokenIssuer) VerifySignature(tokenString string) (*Claims, error) {
	return i.parse(tokenString,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
}

func (i *TokenIssuer) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
