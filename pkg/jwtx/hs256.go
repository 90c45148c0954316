package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign access tokens.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies tokens with a single shared secret. This service
// is both the only issuer and the only consumer of its tokens, so a
// symmetric key keeps things simple; swap in an asymmetric Signer if tokens
// ever need third-party verification.
type HS256 struct {
	Secret []byte
	Issuer string
}

// NewHS256 creates a symmetric signer/verifier from a shared secret.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwtx: hs256 secret must be at least 32 bytes")
	}
	return &HS256{Secret: secret, Issuer: issuer}, nil
}

func (h *HS256) Alg() string { return "HS256" }

// Sign produces a compact JWS for the given claims.
func (h *HS256) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(h.Secret)
}

// Verify parses and validates a compact JWS, enforcing the signing
// algorithm, signature, issuer and expiry.
func (h *HS256) Verify(token string) (Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return h.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		default:
			return Claims{}, ErrMalformed
		}
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(h.Issuer); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
