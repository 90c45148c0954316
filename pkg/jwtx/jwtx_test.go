package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewHS256RejectsShortSecrets(t *testing.T) {
	_, err := NewHS256([]byte("too-short"), "issuer")
	require.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	signer, err := NewHS256([]byte(testSecret), "givestack")
	require.NoError(t, err)

	claims := NewAccessClaims(
		"user-1", "alice@example.com", "Alice", "admin",
		time.Minute, "givestack", time.Now(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "Alice", got.Name)
	require.Equal(t, "admin", got.Role)
	require.NotEmpty(t, got.ID, "jti should be populated")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, err := NewHS256([]byte(testSecret), "givestack")
	require.NoError(t, err)
	other, err := NewHS256([]byte("ffffffffffffffffffffffffffffffff"), "givestack")
	require.NoError(t, err)

	token, err := signer.Sign(NewAccessClaims("u", "", "", "user", time.Minute, "givestack", time.Now()))
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer, err := NewHS256([]byte(testSecret), "givestack")
	require.NoError(t, err)

	claims := NewAccessClaims("u", "", "", "user", time.Minute, "givestack", time.Now().Add(-time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	signer, err := NewHS256([]byte(testSecret), "givestack")
	require.NoError(t, err)
	verifier, err := NewHS256([]byte(testSecret), "someone-else")
	require.NoError(t, err)

	token, err := signer.Sign(NewAccessClaims("u", "", "", "user", time.Minute, "givestack", time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	signer, err := NewHS256([]byte(testSecret), "givestack")
	require.NoError(t, err)

	_, err = signer.Verify("not.a.token")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestValidateExpiry(t *testing.T) {
	fresh := NewAccessClaims("u", "", "", "user", time.Minute, "iss", time.Now())
	require.NoError(t, fresh.ValidateExpiry())

	stale := NewAccessClaims("u", "", "", "user", time.Minute, "iss", time.Now().Add(-time.Hour))
	require.ErrorIs(t, stale.ValidateExpiry(), ErrExpired)

	future := NewAccessClaims("u", "", "", "user", time.Minute, "iss", time.Now().Add(time.Hour))
	require.ErrorIs(t, future.ValidateExpiry(), ErrNotYetValid)
}
