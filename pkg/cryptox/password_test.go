package cryptox

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setTestPepper(t *testing.T) {
	t.Helper()
	SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
}

func TestHashAndVerifyPassword(t *testing.T) {
	setTestPepper(t)

	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("s3cret-password", hash))
	require.ErrorIs(t, VerifyPassword("wrong-password", hash), ErrPasswordMismatch)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	setTestPepper(t)

	first, err := HashPassword("same-input")
	require.NoError(t, err)
	second, err := HashPassword("same-input")
	require.NoError(t, err)

	require.NotEqual(t, first, second, "each hash must use a fresh salt")
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	setTestPepper(t)

	for _, hash := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	} {
		err := VerifyPassword("whatever", hash)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrPasswordMismatch, "malformed input is not a mismatch: %q", hash)
	}
}

func TestDummyHashNeverMatches(t *testing.T) {
	setTestPepper(t)

	require.ErrorIs(t, VerifyPassword("", DummyHash), ErrPasswordMismatch)
	require.ErrorIs(t, VerifyPassword("password", DummyHash), ErrPasswordMismatch)
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for range 10 {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.Regexp(t, `^\d{6}$`, code)
		seen[code] = true
	}
	require.Greater(t, len(seen), 1, "codes must not be constant")
}
