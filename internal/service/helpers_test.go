package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store/drivers/sqlite"
	"github.com/goodbridge/givestack/pkg/cryptox"
	"github.com/goodbridge/givestack/pkg/idx"
)

const testPassword = "correct-horse-battery"

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *sqlite.Store, email string, role domain.Role) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	user := domain.User{
		ID:           idx.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	return user
}
