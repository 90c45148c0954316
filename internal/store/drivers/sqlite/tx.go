package sqlite

import (
	"database/sql"

	"github.com/goodbridge/givestack/internal/store"
)

// tx is a transaction-scoped view over the same repositories.
type tx struct {
	t *sql.Tx
}

func newTx(t *sql.Tx) *tx { return &tx{t: t} }

func (x *tx) Users() store.Users                     { return &usersRepo{q: x.t} }
func (x *tx) Donations() store.Donations             { return &donationsRepo{q: x.t} }
func (x *tx) PaymentSessions() store.PaymentSessions { return &paymentSessionsRepo{q: x.t} }
func (x *tx) PasswordResets() store.PasswordResets   { return &passwordResetsRepo{q: x.t} }
