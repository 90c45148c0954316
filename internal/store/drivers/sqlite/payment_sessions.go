package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/goodbridge/givestack/internal/domain"
)

type paymentSessionsRepo struct {
	q queryable
}

func (r *paymentSessionsRepo) CreatePaymentSession(ctx context.Context, ps domain.PaymentSession) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO payment_sessions
		   (id, donation_id, session_id, user_id, email, amount, currency,
		    payment_status, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ps.ID, ps.DonationID, ps.SessionID, ps.UserID, ps.Email,
		ps.Amount, ps.Currency, ps.PaymentStatus, ps.Status,
		fmtTime(ps.CreatedAt), fmtOptionalTime(ps.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *paymentSessionsRepo) GetPaymentSessionBySessionID(ctx context.Context, sessionID string) (domain.PaymentSession, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, donation_id, session_id, user_id, email, amount, currency,
		        payment_status, status, created_at, updated_at
		 FROM payment_sessions WHERE session_id = ?`, sessionID)

	var (
		ps        domain.PaymentSession
		createdAt string
		updatedAt sql.NullString
	)
	if err := row.Scan(&ps.ID, &ps.DonationID, &ps.SessionID, &ps.UserID, &ps.Email,
		&ps.Amount, &ps.Currency, &ps.PaymentStatus, &ps.Status,
		&createdAt, &updatedAt); err != nil {
		return domain.PaymentSession{}, mapNotFound(err)
	}
	ps.CreatedAt = parseTime(createdAt)
	ps.UpdatedAt = parseOptionalTime(updatedAt)
	return ps, nil
}

func (r *paymentSessionsRepo) UpdatePaymentSessionStatus(
	ctx context.Context,
	sessionID, paymentStatus, status string,
	updatedAt time.Time,
) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE payment_sessions SET payment_status = ?, status = ?, updated_at = ?
		 WHERE session_id = ?`,
		paymentStatus, status, fmtTime(updatedAt), sessionID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
