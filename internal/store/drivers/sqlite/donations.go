package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store"
)

type donationsRepo struct {
	q queryable
}

const donationColumns = `id, user_id, amount, currency, session_id, status, created_at, updated_at`

func (r *donationsRepo) CreateDonation(ctx context.Context, d domain.Donation) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO donations (id, user_id, amount, currency, session_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Amount, d.Currency,
		mapOptionalString(d.SessionID), string(d.Status),
		fmtTime(d.CreatedAt), fmtOptionalTime(d.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *donationsRepo) GetDonationByID(ctx context.Context, id string) (domain.Donation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE id = ?`, id)
	return scanDonation(row)
}

func (r *donationsRepo) GetDonationBySessionID(ctx context.Context, sessionID string) (domain.Donation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE session_id = ?`, sessionID)
	return scanDonation(row)
}

func (r *donationsRepo) SetDonationSessionID(ctx context.Context, donationID, sessionID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE donations SET session_id = ? WHERE id = ?`, sessionID, donationID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *donationsRepo) UpdateDonationStatus(
	ctx context.Context,
	donationID string,
	status domain.DonationStatus,
	updatedAt time.Time,
) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE donations SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), fmtTime(updatedAt), donationID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *donationsRepo) ListDonationsByUser(ctx context.Context, userID string) ([]domain.Donation, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

func (r *donationsRepo) ListRecentDonations(ctx context.Context, limit int) ([]store.DonationWithDonor, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT d.id, d.user_id, d.amount, d.currency, d.session_id, d.status,
		        d.created_at, d.updated_at, u.name, u.email
		 FROM donations d
		 JOIN users u ON u.id = d.user_id
		 ORDER BY d.created_at DESC, d.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.DonationWithDonor
	for rows.Next() {
		var (
			d                    domain.Donation
			status               string
			sessionID, updatedAt sql.NullString
			createdAt            string
			name, email          string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Amount, &d.Currency, &sessionID,
			&status, &createdAt, &updatedAt, &name, &email); err != nil {
			return nil, err
		}
		d.SessionID = mapNullStringPtr(sessionID)
		d.Status = domain.DonationStatus(status)
		d.CreatedAt = parseTime(createdAt)
		d.UpdatedAt = parseOptionalTime(updatedAt)
		out = append(out, store.DonationWithDonor{Donation: d, UserName: name, UserEmail: email})
	}
	return out, rows.Err()
}

func (r *donationsRepo) CountDonations(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM donations`).Scan(&count)
	return count, err
}

func (r *donationsRepo) SumSucceededAmount(ctx context.Context) (float64, error) {
	var total float64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM donations WHERE status = ?`,
		string(domain.DonationSuccess)).Scan(&total)
	return total, err
}

func (r *donationsRepo) SumSucceededAmountByUser(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM donations WHERE user_id = ? AND status = ?`,
		userID, string(domain.DonationSuccess)).Scan(&total)
	return total, err
}

func scanDonation(s rowScanner) (domain.Donation, error) {
	var (
		d                    domain.Donation
		status               string
		sessionID, updatedAt sql.NullString
		createdAt            string
	)
	if err := s.Scan(&d.ID, &d.UserID, &d.Amount, &d.Currency, &sessionID,
		&status, &createdAt, &updatedAt); err != nil {
		return domain.Donation{}, mapNotFound(err)
	}
	d.SessionID = mapNullStringPtr(sessionID)
	d.Status = domain.DonationStatus(status)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseOptionalTime(updatedAt)
	return d, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
