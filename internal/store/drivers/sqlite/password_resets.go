package sqlite

import (
	"context"
	"time"

	"github.com/goodbridge/givestack/internal/domain"
)

type passwordResetsRepo struct {
	q queryable
}

func (r *passwordResetsRepo) CreateOTP(ctx context.Context, otp domain.PasswordResetOTP) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO password_reset_otps (id, email, code, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		otp.ID, otp.Email, otp.Code, fmtTime(otp.ExpiresAt),
		boolToInt(otp.Used), fmtTime(otp.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *passwordResetsRepo) GetActiveOTP(ctx context.Context, email, code string) (domain.PasswordResetOTP, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, email, code, expires_at, used, created_at
		 FROM password_reset_otps
		 WHERE email = ? AND code = ? AND used = 0`, email, code)

	var (
		otp                  domain.PasswordResetOTP
		used                 int
		expiresAt, createdAt string
	)
	if err := row.Scan(&otp.ID, &otp.Email, &otp.Code, &expiresAt, &used, &createdAt); err != nil {
		return domain.PasswordResetOTP{}, mapNotFound(err)
	}
	otp.Used = used != 0
	otp.ExpiresAt = parseTime(expiresAt)
	otp.CreatedAt = parseTime(createdAt)
	return otp, nil
}

func (r *passwordResetsRepo) DeleteOTPsByEmail(ctx context.Context, email string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM password_reset_otps WHERE email = ?`, email)
	return err
}

func (r *passwordResetsRepo) MarkOTPUsed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE password_reset_otps SET used = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *passwordResetsRepo) DeleteExpiredOTPs(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM password_reset_otps WHERE expires_at < ?`, fmtTime(now))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
