package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

var _ port.UsersStorage = UsersRepository{}

type UsersRepository struct {
	sqldb sqldb
}

func NewUsersRepository(sqldb sqldb) UsersRepository {
	return UsersRepository{sqldb}
}

const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.profile, u.subscription,
	u.is_affiliate, u.referral_code, u.referred_by, u.referrals,
	u.total_earnings, u.pending_payouts, u.settings, u.is_email_verified,
	u.last_login, u.created_at, u.updated_at,
	COALESCE(
		(SELECT json_agg(s.id ORDER BY s.created_at) FROM stores s WHERE s.owner_id = u.id),
		'[]'
	)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u            domain.User
		referralCode sql.NullString
		referredBy   sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		asJSON(&u.Profile), asJSON(&u.Subscription),
		&u.Affiliate.IsAffiliate, &referralCode, &referredBy,
		asJSON(&u.Affiliate.Referrals),
		&u.Affiliate.TotalEarnings, &u.Affiliate.PendingPayouts,
		asJSON(&u.Settings), &u.IsEmailVerified,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
		asJSON(&u.Stores),
	)
	u.Affiliate.ReferralCode = referralCode.String
	u.Affiliate.ReferredBy = referredBy.String
	return u, err
}

func (r UsersRepository) CreateUser(ctx context.Context, u domain.User) error {
	const op = "UsersRepository.CreateUser"

	query := `
		INSERT INTO users (
			id, username, email, password_hash, profile, subscription, plan,
			is_affiliate, referral_code, referred_by, referrals,
			total_earnings, pending_payouts, settings, is_email_verified,
			last_login, created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18
		);`

	_, err := r.sqldb.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash,
		asJSON(u.Profile), asJSON(u.Subscription), u.Subscription.Plan,
		u.Affiliate.IsAffiliate, nullString(u.Affiliate.ReferralCode),
		nullString(u.Affiliate.ReferredBy), asJSON(referralsOrEmpty(u)),
		u.Affiliate.TotalEarnings, u.Affiliate.PendingPayouts,
		asJSON(u.Settings), u.IsEmailVerified,
		u.LastLogin, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return nil
}

func referralsOrEmpty(u domain.User) []domain.Referral {
	if u.Affiliate.Referrals == nil {
		return []domain.Referral{}
	}
	return u.Affiliate.Referrals
}

func (r UsersRepository) readUserBy(
	ctx context.Context, op, column, value string,
) (domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users u WHERE u.` + column + ` = $1;`
	u, err := scanUser(r.sqldb.QueryRowContext(ctx, query, value))
	if err != nil {
		return domain.User{}, mapErr(op, err)
	}
	return u, nil
}

func (r UsersRepository) ReadUser(
	ctx context.Context, id string,
) (domain.User, error) {
	return r.readUserBy(ctx, "UsersRepository.ReadUser", "id", id)
}

func (r UsersRepository) ReadUserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	return r.readUserBy(ctx, "UsersRepository.ReadUserByEmail", "email", email)
}

func (r UsersRepository) ReadUserByReferralCode(
	ctx context.Context, code string,
) (domain.User, error) {
	return r.readUserBy(
		ctx, "UsersRepository.ReadUserByReferralCode", "referral_code", code,
	)
}

// UpdateUser writes every field except the affiliate balances and the
// referral list, which only change through atomic updates.
func (r UsersRepository) UpdateUser(ctx context.Context, u domain.User) error {
	const op = "UsersRepository.UpdateUser"

	query := `
		UPDATE users SET
			username = $2, email = $3, password_hash = $4, profile = $5,
			subscription = $6, plan = $7, is_affiliate = $8, referral_code = $9,
			settings = $10, is_email_verified = $11, last_login = $12,
			updated_at = $13
		WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, asJSON(u.Profile),
		asJSON(u.Subscription), u.Subscription.Plan, u.Affiliate.IsAffiliate,
		nullString(u.Affiliate.ReferralCode), asJSON(u.Settings),
		u.IsEmailVerified, u.LastLogin, u.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return expectAffected(op, res)
}

func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user. Stores and products cascade.
func (r UsersRepository) DeleteUser(ctx context.Context, id string) error {
	const op = "UsersRepository.DeleteUser"
	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return mapErr(op, err)
	}
	return expectAffected(op, res)
}

func (r UsersRepository) AddReferral(
	ctx context.Context, referrerID string, ref domain.Referral,
) error {
	const op = "UsersRepository.AddReferral"
	query := `
		UPDATE users SET referrals = referrals || $2::jsonb, updated_at = NOW()
		WHERE id = $1;`
	res, err := r.sqldb.ExecContext(
		ctx, query, referrerID, asJSON([]domain.Referral{ref}),
	)
	if err != nil {
		return mapErr(op, err)
	}
	return expectAffected(op, res)
}

func (r UsersRepository) ReadPlans(
	ctx context.Context, ids []string,
) (map[string]domain.Plan, error) {
	const op = "UsersRepository.ReadPlans"

	plans := make(map[string]domain.Plan, len(ids))
	if len(ids) == 0 {
		return plans, nil
	}

	rows, err := r.sqldb.QueryContext(
		ctx, `SELECT id, plan FROM users WHERE id = ANY($1);`, ids,
	)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			plan domain.Plan
		)
		if err := rows.Scan(&id, &plan); err != nil {
			return nil, mapErr(op, err)
		}
		plans[id] = plan
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return plans, nil
}

func (r UsersRepository) ListReferredUsers(
	ctx context.Context, f domain.ReferralFilter,
) ([]domain.User, int, error) {
	const op = "UsersRepository.ListReferredUsers"

	var a args
	where := `u.referred_by = ` + a.add(f.ReferrerID)
	if f.Converted != nil {
		if *f.Converted {
			where += ` AND u.plan <> 'free'`
		} else {
			where += ` AND u.plan = 'free'`
		}
	}

	var total int
	err := r.sqldb.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM users u WHERE `+where+`;`, a...,
	).Scan(&total)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}

	query := `SELECT` + userColumns + ` FROM users u WHERE ` + where +
		` ORDER BY u.created_at DESC LIMIT ` + a.add(f.Limit) +
		` OFFSET ` + a.add(f.Offset()) + `;`

	rows, err := r.sqldb.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapErr(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr(op, err)
	}
	return users, total, nil
}

func (r UsersRepository) ReferralStats(
	ctx context.Context, referrerID string, since time.Time,
) ([]domain.ReferralDay, error) {
	const op = "UsersRepository.ReferralStats"

	query := `
		SELECT
			to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day,
			COUNT(*),
			COUNT(*) FILTER (WHERE plan <> 'free')
		FROM users
		WHERE referred_by = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day;`

	rows, err := r.sqldb.QueryContext(ctx, query, referrerID, since)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var days []domain.ReferralDay
	for rows.Next() {
		var d domain.ReferralDay
		if err := rows.Scan(&d.Day, &d.Referrals, &d.Conversions); err != nil {
			return nil, mapErr(op, err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(op, err)
	}
	return days, nil
}

func (r UsersRepository) RequestPayout(
	ctx context.Context, p domain.Payout,
) error {
	const op = "UsersRepository.RequestPayout"

	return withTx(ctx, r.sqldb, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE users
			SET pending_payouts = pending_payouts - $2, updated_at = NOW()
			WHERE id = $1 AND is_affiliate AND pending_payouts >= $2;`,
			p.UserID, p.Amount,
		)
		if err != nil {
			return mapErr(op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n == 0 {
			return fmt.Errorf(
				"%s: %w", op,
				domain.Invalid("requested amount exceeds available balance"),
			)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO payouts (
				id, user_id, amount, method, details, status, requested_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			p.ID, p.UserID, p.Amount, p.Method, asJSON(detailsOrEmpty(p.Details)),
			p.Status, p.RequestedAt,
		)
		if err != nil {
			return mapErr(op, err)
		}
		return nil
	})
}

func detailsOrEmpty(d map[string]any) map[string]any {
	if d == nil {
		return map[string]any{}
	}
	return d
}
