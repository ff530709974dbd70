package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
)

// PostgresAccountRepo implements AccountRepository with raw SQL over pgx.
type PostgresAccountRepo struct {
	db DB
}

var _ AccountRepository = (*PostgresAccountRepo)(nil)

func NewPostgresAccountRepo(db DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `id, user_id, provider, access_token, refresh_token, long_lived_token, scopes, expires_at, long_lived_expires_at, status, needs_reconnect, last_synced_at, last_error, created_at, updated_at`

const upsertAccountSQL = `INSERT INTO social_accounts (id, user_id, provider, access_token, refresh_token, long_lived_token, scopes, expires_at, long_lived_expires_at, status, needs_reconnect, last_synced_at, last_error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (user_id, provider) DO UPDATE SET
	access_token = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	long_lived_token = EXCLUDED.long_lived_token,
	scopes = EXCLUDED.scopes,
	expires_at = EXCLUDED.expires_at,
	long_lived_expires_at = EXCLUDED.long_lived_expires_at,
	status = EXCLUDED.status,
	needs_reconnect = EXCLUDED.needs_reconnect,
	last_synced_at = EXCLUDED.last_synced_at,
	last_error = EXCLUDED.last_error,
	updated_at = now()
RETURNING ` + accountColumns

// Upsert writes the full credential set for one (user, provider) pair.
// A conflict keeps the original row id, so repeat connects overwrite in
// place and never duplicate.
func (r *PostgresAccountRepo) Upsert(ctx context.Context, account social.SocialAccount) (social.SocialAccount, error) {
	row := r.db.QueryRow(ctx, upsertAccountSQL,
		account.ID,
		account.UserID,
		string(account.Provider),
		account.AccessToken,
		account.RefreshToken,
		account.LongLivedToken,
		account.Scopes,
		account.ExpiresAt,
		account.LongLivedExpiresAt,
		string(account.Status),
		account.NeedsReconnect,
		account.LastSyncedAt,
		account.LastError,
	)
	saved, err := scanAccount(row)
	if err != nil {
		return social.SocialAccount{}, fmt.Errorf("upsert account: %w", err)
	}
	return saved, nil
}

const listByUserSQL = `SELECT ` + accountColumns + `
FROM social_accounts
WHERE user_id = $1
ORDER BY provider`

func (r *PostgresAccountRepo) ListByUser(ctx context.Context, userID int64) ([]social.SocialAccount, error) {
	rows, err := r.db.Query(ctx, listByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

const listExpiringSQL = `SELECT ` + accountColumns + `
FROM social_accounts
WHERE expires_at IS NOT NULL AND expires_at <= $1 AND needs_reconnect = FALSE
ORDER BY expires_at`

// ListExpiring returns refresh candidates: accounts whose access token
// expires before the cutoff, excluding those already flagged for manual
// reconnection.
func (r *PostgresAccountRepo) ListExpiring(ctx context.Context, cutoff time.Time) ([]social.SocialAccount, error) {
	rows, err := r.db.Query(ctx, listExpiringSQL, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expiring accounts: %w", err)
	}
	defer rows.Close()

	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, fmt.Errorf("list expiring accounts: %w", err)
	}
	return accounts, nil
}

const markRefreshedSQL = `UPDATE social_accounts
SET access_token = $2,
	long_lived_token = $2,
	expires_at = $3,
	long_lived_expires_at = $3,
	status = 'connected',
	needs_reconnect = FALSE,
	last_synced_at = $4,
	last_error = NULL,
	updated_at = now()
WHERE id = $1`

// MarkRefreshed converges the renewed credential into both token slots and
// clears any recorded failure.
func (r *PostgresAccountRepo) MarkRefreshed(ctx context.Context, id int64, cipherToken string, expiresAt *time.Time, syncedAt time.Time) error {
	if _, err := r.db.Exec(ctx, markRefreshedSQL, id, cipherToken, expiresAt, syncedAt); err != nil {
		return fmt.Errorf("mark refreshed: %w", err)
	}
	return nil
}

const markReconnectSQL = `UPDATE social_accounts
SET status = 'reconnect_required',
	needs_reconnect = TRUE,
	last_error = $2,
	updated_at = now()
WHERE id = $1`

// MarkReconnectRequired flags the account for manual re-authorization while
// leaving the stored tokens untouched.
func (r *PostgresAccountRepo) MarkReconnectRequired(ctx context.Context, id int64, cause string) error {
	if _, err := r.db.Exec(ctx, markReconnectSQL, id, cause); err != nil {
		return fmt.Errorf("mark reconnect required: %w", err)
	}
	return nil
}

func collectAccounts(rows pgx.Rows) ([]social.SocialAccount, error) {
	var accounts []social.SocialAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (social.SocialAccount, error) {
	var (
		acc      social.SocialAccount
		provider string
		status   string
	)
	if err := row.Scan(
		&acc.ID,
		&acc.UserID,
		&provider,
		&acc.AccessToken,
		&acc.RefreshToken,
		&acc.LongLivedToken,
		&acc.Scopes,
		&acc.ExpiresAt,
		&acc.LongLivedExpiresAt,
		&status,
		&acc.NeedsReconnect,
		&acc.LastSyncedAt,
		&acc.LastError,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		return social.SocialAccount{}, err
	}
	acc.Provider = social.Provider(provider)
	acc.Status = social.AccountStatus(status)
	return acc, nil
}
