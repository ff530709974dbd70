package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
)

// DB is the subset of pgxpool.Pool the repository depends on. Tests drive it
// with pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository persists encrypted social credentials. Rows are written
// by the exchange flow and mutated afterwards only by the refresh sweep;
// nothing here deletes.
type AccountRepository interface {
	Upsert(ctx context.Context, account social.SocialAccount) (social.SocialAccount, error)
	ListByUser(ctx context.Context, userID int64) ([]social.SocialAccount, error)
	ListExpiring(ctx context.Context, cutoff time.Time) ([]social.SocialAccount, error)
	MarkRefreshed(ctx context.Context, id int64, cipherToken string, expiresAt *time.Time, syncedAt time.Time) error
	MarkReconnectRequired(ctx context.Context, id int64, cause string) error
}
