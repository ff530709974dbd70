package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const probeAccountsSQL = `SELECT 1 FROM social_accounts LIMIT 1`

// EnsureSchema fails startup when the social_accounts table is missing, so a
// deployment that skipped migrations never serves connect traffic.
func EnsureSchema(lc fx.Lifecycle, pool *pgxpool.Pool, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureSchema(ctx, pool, logger)
		},
	})
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	var one int
	err := pool.QueryRow(ctx, probeAccountsSQL).Scan(&one)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("probe social_accounts: %w", err)
	}
	if logger != nil {
		logger.Info("database schema verified")
	}
	return nil
}
