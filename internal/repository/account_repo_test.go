package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
)

func accountRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "provider", "access_token", "refresh_token",
		"long_lived_token", "scopes", "expires_at", "long_lived_expires_at",
		"status", "needs_reconnect", "last_synced_at", "last_error",
		"created_at", "updated_at",
	})
}

func TestPostgresAccountRepo_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAccountRepo(mock)

	now := time.Now().UTC()
	expiry := now.Add(time.Hour)
	longExpiry := now.Add(60 * 24 * time.Hour)
	longToken := "cipher-long"

	account := social.SocialAccount{
		ID:                 101,
		UserID:             42,
		Provider:           social.ProviderInstagram,
		AccessToken:        "cipher-access",
		LongLivedToken:     &longToken,
		Scopes:             []string{"instagram_business_basic"},
		ExpiresAt:          &expiry,
		LongLivedExpiresAt: &longExpiry,
		Status:             social.StatusConnected,
		NeedsReconnect:     false,
		LastSyncedAt:       now,
	}

	mock.ExpectQuery(`INSERT INTO social_accounts`).
		WithArgs(
			int64(101), int64(42), "instagram", "cipher-access", (*string)(nil),
			&longToken, []string{"instagram_business_basic"}, &expiry, &longExpiry,
			"connected", false, now, (*string)(nil),
		).
		WillReturnRows(accountRows().AddRow(
			int64(101), int64(42), "instagram", "cipher-access", nil,
			&longToken, []string{"instagram_business_basic"}, &expiry, &longExpiry,
			"connected", false, now, nil, now, now,
		))

	saved, err := repo.Upsert(context.Background(), account)
	require.NoError(t, err)
	require.Equal(t, int64(101), saved.ID)
	require.Equal(t, social.ProviderInstagram, saved.Provider)
	require.Equal(t, social.StatusConnected, saved.Status)
	require.Nil(t, saved.RefreshToken)
	require.NotNil(t, saved.LongLivedToken)
	require.Equal(t, "cipher-long", *saved.LongLivedToken)
	require.NotNil(t, saved.ExpiresAt)
	require.Equal(t, expiry, *saved.ExpiresAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountRepo_Upsert_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAccountRepo(mock)

	mock.ExpectQuery(`INSERT INTO social_accounts`).
		WillReturnError(errors.New("connection reset"))

	_, err = repo.Upsert(context.Background(), social.SocialAccount{ID: 1, UserID: 2, Provider: social.ProviderFacebook})
	require.Error(t, err)
	require.Contains(t, err.Error(), "upsert account")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAccountRepo(mock)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM social_accounts\s+WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(accountRows().AddRow(
			int64(1), int64(42), "facebook", "cipher", nil,
			nil, []string{"pages_manage_posts"}, nil, nil,
			"connected", false, now, nil, now, now,
		))

	accounts, err := repo.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, social.ProviderFacebook, accounts[0].Provider)
	require.Nil(t, accounts[0].ExpiresAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountRepo_ListExpiring(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAccountRepo(mock)

	now := time.Now().UTC()
	cutoff := now.Add(7 * 24 * time.Hour)
	soon := now.Add(2 * 24 * time.Hour)

	mock.ExpectQuery(`WHERE expires_at IS NOT NULL AND expires_at <= \$1 AND needs_reconnect = FALSE`).
		WithArgs(cutoff).
		WillReturnRows(accountRows().
			AddRow(int64(1), int64(7), "instagram", "cipher-a", nil, nil, []string{"s"}, &soon, nil, "connected", false, now, nil, now, now).
			AddRow(int64(2), int64(8), "threads", "cipher-b", nil, nil, []string{"s"}, &soon, nil, "connected", false, now, nil, now, now))

	accounts, err := repo.ListExpiring(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, int64(1), accounts[0].ID)
	require.Equal(t, social.ProviderThreads, accounts[1].Provider)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountRepo_MarkRefreshed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAccountRepo(mock)

	now := time.Now().UTC()
	expiry := now.Add(60 * 24 * time.Hour)

	// The renewed credential lands in both token slots.
	mock.ExpectExec(`UPDATE social_accounts\s+SET access_token = \$2,\s+long_lived_token = \$2`).
		WithArgs(int64(7), "cipher-new", &expiry, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkRefreshed(context.Background(), 7, "cipher-new", &expiry, now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAccountRepo_MarkReconnectRequired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresAccountRepo(mock)

	mock.ExpectExec(`SET status = 'reconnect_required'`).
		WithArgs(int64(9), "expired upstream").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkReconnectRequired(context.Background(), 9, "expired upstream"))
	require.NoError(t, mock.ExpectationsWereMet())
}
