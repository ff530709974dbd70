// Package refresh renews expiring provider tokens ahead of their deadline.
package refresh

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/potensiadev/onesns.ai-sub001/internal/adapter/lock"
	"github.com/potensiadev/onesns.ai-sub001/internal/adapter/meta"
	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
	"github.com/potensiadev/onesns.ai-sub001/internal/metrics"
	"github.com/potensiadev/onesns.ai-sub001/internal/provider"
	"github.com/potensiadev/onesns.ai-sub001/internal/repository"
	"github.com/potensiadev/onesns.ai-sub001/internal/secrets"
)

const (
	// sweepLockKey serializes sweeps across processes.
	sweepLockKey = "connect:refresh-sweep"
	// lockTTL caps how long a crashed sweeper can block its successors.
	lockTTL = 10 * time.Minute
)

// Outcome statuses reported per examined account. A failed outcome means
// the account was flagged for reconnect; the stored tokens stay untouched.
const (
	OutcomeRefreshed = "refreshed"
	OutcomeFailed    = "failed"
)

// Outcome records what happened to one account during a sweep.
type Outcome struct {
	AccountID int64           `json:"id"`
	Provider  social.Provider `json:"provider"`
	Status    string          `json:"status"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Report summarizes a sweep run. Skipped reports mean another holder owned
// the sweep lock and no accounts were examined.
type Report struct {
	Skipped   bool
	StartedAt time.Time
	Examined  int
	Refreshed int
	Failed    int
	Results   []Outcome
}

// Sweeper walks accounts whose tokens expire inside the window and renews
// each one. A single account's failure never aborts the rest of the batch;
// the failed account is flagged for reconnect with its tokens untouched.
type Sweeper struct {
	accounts    repository.AccountRepository
	client      meta.Client
	registry    *provider.Registry
	codec       secrets.Codec
	locker      lock.Locker
	logger      *zap.Logger
	window      time.Duration
	concurrency int
}

// NewSweeper wires the sweeper.
func NewSweeper(
	accounts repository.AccountRepository,
	client meta.Client,
	registry *provider.Registry,
	codec secrets.Codec,
	locker lock.Locker,
	window time.Duration,
	concurrency int,
	logger *zap.Logger,
) *Sweeper {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sweeper{
		accounts:    accounts,
		client:      client,
		registry:    registry,
		codec:       codec,
		locker:      locker,
		logger:      logger,
		window:      window,
		concurrency: concurrency,
	}
}

// Run executes one sweep. A concurrent trigger observes a skipped report
// instead of racing the holder of the lock.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	start := time.Now().UTC()

	acquired, err := s.locker.TryLock(ctx, sweepLockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !acquired {
		metrics.SweepRuns.WithLabelValues("skipped").Inc()
		s.log().Info("refresh sweep already running elsewhere, skipping")
		return &Report{Skipped: true, StartedAt: start}, nil
	}
	defer func() {
		if err := s.locker.Unlock(ctx, sweepLockKey); err != nil {
			s.log().Warn("failed to release sweep lock", zap.Error(err))
		}
	}()

	cutoff := start.Add(s.window)
	accounts, err := s.accounts.ListExpiring(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expiring accounts: %w", err)
	}

	results := make([]Outcome, len(accounts))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			results[i] = s.refreshOne(ctx, account)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{StartedAt: start, Examined: len(accounts), Results: results}
	for _, r := range results {
		if r.Status == OutcomeRefreshed {
			report.Refreshed++
		} else {
			report.Failed++
		}
	}

	metrics.SweepRuns.WithLabelValues("completed").Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	s.log().Info("refresh sweep completed",
		zap.Int("examined", report.Examined),
		zap.Int("refreshed", report.Refreshed),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return report, nil
}

func (s *Sweeper) refreshOne(ctx context.Context, account social.SocialAccount) Outcome {
	outcome, err := s.renew(ctx, account)
	if err == nil {
		metrics.TokenRefreshes.WithLabelValues(account.Provider.String(), OutcomeRefreshed).Inc()
		return outcome
	}

	metrics.TokenRefreshes.WithLabelValues(account.Provider.String(), OutcomeFailed).Inc()
	cause := err.Error()
	if markErr := s.accounts.MarkReconnectRequired(ctx, account.ID, cause); markErr != nil {
		s.log().Error("failed to flag account for reconnect",
			zap.Int64("account_id", account.ID),
			zap.Error(markErr),
		)
	}
	s.log().Warn("token refresh failed",
		zap.Int64("account_id", account.ID),
		zap.String("provider", account.Provider.String()),
		zap.Error(err),
	)
	return Outcome{
		AccountID: account.ID,
		Provider:  account.Provider,
		Status:    OutcomeFailed,
		Error:     cause,
	}
}

// renew performs one refresh round-trip. Instagram tokens go through the
// dedicated refresh endpoint; Facebook and Threads tokens are re-extended
// through the token endpoint. The renewed credential replaces both stored
// token slots via MarkRefreshed.
func (s *Sweeper) renew(ctx context.Context, account social.SocialAccount) (Outcome, error) {
	app, err := s.registry.App(account.Provider)
	if err != nil {
		return Outcome{}, err
	}

	cipher := account.AccessToken
	if account.LongLivedToken != nil && *account.LongLivedToken != "" {
		cipher = *account.LongLivedToken
	}
	current, err := s.codec.Decrypt(ctx, cipher)
	if err != nil {
		return Outcome{}, fmt.Errorf("decrypt stored token: %w", err)
	}

	var token *social.ProviderToken
	if account.Provider == social.ProviderInstagram {
		token, err = s.client.RefreshLongLived(ctx, account.Provider, app, current)
	} else {
		token, err = s.client.ExtendToken(ctx, account.Provider, app, current)
	}
	if err != nil {
		return Outcome{}, err
	}

	now := time.Now().UTC()
	expiresAt := social.ExpiryFrom(now, token.ExpiresIn)
	renewed, err := s.codec.Encrypt(ctx, token.AccessToken)
	if err != nil {
		return Outcome{}, fmt.Errorf("encrypt renewed token: %w", err)
	}
	if err := s.accounts.MarkRefreshed(ctx, account.ID, renewed, expiresAt, now); err != nil {
		return Outcome{}, fmt.Errorf("persist renewed token: %w", err)
	}
	return Outcome{
		AccountID: account.ID,
		Provider:  account.Provider,
		Status:    OutcomeRefreshed,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Sweeper) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
