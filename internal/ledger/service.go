package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrInvalidInput is returned for malformed caller input.
var ErrInvalidInput = errors.New("invalid input")

const (
	// DefaultBatchSize bounds the number of account names per query.
	DefaultBatchSize = 500

	hivePerMVestsKey = "hive_per_mvests"
	hivePerMVestsTTL = 24 * time.Hour
)

// Service answers ledger questions. Store failures degrade to empty results
// and are logged; malformed input fails with ErrInvalidInput.
type Service struct {
	store     Store
	batchSize int
	cache     *cache.Cache
}

// NewService creates a ledger service. It panics on a nil store.
func NewService(store Store, batchSize int) *Service {
	if store == nil {
		panic("ledger: store must not be nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		store:     store,
		batchSize: batchSize,
		cache:     cache.New(hivePerMVestsTTL, time.Hour),
	}
}

// HivePerMVests returns HIVE per million vesting shares, cached for a day.
// It returns 0 when the global properties are unavailable.
func (s *Service) HivePerMVests(ctx context.Context) float64 {
	if v, ok := s.cache.Get(hivePerMVestsKey); ok {
		return v.(float64)
	}

	props, err := s.store.GlobalProperties(ctx)
	if err != nil {
		slog.Error("global properties unavailable", "error", err)
		return 0
	}
	if props.TotalVestingShares == 0 {
		slog.Warn("total vesting shares is zero")
	}
	value := props.HivePerMVests()
	s.cache.SetDefault(hivePerMVestsKey, value)
	return value
}

// Accounts returns balances and derived staking figures for names, querying
// in batches. A blank name is a caller error.
func (s *Service) Accounts(ctx context.Context, names []string) ([]Account, error) {
	if len(names) == 0 {
		slog.Warn("no account names provided")
		return nil, nil
	}
	if slices.ContainsFunc(names, func(n string) bool { return strings.TrimSpace(n) == "" }) {
		return nil, fmt.Errorf("%w: blank account name", ErrInvalidInput)
	}

	hivePerMVests := s.HivePerMVests(ctx)

	var accounts []Account
	for batch := range slices.Chunk(names, s.batchSize) {
		rows, err := s.store.Accounts(ctx, batch)
		if err != nil {
			slog.Error("account batch failed", "batch_size", len(batch), "first", batch[0], "error", err)
			continue
		}
		accounts = append(accounts, rows...)
	}

	for i := range accounts {
		accounts[i].derive(hivePerMVests)
	}
	return accounts, nil
}

// FilterAccounts finds accounts within f's bounds that commented more than
// f.MinComments times in the last f.Months months.
func (s *Service) FilterAccounts(ctx context.Context, f AccountFilter) ([]Account, error) {
	if f.Months <= 0 {
		return nil, fmt.Errorf("%w: months must be positive", ErrInvalidInput)
	}

	hivePerMVests := s.HivePerMVests(ctx)
	factor := hivePerMVests / 1e6
	if factor == 0 {
		slog.Warn("cannot convert HP bounds without a vesting factor")
		return nil, nil
	}

	raw := RawAccountFilter{
		VestsMin:          f.HPMin / factor,
		VestsMax:          f.HPMax / factor,
		ReputationMin:     ScoreToReputation(f.ReputationMin),
		ReputationMax:     ScoreToReputation(f.ReputationMax),
		PostingRewardsMin: f.PostingRewardsMin,
		PostingRewardsMax: f.PostingRewardsMax,
		Months:            f.Months,
		MinComments:       f.MinComments,
	}
	accounts, err := s.store.FilterAccounts(ctx, raw)
	if err != nil {
		slog.Error("account filter failed", "error", err)
		return nil, nil
	}
	for i := range accounts {
		accounts[i].derive(hivePerMVests)
	}
	return accounts, nil
}

// TopPostingRewards returns the n accounts with the most author rewards above minimum.
func (s *Service) TopPostingRewards(ctx context.Context, n int, minimum float64) ([]PostingReward, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", ErrInvalidInput)
	}
	rows, err := s.store.TopPostingRewards(ctx, n, minimum)
	if err != nil {
		slog.Error("top posting rewards failed", "error", err)
		return nil, nil
	}
	return rows, nil
}

// ActiveUsers returns accounts with more than minComments comments in the
// last months months and author rewards above minPostingRewards.
func (s *Service) ActiveUsers(ctx context.Context, minPostingRewards float64, minComments, months int) ([]ActiveUser, error) {
	if months <= 0 {
		return nil, fmt.Errorf("%w: months must be positive", ErrInvalidInput)
	}
	rows, err := s.store.ActiveUsers(ctx, minPostingRewards, minComments, months)
	if err != nil {
		slog.Error("active users query failed", "error", err)
		return nil, nil
	}
	return rows, nil
}

// Commentators returns the distinct authors of top-level replies to permlinks.
func (s *Service) Commentators(ctx context.Context, permlinks []string) []string {
	if len(permlinks) == 0 {
		return nil
	}
	authors, err := s.store.Commentators(ctx, permlinks)
	if err != nil {
		slog.Error("commentators query failed", "error", err)
		return nil
	}
	return authors
}

// BalanceHistory returns balance changes for accounts, newest first.
func (s *Service) BalanceHistory(ctx context.Context, accounts []string) []map[string]any {
	if len(accounts) == 0 {
		slog.Warn("no account names provided for balance history")
		return nil
	}
	slog.Info("fetching balance history", "accounts", accounts)
	history, err := s.store.BalanceHistory(ctx, accounts)
	if err != nil {
		slog.Error("balance history query failed", "error", err)
		return nil
	}
	return history
}
