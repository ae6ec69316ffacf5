package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store executes parameterized ledger queries.
type Store interface {
	GlobalProperties(ctx context.Context) (GlobalProperties, error)
	Accounts(ctx context.Context, names []string) ([]Account, error)
	FilterAccounts(ctx context.Context, f RawAccountFilter) ([]Account, error)
	TopPostingRewards(ctx context.Context, limit int, minPostingRewards float64) ([]PostingReward, error)
	ActiveUsers(ctx context.Context, minPostingRewards float64, minComments, months int) ([]ActiveUser, error)
	Commentators(ctx context.Context, permlinks []string) ([]string, error)
	BalanceHistory(ctx context.Context, accounts []string) ([]map[string]any, error)
}

// PgStore implements Store against a HAF SQL PostgreSQL database.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PostgreSQL ledger store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const accountColumns = `
	a.name,
	a.created,
	a.balance,
	a.savings_balance,
	a.hbd_balance,
	a.savings_hbd_balance,
	a.reputation,
	a.vesting_shares,
	a.delegated_vesting_shares,
	a.received_vesting_shares,
	a.curation_rewards / 1000.0,
	a.posting_rewards / 1000.0`

func (s *PgStore) GlobalProperties(ctx context.Context) (GlobalProperties, error) {
	var g GlobalProperties
	err := s.pool.QueryRow(ctx,
		`SELECT total_vesting_fund_hive, total_vesting_shares
		 FROM hafsql.dynamic_global_properties
		 ORDER BY block_num DESC
		 LIMIT 1`).Scan(&g.TotalVestingFundHive, &g.TotalVestingShares)
	if err != nil {
		return GlobalProperties{}, fmt.Errorf("getting global properties: %w", err)
	}
	return g, nil
}

func (s *PgStore) Accounts(ctx context.Context, names []string) ([]Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+accountColumns+`
		 FROM hafsql.accounts a
		 WHERE a.name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows, false)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

func (s *PgStore) FilterAccounts(ctx context.Context, f RawAccountFilter) ([]Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+accountColumns+`,
			COUNT(c.permlink) AS comment_count
		 FROM hafsql.accounts a
		 JOIN hafsql.comments c ON c.author = a.name
		 WHERE a.posting_rewards > $1 AND a.posting_rewards < $2
		   AND a.vesting_shares > $3 AND a.vesting_shares < $4
		   AND a.reputation > $5 AND a.reputation < $6
		   AND c.created >= NOW() - make_interval(months => $7)
		 GROUP BY a.name, a.created, a.balance, a.savings_balance, a.hbd_balance,
			a.savings_hbd_balance, a.reputation, a.vesting_shares,
			a.delegated_vesting_shares, a.received_vesting_shares,
			a.curation_rewards, a.posting_rewards
		 HAVING COUNT(c.permlink) > $8`,
		f.PostingRewardsMin, f.PostingRewardsMax,
		f.VestsMin, f.VestsMax,
		f.ReputationMin, f.ReputationMax,
		f.Months, f.MinComments)
	if err != nil {
		return nil, fmt.Errorf("filtering accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows, true)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating filtered accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(rows pgx.Rows, withCommentCount bool) (Account, error) {
	var a Account
	dest := []any{
		&a.Name, &a.Created, &a.Hive, &a.HiveSavings, &a.HBD, &a.HBDSavings,
		&a.Reputation, &a.VestingShares, &a.DelegatedVestingShares, &a.ReceivedVestingShares,
		&a.CurationRewards, &a.PostingRewards,
	}
	if withCommentCount {
		dest = append(dest, &a.CommentCount)
	}
	if err := rows.Scan(dest...); err != nil {
		return Account{}, fmt.Errorf("scanning account: %w", err)
	}
	return a, nil
}

func (s *PgStore) TopPostingRewards(ctx context.Context, limit int, minPostingRewards float64) ([]PostingReward, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, posting_rewards
		 FROM hafsql.accounts
		 WHERE posting_rewards > $1
		 ORDER BY posting_rewards DESC
		 LIMIT $2`, minPostingRewards, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top posting rewards: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PostingReward, error) {
		var p PostingReward
		err := row.Scan(&p.Name, &p.PostingRewards)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning top posting rewards: %w", err)
	}
	return result, nil
}

func (s *PgStore) ActiveUsers(ctx context.Context, minPostingRewards float64, minComments, months int) ([]ActiveUser, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.name, a.posting_rewards, COUNT(c.permlink) AS comment_count
		 FROM hafsql.accounts a
		 JOIN hafsql.comments c ON c.author = a.name
		 WHERE a.posting_rewards > $1
		   AND c.created >= NOW() - make_interval(months => $2)
		 GROUP BY a.name, a.posting_rewards
		 HAVING COUNT(c.permlink) > $3`, minPostingRewards, months, minComments)
	if err != nil {
		return nil, fmt.Errorf("querying active users: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ActiveUser, error) {
		var u ActiveUser
		err := row.Scan(&u.Name, &u.PostingRewards, &u.CommentCount)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning active users: %w", err)
	}
	return result, nil
}

func (s *PgStore) Commentators(ctx context.Context, permlinks []string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT author
		 FROM hafsql.comments
		 WHERE parent_permlink = ANY($1) AND depth = 1`, permlinks)
	if err != nil {
		return nil, fmt.Errorf("querying commentators: %w", err)
	}
	authors, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning commentators: %w", err)
	}
	return authors, nil
}

func (s *PgStore) BalanceHistory(ctx context.Context, accounts []string) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT bh.*, hb.timestamp AS block_timestamp
		 FROM hafsql.balances_history bh
		 LEFT JOIN hafsql.haf_blocks hb ON bh.block_num = hb.block_num
		 WHERE bh.account_name = ANY($1)
		 ORDER BY bh.block_num DESC`, accounts)
	if err != nil {
		return nil, fmt.Errorf("querying balance history: %w", err)
	}
	history, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scanning balance history: %w", err)
	}
	return history, nil
}
