// Package ledger queries the Hive social ledger: account balances, staking
// power, reputation and activity.
package ledger

import (
	"math"
	"time"
)

// Account is one ledger account with derived staking figures.
type Account struct {
	Name                   string    `json:"name"`
	Created                time.Time `json:"created"`
	Hive                   float64   `json:"hive"`
	HiveSavings            float64   `json:"hiveSavings"`
	HBD                    float64   `json:"hbd"`
	HBDSavings             float64   `json:"hbdSavings"`
	Reputation             float64   `json:"reputation"`
	VestingShares          float64   `json:"vestingShares"`
	DelegatedVestingShares float64   `json:"delegatedVestingShares"`
	ReceivedVestingShares  float64   `json:"receivedVestingShares"`
	CurationRewards        float64   `json:"curationRewards"`
	PostingRewards         float64   `json:"postingRewards"`
	CommentCount           int       `json:"commentCount,omitempty"`

	ReputationScore float64 `json:"reputationScore"`
	HP              float64 `json:"hp"`
	HPDelegated     float64 `json:"hpDelegated"`
	HPReceived      float64 `json:"hpReceived"`
	// KERatio is nil when HP is zero.
	KERatio *float64 `json:"keRatio"`
}

// derive fills the computed fields from raw ledger values.
func (a *Account) derive(hivePerMVests float64) {
	factor := hivePerMVests / 1e6
	a.ReputationScore = ReputationToScore(a.Reputation)
	a.HP = factor * a.VestingShares
	a.HPDelegated = factor * a.DelegatedVestingShares
	a.HPReceived = factor * a.ReceivedVestingShares
	a.KERatio = KERatio(a.CurationRewards, a.PostingRewards, a.HP)
}

// ReputationToScore converts raw reputation into the displayed score.
func ReputationToScore(reputation float64) float64 {
	if reputation <= 0 {
		return 0
	}
	return (math.Log10(reputation)-9)*9 + 25
}

// ScoreToReputation is the inverse of ReputationToScore.
func ScoreToReputation(score float64) float64 {
	if score <= 0 {
		return 0
	}
	return math.Pow(10, (score-25)/9+9)
}

// KERatio is total rewards per HP. It returns nil when hp is zero.
func KERatio(curationRewards, postingRewards, hp float64) *float64 {
	if hp == 0 {
		return nil
	}
	ratio := (curationRewards + postingRewards) / hp
	return &ratio
}

// AccountFilter bounds an account search. HP and reputation bounds are in
// display units; the service converts them to raw ledger units.
type AccountFilter struct {
	HPMin             float64
	HPMax             float64
	ReputationMin     float64
	ReputationMax     float64
	PostingRewardsMin float64
	PostingRewardsMax float64
	Months            int
	MinComments       int
}

// RawAccountFilter is AccountFilter expressed in ledger units.
type RawAccountFilter struct {
	VestsMin          float64
	VestsMax          float64
	ReputationMin     float64
	ReputationMax     float64
	PostingRewardsMin float64
	PostingRewardsMax float64
	Months            int
	MinComments       int
}

// PostingReward is an account's lifetime author rewards.
type PostingReward struct {
	Name           string  `json:"name"`
	PostingRewards float64 `json:"postingRewards"`
}

// ActiveUser is an account with recent comment activity.
type ActiveUser struct {
	Name           string  `json:"name"`
	PostingRewards float64 `json:"postingRewards"`
	CommentCount   int     `json:"commentCount"`
}

// GlobalProperties holds the chain-wide vesting totals.
type GlobalProperties struct {
	TotalVestingFundHive float64
	TotalVestingShares   float64
}

// HivePerMVests converts the totals into HIVE per million vesting shares.
func (g GlobalProperties) HivePerMVests() float64 {
	if g.TotalVestingShares == 0 {
		return 0
	}
	return g.TotalVestingFundHive / (g.TotalVestingShares / 1e6)
}
