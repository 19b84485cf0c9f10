package exchange

import "time"

const (
	// DefaultMinTrustScore gates cross-group transfers once the pair has a
	// recorded trust history. Overridable via MIN_TRUST_SCORE.
	DefaultMinTrustScore = 20

	minTrustScoreEnv = "MIN_TRUST_SCORE"

	dailyLimitWindow = 24 * time.Hour
)
