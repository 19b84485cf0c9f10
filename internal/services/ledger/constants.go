package ledger

import "time"

const (
	// maxSettleAttempts bounds retries when concurrent settlements collide
	// on the same wallets.
	maxSettleAttempts = 3

	retryBaseDelay = 25 * time.Millisecond
)

// Postgres error codes treated as transient contention: serialization
// failure and deadlock detected.
var retryableSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
}
