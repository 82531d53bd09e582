package timeoff

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// BALANCE RECONCILIATION - Stored counters vs. journal replay
// =============================================================================

// BalanceDrift is a counter whose stored value disagrees with its journal,
// or that sits outside [0, max].
type BalanceDrift struct {
	UserID   string    `json:"userId"`
	Type     LeaveType `json:"type"`
	Stored   int       `json:"stored"`
	Replayed int       `json:"replayed"`
	Max      int       `json:"max"`
	Reason   string    `json:"reason"`
}

// ReconcileBalances replays each user's journal from the most recent
// "open" entry of every type and compares the result with the stored
// counter. An empty result means the ledger is consistent.
func ReconcileBalances(ctx context.Context, s Store) ([]BalanceDrift, error) {
	balances, err := s.LoadBalances(ctx)
	if err != nil {
		return nil, err
	}

	drifts := []BalanceDrift{}
	for _, b := range balances {
		txs, err := s.Transactions(ctx, generic.EntityID(b.UserID))
		if err != nil {
			return nil, fmt.Errorf("failed to load journal for %s: %w", b.UserID, err)
		}
		replayed := replay(txs)

		for _, t := range LeaveTypes {
			stored, maxDays := b.Remaining(t), b.Max(t)
			d := BalanceDrift{UserID: b.UserID, Type: t, Stored: stored, Max: maxDays}
			switch r, ok := replayed[t.ResourceID()]; {
			case stored < 0 || stored > maxDays:
				d.Replayed = r
				d.Reason = "remaining outside [0, max]"
			case !ok:
				d.Reason = "no opening entry in journal"
			case r != stored:
				d.Replayed = r
				d.Reason = "journal replay differs from stored counter"
			default:
				continue
			}
			drifts = append(drifts, d)
		}
	}
	return drifts, nil
}

// replay sums deltas per resource, restarting at every TxOpen.
func replay(txs []generic.Transaction) map[string]int {
	out := make(map[string]int)
	for _, tx := range txs {
		if tx.Type == generic.TxOpen {
			out[tx.Resource] = tx.BalanceAfter
			continue
		}
		if _, opened := out[tx.Resource]; opened {
			out[tx.Resource] += tx.Delta
		}
	}
	return out
}
