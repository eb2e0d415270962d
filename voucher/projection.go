/*
projection.go - Read-only reporting over the ledger

PURPOSE:
  Derives aggregate statistics from the ledger without mutating it:
  totals by status, a per-recipient breakdown, a rolling 24-hour
  redemption count, and the full redemption history. All projections run
  under the read lock and are safe to call concurrently with any other
  operation.

NOTE ON "EXPIRED":
  Expired is a computed view over the active partition, not a stored
  state. TotalActive counts only redeemable vouchers; the partition size
  is TotalActive + TotalExpired.
*/
package voucher

import (
	"context"
	"slices"
	"sort"
	"time"
)

// recentWindow is the rolling window for the recent-activity count.
const recentWindow = 24 * time.Hour

// =============================================================================
// STATS
// =============================================================================

// RecipientStats is the per-recipient breakdown, derived with the same
// expiry check as redemption.
type RecipientStats struct {
	Active   int
	Expired  int
	Redeemed int
}

func (s RecipientStats) Total() int { return s.Active + s.Expired + s.Redeemed }

// Stats is the system-wide aggregate view.
type Stats struct {
	TotalActive     int // redeemable vouchers in the active partition
	TotalExpired    int // past-expiry vouchers still in the active partition
	TotalRedeemed   int // size of the redeemed partition
	Recipients      map[string]RecipientStats
	RedeemedLast24h int
}

// Stats computes the aggregate projection as of now. No mutation.
func (e *Engine) Stats(ctx context.Context) Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.now()
	today := DateOf(now)
	stats := Stats{Recipients: make(map[string]RecipientStats)}

	for _, v := range e.active {
		rs := stats.Recipients[v.Recipient]
		if v.ExpiredOn(today) {
			stats.TotalExpired++
			rs.Expired++
		} else {
			stats.TotalActive++
			rs.Active++
		}
		stats.Recipients[v.Recipient] = rs
	}
	for _, v := range e.redeemed {
		stats.TotalRedeemed++
		rs := stats.Recipients[v.Recipient]
		rs.Redeemed++
		stats.Recipients[v.Recipient] = rs
		if now.Sub(v.RedeemedAt) < recentWindow {
			stats.RedeemedLast24h++
		}
	}
	return stats
}

// RecipientNames returns the recipients appearing in stats, sorted for
// stable rendering.
func (s Stats) RecipientNames() []string {
	names := make([]string, 0, len(s.Recipients))
	for name := range s.Recipients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// HISTORY
// =============================================================================

// History returns every redeemed voucher in redemption order. The slice
// is a copy; the append-only partition itself is never exposed.
func (e *Engine) History(ctx context.Context) []Voucher {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.redeemed)
}
