/*
store.go - Snapshot persistence contract

PURPOSE:
  Defines the interface between the engine and durable storage. The
  ledger is three collections, each loaded and persisted as a complete
  snapshot:

    active:   unredeemed vouchers, insertion-ordered (may be logically
              expired; expiry never moves a record)
    redeemed: redeemed vouchers, redemption-ordered, append-only in
              practice
    counts:   recipient -> lifetime redemption count

ATOMICITY:
  Every Save must be atomic from the caller's perspective: the next Load
  observes either the whole new snapshot or the whole previous one,
  never a partial write.

CORRUPTION POLICY:
  A corrupt or unparseable persisted collection loads as an empty
  collection rather than failing startup. Implementations must log this
  loudly; the file store also sets the corrupt file aside so the data
  stays recoverable.

IMPLEMENTATIONS:
  - store/file:     JSON snapshot files (default)
  - store/sqlite:   SQLite, full-snapshot replace per Save
  - voucher/store:  in-memory, for tests

SEE ALSO:
  - engine.go: persist ordering on redemption (counts, redeemed, active)
*/
package voucher

import "context"

// Store persists the three ledger collections as whole snapshots.
type Store interface {
	// LoadActive returns the active partition in insertion order.
	// Missing or corrupt state loads as empty, never as an error.
	LoadActive(ctx context.Context) ([]Voucher, error)

	// LoadRedeemed returns the redeemed partition in redemption order.
	LoadRedeemed(ctx context.Context) ([]Voucher, error)

	// LoadCounts returns the per-recipient lifetime redemption counters.
	LoadCounts(ctx context.Context) (map[string]int, error)

	// SaveActive atomically replaces the active snapshot.
	SaveActive(ctx context.Context, active []Voucher) error

	// SaveRedeemed atomically replaces the redeemed snapshot.
	SaveRedeemed(ctx context.Context, redeemed []Voucher) error

	// SaveCounts atomically replaces the counter snapshot.
	SaveCounts(ctx context.Context, counts map[string]int) error
}
