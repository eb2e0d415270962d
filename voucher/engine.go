/*
engine.go - Voucher lifecycle engine

PURPOSE:
  The state machine governing creation, listing, deletion and the atomic
  redemption transaction. The engine owns the in-memory collections,
  loads them once at construction, and persists a snapshot before
  acknowledging any mutation.

STATE MACHINE (per voucher):
  Active -> Redeemed   terminal, via the redemption transaction
  Active -> Deleted    terminal, via explicit delete
  Active -> Expired    display-only; a pure time function, no transition

CRITICAL INVARIANTS:
  1. An id appears in at most one of active/redeemed, never both.
  2. counts[recipient] equals the number of redeemed entries for that
     recipient (checked at load, maintained incrementally after).
  3. Redeemed entries are never mutated or removed.
  4. Ids are never reused: generation retries against both partitions.
  5. A failed operation leaves both memory and the caller-visible
     snapshot exactly as they were.

CONCURRENCY:
  One RWMutex guards the whole ledger. Redemption is the only operation
  with a true race hazard (two scans of the same physical voucher);
  holding the write lock across lookup-and-move makes it exactly-once:
  the loser observes ErrNotFound. Expected load is a single operator
  session, so a global lock is the simplest correct policy.

PERSIST ORDERING ON REDEMPTION:
  counts, then redeemed, then active. If the process dies mid-sequence
  the voucher can transiently be double-counted or visible in both
  partitions, but it can never be lost.

SEE ALSO:
  - store.go:      snapshot semantics
  - projection.go: read-only reporting over the same collections
*/
package voucher

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// ENGINE
// =============================================================================

const (
	// MaxBatchSize bounds a single issue request.
	MaxBatchSize = 10

	// RecentRedeemedLimit is how many recent redemptions a recipient
	// summary includes.
	RecentRedeemedLimit = 5

	// Collision retries are astronomically unlikely to repeat; the cap
	// only guards against a broken randomness source spinning forever.
	maxGenerateAttempts = 100
)

// Engine is the voucher lifecycle engine. Construct with NewEngine.
type Engine struct {
	mu    sync.RWMutex
	store Store
	gen   *Generator
	codec Codec
	now   func() time.Time
	log   *slog.Logger

	active   []Voucher // insertion order
	redeemed []Voucher // redemption order
	counts   map[string]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGenerator overrides the code generator. Used in tests.
func WithGenerator(g *Generator) Option {
	return func(e *Engine) { e.gen = g }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine loads all three collections from the store and verifies the
// counter invariant. Persisted counters win over recomputed ones (a
// crash window can legitimately leave counters ahead of the redeemed
// partition), but any disagreement is logged.
func NewEngine(ctx context.Context, store Store, codec Codec, opts ...Option) (*Engine, error) {
	e := &Engine{
		store: store,
		gen:   NewGenerator(),
		codec: codec,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.active, err = store.LoadActive(ctx); err != nil {
		return nil, &StorageError{Op: "load active", Err: err}
	}
	if e.redeemed, err = store.LoadRedeemed(ctx); err != nil {
		return nil, &StorageError{Op: "load redeemed", Err: err}
	}
	if e.counts, err = store.LoadCounts(ctx); err != nil {
		return nil, &StorageError{Op: "load counts", Err: err}
	}
	if e.counts == nil {
		e.counts = make(map[string]int)
	}

	e.checkCounterDrift()
	return e, nil
}

// checkCounterDrift compares persisted counters against the redeemed
// partition and logs every mismatch.
func (e *Engine) checkCounterDrift() {
	recomputed := make(map[string]int, len(e.counts))
	for _, v := range e.redeemed {
		recomputed[v.Recipient]++
	}
	for recipient, want := range recomputed {
		if got := e.counts[recipient]; got != want {
			e.log.Warn("redemption counter drift",
				"recipient", recipient, "counter", got, "redeemed", want)
		}
	}
	for recipient, got := range e.counts {
		if _, ok := recomputed[recipient]; !ok && got != 0 {
			e.log.Warn("redemption counter drift",
				"recipient", recipient, "counter", got, "redeemed", 0)
		}
	}
}

// =============================================================================
// ISSUE
// =============================================================================

// IssueBatch creates count vouchers for recipient, all sharing one
// expiry date. Validation precedes any mutation; the batch becomes
// visible all-or-nothing. Returns the vouchers in creation order.
func (e *Engine) IssueBatch(ctx context.Context, recipient string, count int, expiry Date) ([]Voucher, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, &ValidationError{Field: "recipient", Reason: "must not be empty"}
	}
	if count < 1 || count > MaxBatchSize {
		return nil, &ValidationError{
			Field:  "count",
			Reason: fmt.Sprintf("must be between 1 and %d", MaxBatchSize),
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if expiry.Before(DateOf(e.now())) {
		return nil, &ValidationError{Field: "expiry_date", Reason: "must be today or later"}
	}

	batch := make([]Voucher, 0, count)
	for i := 0; i < count; i++ {
		id, err := e.generateUnique(batch)
		if err != nil {
			return nil, err
		}
		batch = append(batch, Voucher{
			ID:         id,
			Recipient:  recipient,
			ExpiryDate: expiry,
			CreatedAt:  e.now(),
		})
	}

	next := append(slices.Clone(e.active), batch...)
	if err := e.store.SaveActive(ctx, next); err != nil {
		return nil, &StorageError{Op: "issue batch", Err: err}
	}
	e.active = next

	e.log.Info("vouchers issued",
		"recipient", recipient, "count", count, "expiry", expiry.String())
	return slices.Clone(batch), nil
}

// generateUnique retries generation until the candidate collides with
// neither partition nor the in-flight batch.
func (e *Engine) generateUnique(pending []Voucher) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		id, err := e.gen.Generate()
		if err != nil {
			return "", err
		}
		if !e.idTaken(id, pending) {
			return id, nil
		}
	}
	return "", fmt.Errorf("exhausted %d id generation attempts", maxGenerateAttempts)
}

func (e *Engine) idTaken(id string, pending []Voucher) bool {
	if _, ok := findByID(e.active, id); ok {
		return true
	}
	if _, ok := findByID(e.redeemed, id); ok {
		return true
	}
	_, ok := findByID(pending, id)
	return ok
}

func findByID(vs []Voucher, id string) (int, bool) {
	for i := range vs {
		if vs[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// REDEEM - The atomic transition
// =============================================================================

// Redemption is the outcome of a successful redemption.
type Redemption struct {
	Voucher        Voucher
	RecipientTotal int // lifetime redemptions for the voucher's recipient
}

// Redeem decodes the scanned material and moves the voucher from the
// active to the redeemed partition exactly once. Concurrent attempts on
// the same id produce one success; every other caller sees ErrNotFound.
func (e *Engine) Redeem(ctx context.Context, material []byte) (*Redemption, error) {
	id, err := e.codec.Decode(material)
	if err != nil {
		return nil, err
	}
	return e.redeem(ctx, id)
}

func (e *Engine) redeem(ctx context.Context, id string) (*Redemption, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := findByID(e.active, id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	v := e.active[i]
	if v.ExpiredOn(DateOf(e.now())) {
		return nil, &ExpiredError{Voucher: v}
	}

	v.RedeemedAt = e.now()
	nextActive := slices.Delete(slices.Clone(e.active), i, i+1)
	nextRedeemed := append(slices.Clone(e.redeemed), v)
	nextCounts := cloneCounts(e.counts)
	nextCounts[v.Recipient]++

	// Persist order matters: counts first, then redeemed, then active.
	// Whatever the crash point, the voucher survives somewhere.
	if err := e.store.SaveCounts(ctx, nextCounts); err != nil {
		return nil, &StorageError{Op: "redeem: save counts", Err: err}
	}
	if err := e.store.SaveRedeemed(ctx, nextRedeemed); err != nil {
		return nil, &StorageError{Op: "redeem: save redeemed", Err: err}
	}
	if err := e.store.SaveActive(ctx, nextActive); err != nil {
		return nil, &StorageError{Op: "redeem: save active", Err: err}
	}

	e.active = nextActive
	e.redeemed = nextRedeemed
	e.counts = nextCounts

	e.log.Info("voucher redeemed",
		"id", v.ID, "recipient", v.Recipient, "recipient_total", nextCounts[v.Recipient])
	return &Redemption{Voucher: v, RecipientTotal: nextCounts[v.Recipient]}, nil
}

func cloneCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, n := range counts {
		out[k] = n
	}
	return out
}

// =============================================================================
// LIST
// =============================================================================

// RecipientSummary is the read-only per-recipient view.
type RecipientSummary struct {
	Recipient      string
	Active         []Voucher // insertion order
	SharedExpiry   Date      // earliest expiry among active; zero if none
	RecentRedeemed []Voucher // up to RecentRedeemedLimit, oldest first
	RedeemedTotal  int       // lifetime counter
}

// Empty reports whether the recipient has no history at all.
func (s *RecipientSummary) Empty() bool {
	return len(s.Active) == 0 && len(s.RecentRedeemed) == 0 && s.RedeemedTotal == 0
}

// ListByRecipient projects the ledger for one recipient. No mutation.
func (e *Engine) ListByRecipient(ctx context.Context, recipient string) *RecipientSummary {
	recipient = strings.TrimSpace(recipient)

	e.mu.RLock()
	defer e.mu.RUnlock()

	summary := &RecipientSummary{
		Recipient:     recipient,
		RedeemedTotal: e.counts[recipient],
	}
	for _, v := range e.active {
		if v.Recipient != recipient {
			continue
		}
		summary.Active = append(summary.Active, v)
		if summary.SharedExpiry.IsZero() || v.ExpiryDate.Before(summary.SharedExpiry) {
			summary.SharedExpiry = v.ExpiryDate
		}
	}
	for _, v := range e.redeemed {
		if v.Recipient == recipient {
			summary.RecentRedeemed = append(summary.RecentRedeemed, v)
		}
	}
	if n := len(summary.RecentRedeemed); n > RecentRedeemedLimit {
		summary.RecentRedeemed = slices.Clone(summary.RecentRedeemed[n-RecentRedeemedLimit:])
	}
	return summary
}

// =============================================================================
// DELETE
// =============================================================================

// Delete permanently removes the recipient's first count active vouchers
// in insertion order. It never touches the redeemed partition or the
// counters: deletion cannot reverse a redemption. Returns the removed
// vouchers.
func (e *Engine) Delete(ctx context.Context, recipient string, count int) ([]Voucher, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, &ValidationError{Field: "recipient", Reason: "must not be empty"}
	}
	if count < 1 {
		return nil, &ValidationError{Field: "count", Reason: "must be at least 1"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	available := 0
	for _, v := range e.active {
		if v.Recipient == recipient {
			available++
		}
	}
	if count > available {
		return nil, &ValidationError{
			Field:  "count",
			Reason: fmt.Sprintf("only %d active vouchers for %s", available, recipient),
		}
	}

	removed := make([]Voucher, 0, count)
	next := make([]Voucher, 0, len(e.active)-count)
	for _, v := range e.active {
		if v.Recipient == recipient && len(removed) < count {
			removed = append(removed, v)
			continue
		}
		next = append(next, v)
	}

	if err := e.store.SaveActive(ctx, next); err != nil {
		return nil, &StorageError{Op: "delete", Err: err}
	}
	e.active = next

	e.log.Info("vouchers deleted", "recipient", recipient, "count", count)
	return removed, nil
}
