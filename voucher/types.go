/*
Package voucher provides the core ledger and redemption engine for
single-use voucher codes.

PURPOSE:
  This package contains the entity model, the code generator, the token
  codec contract, the snapshot store contract, the lifecycle engine and
  the reporting projection. Everything outside this package (QR imaging,
  PDF layout, the operator chat transport) is thin I/O.

KEY CONCEPTS IN THIS FILE (types.go):
  - Voucher: The central entity. Immutable once created.
  - Date:    A day-granularity calendar date (expiry is date-only).
  - Status:  A derived view, never a stored field.

DESIGN PRINCIPLES:
  1. Two-partition model: a voucher lives in exactly one of the active
     or redeemed collections. "Expired" is computed from the clock, not
     stored, so status can never drift.
  2. Append-only redemptions: once redeemed, a record is never mutated
     or removed. Deletion only applies to active vouchers.
  3. Snapshot persistence: each collection is loaded and persisted as a
     whole, so the on-disk view is always a complete snapshot.

SEE ALSO:
  - engine.go:     Lifecycle operations and invariants
  - store.go:      Snapshot persistence contract
  - projection.go: Read-only reporting
*/
package voucher

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// DateLayout is the textual form used everywhere a date is shown or
// persisted, e.g. "31.12.2030".
const DateLayout = "02.01.2006"

// Date is a calendar date with no time component. Expiry checks compare
// dates, never timestamps: a voucher expiring today is still redeemable
// at 23:59.
type Date struct {
	t time.Time // normalized to midnight UTC
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(at time.Time) Date {
	return NewDate(at.Year(), at.Month(), at.Day())
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses the DD.MM.YYYY form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }
func (d Date) AddDays(n int) Date     { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) String() string {
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// VOUCHER - The central entity
// =============================================================================

// Voucher is a single-use voucher code. All fields are immutable once the
// voucher is created; RedeemedAt is stamped exactly once, when the voucher
// moves to the redeemed partition.
//
// JSON field names match the persisted snapshot layout.
type Voucher struct {
	ID         string    `json:"coupon_id"`
	Recipient  string    `json:"recipient"`
	ExpiryDate Date      `json:"expiry_date"`
	CreatedAt  time.Time `json:"created_at"`
	RedeemedAt time.Time `json:"used_at"`
}

// ExpiredOn reports whether the voucher is past its expiry on the given
// date. Expiry is strict: a voucher is redeemable through its expiry date.
func (v Voucher) ExpiredOn(today Date) bool {
	return v.ExpiryDate.Before(today)
}

// =============================================================================
// STATUS - Derived view, never stored
// =============================================================================

type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusRedeemed Status = "redeemed"
)

// StatusOn derives the status of a voucher as of the given date.
// Expired is a pure time function over an active record; there is no
// stored transition and no side effect.
func (v Voucher) StatusOn(today Date) Status {
	if !v.RedeemedAt.IsZero() {
		return StatusRedeemed
	}
	if v.ExpiredOn(today) {
		return StatusExpired
	}
	return StatusActive
}
