package bot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/warp/voucher-engine/voucher"
)

func sampleVoucher(id string) voucher.Voucher {
	return voucher.Voucher{
		ID:         id,
		Recipient:  "Alice",
		ExpiryDate: voucher.NewDate(2030, time.December, 31),
		CreatedAt:  time.Date(2030, time.June, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatIssued(t *testing.T) {
	batch := []voucher.Voucher{sampleVoucher("PROMO-AAA111"), sampleVoucher("PROMO-BBB222")}

	msg := formatIssued(batch)
	for _, want := range []string{"2 vouchers", "Alice", "31.12.2030", "PROMO-AAA111", "PROMO-BBB222"} {
		if !strings.Contains(msg, want) {
			t.Errorf("issued message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatRedemption(t *testing.T) {
	v := sampleVoucher("PROMO-CCC333")
	v.RedeemedAt = time.Date(2030, time.June, 16, 9, 30, 0, 0, time.UTC)

	msg := formatRedemption(&voucher.Redemption{Voucher: v, RecipientTotal: 4})
	for _, want := range []string{"PROMO-CCC333", "Alice", "2030-06-16 09:30:00", "recipient: 4"} {
		if !strings.Contains(msg, want) {
			t.Errorf("redemption message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatRedeemError_DistinctMessages(t *testing.T) {
	// Every failure kind gets its own message, and only internal
	// failures tell the operator the voucher is still redeemable.
	expired := sampleVoucher("PROMO-DDD444")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"no qr in photo", voucher.ErrTokenNotFound, "No QR code found"},
		{"foreign qr", voucher.ErrTokenFormat, "not a voucher"},
		{"expired", &voucher.ExpiredError{Voucher: expired}, "expired"},
		{"unknown id", &voucher.NotFoundError{ID: "PROMO-EEE555"}, "not found"},
		{"storage failure", errors.New("disk on fire"), "NOT been redeemed"},
	}
	seen := make(map[string]string)
	for _, tc := range cases {
		msg := formatRedeemError(tc.err)
		if !strings.Contains(msg, tc.want) {
			t.Errorf("%s: message missing %q:\n%s", tc.name, tc.want, msg)
		}
		if prev, ok := seen[msg]; ok {
			t.Errorf("%s and %s share the same message", tc.name, prev)
		}
		seen[msg] = tc.name
	}

	// Internal errors never leak their text to the operator.
	if msg := formatRedeemError(errors.New("disk on fire")); strings.Contains(msg, "disk on fire") {
		t.Errorf("internal error text leaked: %s", msg)
	}
}

func TestFormatRedeemError_ExpiredShowsVoucherDetails(t *testing.T) {
	v := sampleVoucher("PROMO-DDD444")
	msg := formatRedeemError(&voucher.ExpiredError{Voucher: v})
	if !strings.Contains(msg, "Alice") || !strings.Contains(msg, "31.12.2030") {
		t.Errorf("expired message should name the recipient and expiry:\n%s", msg)
	}
}

func TestFormatSummary(t *testing.T) {
	redeemed := sampleVoucher("PROMO-BBB222")
	redeemed.RedeemedAt = time.Date(2030, time.June, 16, 9, 30, 0, 0, time.UTC)

	s := &voucher.RecipientSummary{
		Recipient:      "Alice",
		Active:         []voucher.Voucher{sampleVoucher("PROMO-AAA111")},
		SharedExpiry:   voucher.NewDate(2030, time.December, 31),
		RecentRedeemed: []voucher.Voucher{redeemed},
		RedeemedTotal:  3,
	}

	msg := formatSummary(s)
	for _, want := range []string{"Alice", "Active vouchers: 1", "31.12.2030",
		"PROMO-AAA111", "Total redeemed: 3", "PROMO-BBB222"} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatSummary_NoActiveOmitsExpiryBlock(t *testing.T) {
	s := &voucher.RecipientSummary{Recipient: "Alice", RedeemedTotal: 2}
	msg := formatSummary(s)
	if strings.Contains(msg, "Valid until") {
		t.Errorf("summary without active vouchers should not show an expiry:\n%s", msg)
	}
}

func TestFormatStats(t *testing.T) {
	st := voucher.Stats{
		TotalActive:     2,
		TotalExpired:    1,
		TotalRedeemed:   3,
		RedeemedLast24h: 1,
		Recipients: map[string]voucher.RecipientStats{
			"Bob":   {Active: 1, Redeemed: 2},
			"Alice": {Active: 1, Expired: 1, Redeemed: 1},
		},
	}

	msg := formatStats(st)
	for _, want := range []string{"Total in system: 6", "Active: 2", "Redeemed: 3",
		"Expired: 1", "last 24 hours: 1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("stats missing %q:\n%s", want, msg)
		}
	}
	// Recipients appear alphabetically.
	if strings.Index(msg, "Alice") > strings.Index(msg, "Bob") {
		t.Errorf("recipients not sorted:\n%s", msg)
	}
}

func TestFormatHistory(t *testing.T) {
	if msg := formatHistory(nil); !strings.Contains(msg, "No vouchers") {
		t.Errorf("empty history message wrong: %s", msg)
	}

	first := sampleVoucher("PROMO-AAA111")
	first.RedeemedAt = time.Date(2030, time.June, 16, 9, 0, 0, 0, time.UTC)
	second := sampleVoucher("PROMO-BBB222")
	second.Recipient = "Bob"
	second.RedeemedAt = time.Date(2030, time.June, 16, 10, 0, 0, 0, time.UTC)
	third := sampleVoucher("PROMO-CCC333")
	third.RedeemedAt = time.Date(2030, time.June, 16, 11, 0, 0, 0, time.UTC)

	msg := formatHistory([]voucher.Voucher{first, second, third})
	// Grouped by recipient in first-seen order: all of Alice, then Bob.
	if strings.Index(msg, "Alice") > strings.Index(msg, "Bob") {
		t.Errorf("expected Alice's group first:\n%s", msg)
	}
	if strings.Index(msg, "PROMO-CCC333") > strings.Index(msg, "PROMO-BBB222") {
		t.Errorf("Alice's vouchers should be grouped together:\n%s", msg)
	}
}
