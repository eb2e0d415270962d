package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/warp/voucher-engine/qr"
	"github.com/warp/voucher-engine/voucher"
)

func testBatch() []voucher.Voucher {
	expiry := voucher.NewDate(2030, time.December, 31)
	created := time.Date(2030, time.June, 15, 12, 0, 0, 0, time.UTC)
	return []voucher.Voucher{
		{ID: "PROMO-AAA111", Recipient: "Alice", ExpiryDate: expiry, CreatedAt: created},
		{ID: "PROMO-BBB222", Recipient: "Alice", ExpiryDate: expiry, CreatedAt: created},
		{ID: "PROMO-CCC333", Recipient: "Alice", ExpiryDate: expiry, CreatedAt: created},
	}
}

func TestRender_OnePagePerVoucher(t *testing.T) {
	r := NewRenderer(qr.New())

	doc, err := r.Render(testBatch())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	// Three pages with an embedded QR each: well past a trivial size.
	if len(doc) < 3000 {
		t.Errorf("suspiciously small document: %d bytes", len(doc))
	}
}

func TestRender_EmptyBatchFails(t *testing.T) {
	r := NewRenderer(qr.New())
	if _, err := r.Render(nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"Alice":          "vouchers_Alice.pdf",
		"Bob Smith":      "vouchers_Bob_Smith.pdf",
		"weird/../chars": "vouchers_weird____chars.pdf",
	}
	for in, want := range cases {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}
