package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/voucher-engine/voucher"
)

func testVoucher(id, recipient string) voucher.Voucher {
	return voucher.Voucher{
		ID:         id,
		Recipient:  recipient,
		ExpiryDate: voucher.NewDate(2030, time.December, 31),
		CreatedAt:  time.Date(2030, time.June, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	require.NoError(t, err)

	active := []voucher.Voucher{
		testVoucher("PROMO-AAA111", "Alice"),
		testVoucher("PROMO-BBB222", "Alice"),
		testVoucher("PROMO-CCC333", "Bob"),
	}
	redeemedVoucher := testVoucher("PROMO-DDD444", "Alice")
	redeemedVoucher.RedeemedAt = time.Date(2030, time.June, 16, 9, 30, 0, 0, time.UTC)

	require.NoError(t, s.SaveActive(ctx, active))
	require.NoError(t, s.SaveRedeemed(ctx, []voucher.Voucher{redeemedVoucher}))
	require.NoError(t, s.SaveCounts(ctx, map[string]int{"Alice": 1}))

	// A fresh store over the same directory sees the full snapshot.
	reopened, err := New(dir)
	require.NoError(t, err)

	gotActive, err := reopened.LoadActive(ctx)
	require.NoError(t, err)
	require.Len(t, gotActive, 3)
	for i := range active {
		assert.Equal(t, active[i].ID, gotActive[i].ID, "insertion order must survive")
		assert.Equal(t, active[i].Recipient, gotActive[i].Recipient)
		assert.True(t, active[i].ExpiryDate.Equal(gotActive[i].ExpiryDate))
		assert.True(t, active[i].CreatedAt.Equal(gotActive[i].CreatedAt))
		assert.True(t, gotActive[i].RedeemedAt.IsZero())
	}

	gotRedeemed, err := reopened.LoadRedeemed(ctx)
	require.NoError(t, err)
	require.Len(t, gotRedeemed, 1)
	assert.True(t, redeemedVoucher.RedeemedAt.Equal(gotRedeemed[0].RedeemedAt))

	gotCounts, err := reopened.LoadCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Alice": 1}, gotCounts)
}

func TestLoadMissingFilesIsEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	redeemed, err := s.LoadRedeemed(ctx)
	require.NoError(t, err)
	assert.Empty(t, redeemed)

	counts, err := s.LoadCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCorruptSnapshotLoadsEmptyAndIsQuarantined(t *testing.T) {
	// A damaged file must not block startup, but the evidence must
	// survive: the corrupt file is renamed aside, not overwritten.
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "active.json"), []byte("{{{not json"), 0o644))

	s, err := New(dir)
	require.NoError(t, err)

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = os.Stat(filepath.Join(dir, "active.json.corrupt"))
	assert.NoError(t, err, "corrupt snapshot should be set aside")
	_, err = os.Stat(filepath.Join(dir, "active.json"))
	assert.True(t, os.IsNotExist(err), "original corrupt file should be gone")
}

func TestSaveReplacesWholeSnapshot(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.SaveActive(ctx, []voucher.Voucher{
		testVoucher("PROMO-AAA111", "Alice"),
		testVoucher("PROMO-BBB222", "Bob"),
	}))
	require.NoError(t, s.SaveActive(ctx, []voucher.Voucher{
		testVoucher("PROMO-CCC333", "Carol"),
	}))

	active, err := s.LoadActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "PROMO-CCC333", active[0].ID)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, "active.json", e.Name())
	}
}

func TestSaveNilCollectionsWriteEmptySnapshots(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.SaveActive(ctx, nil))
	require.NoError(t, s.SaveCounts(ctx, nil))

	data, err := os.ReadFile(filepath.Join(dir, "active.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
