/*
format.go - Operator-facing message rendering

  Pure functions from engine outputs to message text. Each error kind
  maps to its own distinct message; raw storage errors never leak here.
*/
package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/voucher-engine/voucher"
)

const timestampLayout = "2006-01-02 15:04:05"

const (
	msgDenied  = "⛔️ Access denied. This bot serves a single operator."
	msgWelcome = "👋 Welcome to the voucher panel!\n\nPick an action from the menu below."

	msgScanTips = "📸 Send a clear photo of the QR code.\n\n" +
		"⚠️ Tips:\n" +
		"• Good lighting, no glare\n" +
		"• The QR code should fill most of the frame"

	msgStorageTrouble = "❌ A storage error occurred. Nothing was changed - please try again."
)

// =============================================================================
// ISSUE
// =============================================================================

func formatIssued(batch []voucher.Voucher) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Created %d vouchers for %s!\n\n", len(batch), batch[0].Recipient)
	fmt.Fprintf(&sb, "📅 Valid until: %s\n", batch[0].ExpiryDate)
	for _, v := range batch {
		fmt.Fprintf(&sb, "🆔 %s\n", v.ID)
	}
	sb.WriteString("\n⚠️ Show the PDF page with the QR code when paying\n🔁 Single use only")
	return sb.String()
}

// =============================================================================
// REDEEM
// =============================================================================

func formatRedemption(r *voucher.Redemption) string {
	v := r.Voucher
	return fmt.Sprintf(
		"✅ Voucher redeemed!\n\n"+
			"👤 Recipient: %s\n"+
			"🆔 Code: %s\n"+
			"📅 Was valid until: %s\n"+
			"⏰ Redeemed at: %s\n"+
			"📊 Total redeemed for this recipient: %d",
		v.Recipient, v.ID, v.ExpiryDate,
		v.RedeemedAt.Format(timestampLayout), r.RecipientTotal)
}

func formatRedeemError(err error) string {
	var expired *voucher.ExpiredError
	switch {
	case errors.Is(err, voucher.ErrTokenNotFound):
		return "❌ No QR code found in the photo.\n\n" +
			"Possible causes:\n• Blurry image\n• Poor lighting\n• Damaged code\n\n" +
			"Please take the photo again."
	case errors.Is(err, voucher.ErrTokenFormat):
		return "❌ That QR code is not a voucher."
	case errors.As(err, &expired):
		return fmt.Sprintf(
			"❌ This voucher has expired.\n\n👤 Recipient: %s\n📅 Was valid until: %s",
			expired.Voucher.Recipient, expired.Voucher.ExpiryDate)
	case errors.Is(err, voucher.ErrNotFound):
		return "❌ Voucher not found.\n\n" +
			"Possible causes:\n• Already redeemed\n• Deleted\n• Never issued"
	default:
		// Storage and other internal failures: distinct from "invalid
		// voucher" so the operator does not turn a customer away.
		return "❌ Could not record the redemption due to a storage error.\n" +
			"The voucher has NOT been redeemed - please try again."
	}
}

// =============================================================================
// LIST
// =============================================================================

func formatSummary(s *voucher.RecipientSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Vouchers for %s:\n\n", s.Recipient)

	if len(s.Active) > 0 {
		fmt.Fprintf(&sb, "✅ Active vouchers: %d\n", len(s.Active))
		fmt.Fprintf(&sb, "📅 Valid until: %s\n\n", s.SharedExpiry)
		for _, v := range s.Active {
			fmt.Fprintf(&sb, "🆔 %s\n", v.ID)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "❌ Total redeemed: %d\n", s.RedeemedTotal)
	if len(s.RecentRedeemed) > 0 {
		sb.WriteString("📜 Recently redeemed:\n")
		for _, v := range s.RecentRedeemed {
			fmt.Fprintf(&sb, "🆔 %s\n📅 Redeemed: %s\n",
				v.ID, v.RedeemedAt.Format(timestampLayout))
		}
	}
	return sb.String()
}

// =============================================================================
// STATS
// =============================================================================

func formatStats(st voucher.Stats) string {
	var sb strings.Builder
	sb.WriteString("📊 Voucher statistics:\n\n")
	fmt.Fprintf(&sb, "📦 Total in system: %d\n", st.TotalActive+st.TotalExpired+st.TotalRedeemed)
	fmt.Fprintf(&sb, "✅ Active: %d\n", st.TotalActive)
	fmt.Fprintf(&sb, "❌ Redeemed: %d\n", st.TotalRedeemed)
	fmt.Fprintf(&sb, "⏰ Expired: %d\n", st.TotalExpired)

	if len(st.Recipients) > 0 {
		sb.WriteString("\n👥 By recipient:\n")
		for _, name := range st.RecipientNames() {
			rs := st.Recipients[name]
			fmt.Fprintf(&sb, "\n👤 %s:\n", name)
			fmt.Fprintf(&sb, "   📦 Total: %d\n", rs.Total())
			fmt.Fprintf(&sb, "   ✅ Active: %d\n", rs.Active)
			fmt.Fprintf(&sb, "   ❌ Redeemed: %d\n", rs.Redeemed)
			fmt.Fprintf(&sb, "   ⏰ Expired: %d\n", rs.Expired)
		}
	}

	fmt.Fprintf(&sb, "\n📈 Redeemed in the last 24 hours: %d", st.RedeemedLast24h)
	return sb.String()
}

// =============================================================================
// HISTORY
// =============================================================================

func formatHistory(history []voucher.Voucher) string {
	if len(history) == 0 {
		return "📭 No vouchers have been redeemed yet."
	}

	// Group by recipient, preserving first-seen order.
	order := make([]string, 0)
	grouped := make(map[string][]voucher.Voucher)
	for _, v := range history {
		if _, ok := grouped[v.Recipient]; !ok {
			order = append(order, v.Recipient)
		}
		grouped[v.Recipient] = append(grouped[v.Recipient], v)
	}

	var sb strings.Builder
	sb.WriteString("📜 Redemption history:\n\n")
	for _, recipient := range order {
		fmt.Fprintf(&sb, "👤 %s:\n", recipient)
		for _, v := range grouped[recipient] {
			fmt.Fprintf(&sb, "🆔 %s\n📅 Redeemed: %s\n📅 Was valid until: %s\n\n",
				v.ID, v.RedeemedAt.Format(timestampLayout), v.ExpiryDate)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
