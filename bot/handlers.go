/*
handlers.go - Update dispatch and operator flows

FLOWS:
  Create:  recipient -> count (1-10) -> expiry (DD.MM.YYYY) -> issue,
           send the PDF document and a confirmation
  Scan:    photo -> download -> engine.Redeem -> outcome message
  List:    recipient -> per-recipient summary
  Delete:  recipient -> available count shown -> count -> delete
  Stats / History: direct projections

  Bad input inside a flow re-prompts; the collected state survives.
*/
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/warp/voucher-engine/pdf"
	"github.com/warp/voucher-engine/voucher"
)

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	m := upd.Message
	if m == nil || m.From == nil {
		return
	}

	// The operator gate guards every entry point, photos included.
	if m.From.ID != b.adminID {
		b.reply(ctx, m.Chat.ID, msgDenied)
		return
	}

	if len(m.Photo) > 0 {
		b.handleScan(ctx, m)
		return
	}

	switch m.Text {
	case "/start":
		b.resetSession(m.Chat.ID)
		b.replyWithMenu(ctx, m.Chat.ID, msgWelcome)
	case btnCreate:
		b.session(m.Chat.ID).state = stateCreateRecipient
		b.reply(ctx, m.Chat.ID, "Enter the recipient name:")
	case btnStats:
		b.reply(ctx, m.Chat.ID, formatStats(b.engine.Stats(ctx)))
	case btnList:
		b.session(m.Chat.ID).state = stateListRecipient
		b.reply(ctx, m.Chat.ID, "Enter the recipient name to list vouchers for:")
	case btnScan:
		b.reply(ctx, m.Chat.ID, msgScanTips)
	case btnHistory:
		b.reply(ctx, m.Chat.ID, formatHistory(b.engine.History(ctx)))
	case btnDelete:
		b.session(m.Chat.ID).state = stateDeleteRecipient
		b.reply(ctx, m.Chat.ID, "Enter the recipient whose vouchers should be deleted:")
	default:
		b.continueSession(ctx, m)
	}
}

// continueSession feeds free text into whichever flow is in progress.
func (b *Bot) continueSession(ctx context.Context, m *tgbotapi.Message) {
	s := b.session(m.Chat.ID)
	text := strings.TrimSpace(m.Text)

	switch s.state {
	case stateCreateRecipient:
		if text == "" {
			b.reply(ctx, m.Chat.ID, "The recipient name must not be empty. Try again:")
			return
		}
		s.recipient = text
		s.state = stateCreateCount
		b.reply(ctx, m.Chat.ID, "How many vouchers? (1-10)")

	case stateCreateCount:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > voucher.MaxBatchSize {
			b.reply(ctx, m.Chat.ID, "Please enter a number between 1 and 10:")
			return
		}
		s.count = n
		s.state = stateCreateExpiry
		b.reply(ctx, m.Chat.ID, "Enter the expiry date (DD.MM.YYYY):")

	case stateCreateExpiry:
		b.finishCreate(ctx, m.Chat.ID, s, text)

	case stateListRecipient:
		b.resetSession(m.Chat.ID)
		summary := b.engine.ListByRecipient(ctx, text)
		if summary.Empty() {
			b.replyWithMenu(ctx, m.Chat.ID, "No vouchers found for "+text+".")
			return
		}
		b.replyWithMenu(ctx, m.Chat.ID, formatSummary(summary))

	case stateDeleteRecipient:
		summary := b.engine.ListByRecipient(ctx, text)
		if len(summary.Active) == 0 {
			b.resetSession(m.Chat.ID)
			b.replyWithMenu(ctx, m.Chat.ID, "No active vouchers for "+text+".")
			return
		}
		s.recipient = summary.Recipient
		s.state = stateDeleteCount
		b.reply(ctx, m.Chat.ID,
			summary.Recipient+" has "+strconv.Itoa(len(summary.Active))+
				" active vouchers.\nHow many should be deleted?")

	case stateDeleteCount:
		b.finishDelete(ctx, m.Chat.ID, s, text)

	default:
		b.replyWithMenu(ctx, m.Chat.ID, "Use the menu below.")
	}
}

// =============================================================================
// CREATE
// =============================================================================

func (b *Bot) finishCreate(ctx context.Context, chatID int64, s *session, text string) {
	expiry, err := voucher.ParseDate(text)
	if err != nil {
		b.reply(ctx, chatID, "Invalid date. Use the DD.MM.YYYY format:")
		return
	}

	batch, err := b.engine.IssueBatch(ctx, s.recipient, s.count, expiry)
	var vErr *voucher.ValidationError
	switch {
	case errors.As(err, &vErr):
		b.reply(ctx, chatID, "Cannot issue: "+vErr.Reason+". Try another date:")
		return
	case err != nil:
		b.log.Error("issue failed", "recipient", s.recipient, "err", err)
		b.resetSession(chatID)
		b.replyWithMenu(ctx, chatID, msgStorageTrouble)
		return
	}

	issueID := uuid.NewString()
	b.log.Info("batch issued", "issue_id", issueID,
		"recipient", s.recipient, "count", len(batch))

	document, err := b.renderer.Render(batch)
	if err != nil {
		// The batch is already persisted; the codes remain listable.
		b.log.Error("render failed", "issue_id", issueID, "err", err)
		b.resetSession(chatID)
		b.replyWithMenu(ctx, chatID,
			formatIssued(batch)+"\n⚠️ The PDF could not be generated; the codes above are valid.")
		return
	}

	b.resetSession(chatID)
	b.replyWithMenu(ctx, chatID, formatIssued(batch))
	b.send(ctx, tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  pdf.Filename(s.recipient),
		Bytes: document,
	}))
}

// =============================================================================
// SCAN / REDEEM
// =============================================================================

func (b *Bot) handleScan(ctx context.Context, m *tgbotapi.Message) {
	scanID := uuid.NewString()

	material, err := b.downloadPhoto(ctx, m.Photo)
	if err != nil {
		b.log.Error("photo download failed", "scan_id", scanID, "err", err)
		b.reply(ctx, m.Chat.ID, "Could not download the photo. Please send it again.")
		return
	}

	redemption, err := b.engine.Redeem(ctx, material)
	if err != nil {
		if !voucher.IsClientError(err) {
			b.log.Error("redeem failed", "scan_id", scanID, "err", err)
		}
		b.reply(ctx, m.Chat.ID, formatRedeemError(err))
		return
	}

	b.log.Info("scan redeemed", "scan_id", scanID, "id", redemption.Voucher.ID)
	b.replyWithMenu(ctx, m.Chat.ID, formatRedemption(redemption))
}

// =============================================================================
// DELETE
// =============================================================================

func (b *Bot) finishDelete(ctx context.Context, chatID int64, s *session, text string) {
	n, err := strconv.Atoi(text)
	if err != nil {
		b.reply(ctx, chatID, "Please enter a number:")
		return
	}

	removed, err := b.engine.Delete(ctx, s.recipient, n)
	var vErr *voucher.ValidationError
	switch {
	case errors.As(err, &vErr):
		b.reply(ctx, chatID, "Cannot delete: "+vErr.Reason+". Try again:")
		return
	case err != nil:
		b.log.Error("delete failed", "recipient", s.recipient, "err", err)
		b.resetSession(chatID)
		b.replyWithMenu(ctx, chatID, msgStorageTrouble)
		return
	}

	remaining := len(b.engine.ListByRecipient(ctx, s.recipient).Active)
	b.resetSession(chatID)
	b.replyWithMenu(ctx, chatID,
		"✅ Deleted "+strconv.Itoa(len(removed))+" vouchers for "+s.recipient+".\n"+
			"📦 Remaining active: "+strconv.Itoa(remaining))
}
