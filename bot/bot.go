/*
Package bot is the conversational operator front end.

PURPOSE:
  A Telegram long-poll bot that drives the voucher engine: issue flows,
  QR scanning, listing, history, deletion and statistics. This layer is
  thin I/O - it collects input, calls the engine, and renders outcomes.
  Every invariant lives in the voucher package.

OPERATOR IDENTITY:
  A single externally-configured numeric identity is "the operator".
  Every update from any other identity gets a fixed denial reply. This
  gate is a precondition of every entry point here, not a concern of the
  core data model.

STATE MACHINE:
  Multi-step flows (create, list, delete) keep a small per-chat session:
  the next expected input and what has been collected so far. Bad input
  re-prompts without losing the collected state.

SEND THROTTLING:
  Outbound sends go through a rate limiter to stay under the transport's
  message-per-second ceiling.

SEE ALSO:
  - handlers.go: update dispatch and flows
  - format.go:   operator-facing message rendering
*/
package bot

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/warp/voucher-engine/pdf"
	"github.com/warp/voucher-engine/voucher"
)

// Bot wires the chat transport to the voucher engine.
type Bot struct {
	api      *tgbotapi.BotAPI
	engine   *voucher.Engine
	renderer *pdf.Renderer
	adminID  int64
	limiter  *rate.Limiter
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// New authenticates against the transport and returns a ready bot.
func New(token string, adminID int64, engine *voucher.Engine, renderer *pdf.Renderer) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:      api,
		engine:   engine,
		renderer: renderer,
		adminID:  adminID,
		// Telegram caps bots around 30 messages/second; stay under it.
		limiter:  rate.NewLimiter(rate.Limit(25), 5),
		log:      slog.Default(),
		sessions: make(map[int64]*session),
	}, nil
}

// Run consumes updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("operator bot started", "account", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

// send pushes any chattable through the rate limiter.
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.api.Send(c); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyWithMenu(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = adminKeyboard()
	b.send(ctx, msg)
}
