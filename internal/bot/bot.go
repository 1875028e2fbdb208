// ABOUTME: Telegram conversational agent collecting posts via direct message.
// ABOUTME: Three-state dialogue: /start greeting, /newpost prompt, text publish.

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shutapp/shutapp-server/internal/dedupe"
)

const (
	msgGreeting = "ShutApp is a place to let it out.\n\n" +
		"Write your posts right here in this chat.\n" +
		"The feed and reactions live in the app."
	msgPrompt       = "Send your post text as a single message."
	msgEmpty        = "That looks empty. Send your post text."
	msgPublished    = "✅ Post published."
	msgPrivateOnly  = "Posts can only be written in a private chat."
	msgFallback     = "To write a post: /newpost"
	openAppLabel    = "\U0001F5A4 Open ShutApp"
	longPollTimeout = 30 // seconds
)

// sender abstracts the Telegram send API so handlers can be tested with a
// reply-capturing fake. *tgbotapi.BotAPI satisfies it.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot runs the posting dialogue over Telegram long polling.
type Bot struct {
	api       *tgbotapi.BotAPI
	send      sender
	publisher Publisher
	sessions  *Sessions
	seen      *dedupe.Cache
	webAppURL string
	logger    *slog.Logger
}

// New creates a Bot authorized with the given token. Posts are handed to
// the publisher; the web app URL becomes the call-to-action button target.
func New(token, webAppURL string, publisher Publisher, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating bot API client: %w", err)
	}

	b := &Bot{
		api:       api,
		send:      api,
		publisher: publisher,
		sessions:  NewSessions(),
		seen:      dedupe.New(5*time.Minute, 10_000),
		webAppURL: webAppURL,
		logger:    logger.With("component", "bot"),
	}

	b.logger.Info("authorized on Telegram", "username", api.Self.UserName)
	return b, nil
}

// Run starts the long-poll receive loop and blocks until the context is
// canceled or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = longPollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot receive loop started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("context canceled, stopping bot")
			b.api.StopReceivingUpdates()
			b.seen.Close()
			return nil
		case upd, ok := <-updates:
			if !ok {
				b.seen.Close()
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

// handleUpdate routes one inbound update through the dialogue state machine.
// A failing database or Telegram call aborts this update only; the chat's
// state is left as it was so the user can resend.
func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || (msg.Text == "" && !msg.IsCommand()) {
		return
	}

	if b.seen.Seen(upd.UpdateID) {
		b.logger.Debug("dropping redelivered update", "update_id", upd.UpdateID)
		return
	}

	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.handleCommand(chatID, msg)
		return
	}

	if b.sessions.Get(chatID) == StateAwaitingText {
		b.handlePostText(ctx, chatID, msg.Text)
		return
	}

	b.replyWithKeyboard(chatID, msgFallback)
}

// handleCommand handles /start and /newpost; anything else gets guidance.
func (b *Bot) handleCommand(chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		// /start resets the dialogue in any state.
		b.sessions.Reset(chatID)
		b.replyWithKeyboard(chatID, msgGreeting)
	case "newpost":
		if !msg.Chat.IsPrivate() {
			b.reply(chatID, msgPrivateOnly)
			return
		}
		b.sessions.Set(chatID, StateAwaitingText)
		b.reply(chatID, msgPrompt)
	default:
		b.replyWithKeyboard(chatID, msgFallback)
	}
}

// handlePostText publishes the collected text and returns the chat to Idle.
// Empty text reprompts; a publish failure keeps the chat in AwaitingText.
func (b *Bot) handlePostText(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		b.reply(chatID, msgEmpty)
		return
	}

	id, err := b.publisher.Publish(ctx, text)
	if err != nil {
		b.logger.Error("failed to publish post", "error", err, "chat_id", chatID)
		return
	}

	b.sessions.Reset(chatID)
	b.logger.Info("post published", "id", id, "chat_id", chatID)
	b.replyWithKeyboard(chatID, msgPublished)
}

// openAppKeyboard builds the inline button deep-linking to the web front-end.
func (b *Bot) openAppKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(openAppLabel, b.webAppURL),
		),
	)
}

// reply sends a plain text message to the chat.
func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	if _, err := b.send.Send(m); err != nil {
		b.logger.Error("failed to send reply", "error", err, "chat_id", chatID)
	}
}

// replyWithKeyboard sends a text message with the open-app button attached.
func (b *Bot) replyWithKeyboard(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = b.openAppKeyboard()
	if _, err := b.send.Send(m); err != nil {
		b.logger.Error("failed to send reply", "error", err, "chat_id", chatID)
	}
}
