package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"centavo/internal/models"
)

// ErrNoRoute means the recipient has no chat this adapter can deliver to:
// a phone number with no verified link behind it. Callers that address by
// phone must treat this as a delivery failure, never as success.
var ErrNoRoute = errors.New("no route to recipient")

// RouteResolver maps a verified phone to the anonymous channel it is linked
// to. The adapter needs it because chat platforms deliver by chat ID, not by
// phone number.
type RouteResolver func(ctx context.Context, phone string) (string, error)

// Telegram adapts the bot API to the pipeline's transport contract. Inbound
// sender IDs are always anonymous ("<chatID>@lid"); identity comes from the
// verification handshake, never from the platform.
type Telegram struct {
	bot          *tgbotapi.BotAPI
	resolveRoute RouteResolver
	log          *zap.Logger
}

func NewTelegram(token string, resolveRoute RouteResolver, log *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Telegram{bot: bot, resolveRoute: resolveRoute, log: log}, nil
}

// Listen long-polls for updates and spawns one handler task per inbound
// message, so one user's slow pipeline never blocks another's.
func (t *Telegram) Listen(ctx context.Context, handler func(ctx context.Context, senderID, text string)) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil || update.Message.Text == "" {
					continue
				}
				senderID := fmt.Sprintf("%d@lid", update.Message.Chat.ID)
				text := update.Message.Text
				go handler(ctx, senderID, text)
			}
		}
	}()
}

func (t *Telegram) Send(ctx context.Context, recipientID, text string) error {
	chatID, ok, err := t.chatIDFor(ctx, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		t.log.Warn("no route for recipient", zap.String("recipient", recipientID))
		return fmt.Errorf("send to %s: %w", recipientID, ErrNoRoute)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (t *Telegram) SetTyping(ctx context.Context, recipientID string) error {
	chatID, ok, err := t.chatIDFor(ctx, recipientID)
	if err != nil || !ok {
		return err
	}
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := t.bot.Request(action); err != nil {
		return fmt.Errorf("telegram chat action: %w", err)
	}
	return nil
}

func (t *Telegram) Disconnect() error {
	t.bot.StopReceivingUpdates()
	return nil
}

func (t *Telegram) chatIDFor(ctx context.Context, recipientID string) (int64, bool, error) {
	lid := recipientID
	if !models.IsAnonymousID(recipientID) {
		resolved, err := t.resolveRoute(ctx, recipientID)
		if err != nil {
			return 0, false, err
		}
		if resolved == "" {
			return 0, false, nil
		}
		lid = resolved
	}
	raw := strings.TrimSuffix(lid, "@lid")
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad recipient id %q: %w", recipientID, err)
	}
	return chatID, true, nil
}
