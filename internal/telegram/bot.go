package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/web3-frozen/fib-monitor/internal/store"
)

const telegramAPI = tgbotapi.APIEndpoint

// Registry is the watch-list surface the chat commands operate on.
type Registry interface {
	List(ctx context.Context) ([]store.Asset, error)
	Get(ctx context.Context, label string) (*store.Asset, error)
	Add(ctx context.Context, a store.Asset) (bool, error)
	Delete(ctx context.Context, label string) (bool, error)
	UpdateRange(ctx context.Context, label string, high, low float64) (bool, error)
}

type Bot struct {
	api        *tgbotapi.BotAPI
	registry   Registry
	chatID     int64 // only this chat may change the watch list; 0 allows all
	defaultLow float64
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewBot(token string, reg Registry, chatID int64, defaultLow float64, logger *slog.Logger) (*Bot, error) {
	return newBot(token, telegramAPI, reg, chatID, defaultLow, logger)
}

func newBot(token, endpoint string, reg Registry, chatID int64, defaultLow float64, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:        api,
		registry:   reg,
		chatID:     chatID,
		defaultLow: defaultLow,
		// Telegram allows roughly one message per second per chat.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:  logger,
	}, nil
}

// SendMessage sends an HTML message to a Telegram chat, waiting for the
// rate limiter first.
func (b *Bot) SendMessage(chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	log := b.logger.With("chat_id", chatID, "command", cmd)

	var reply string
	if !b.authorized(chatID, cmd) {
		log.Warn("command from unauthorized chat")
		reply = "⛔ This chat is not allowed to manage the watch list."
	} else {
		reply = b.handleCommand(ctx, chatID, cmd, msg.CommandArguments())
		log.Info("command handled")
	}

	if err := b.SendMessage(chatID, reply); err != nil {
		log.Error("reply failed", "error", err)
	}
}

func (b *Bot) authorized(chatID int64, cmd string) bool {
	if b.chatID == 0 || chatID == b.chatID {
		return true
	}
	return cmd == "start" || cmd == "help"
}
