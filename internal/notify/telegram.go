package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"energy_dashboard/internal/dashboard"
)

const telegramQueue = 32

// sender is the part of tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram forwards notifications to one chat. Messages are queued and sent
// by Run; a full queue drops the message.
type Telegram struct {
	bot    sender
	chatID int64
	log    *zap.Logger
	queue  chan dashboard.Notification
}

// ReadToken reads a bot token file, trimming surrounding whitespace.
func ReadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errors.New("empty bot token")
	}
	return token, nil
}

// NewTelegram authorizes the bot with the token in tokenFile.
func NewTelegram(tokenFile string, chatID int64, log *zap.Logger) (*Telegram, error) {
	token, err := ReadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("telegram token: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}
	api.Debug = false
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("telegram bot authorized", zap.String("account", api.Self.UserName))
	return newTelegram(api, chatID, log), nil
}

func newTelegram(bot sender, chatID int64, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		log:    log,
		queue:  make(chan dashboard.Notification, telegramQueue),
	}
}

func (t *Telegram) Notify(n dashboard.Notification) {
	select {
	case t.queue <- n:
	default:
		t.log.Warn("telegram queue full, notification dropped", zap.String("message", n.Message))
	}
}

// Run sends queued notifications until ctx is done.
func (t *Telegram) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-t.queue:
			msg := tgbotapi.NewMessage(t.chatID, formatMessage(n))
			if _, err := t.bot.Send(msg); err != nil {
				t.log.Error("telegram send failed", zap.Error(err))
			}
		}
	}
}

func formatMessage(n dashboard.Notification) string {
	var prefix string
	switch n.Level {
	case dashboard.LevelError:
		prefix = "[ERROR] "
	case dashboard.LevelWarning:
		prefix = "[WARNING] "
	}
	return prefix + n.Message + " (" + n.At.Format("2006-01-02 15:04:05") + ")"
}
