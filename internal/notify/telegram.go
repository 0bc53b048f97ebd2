// Package notify отправляет операторские алерты.
// Канал — Telegram: нарушение целостности цепочки должно попасть
// к дежурному быстрее, чем его найдут в логах.
package notify

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// Notifier — канал доставки алертов.
type Notifier interface {
	Alert(ctx context.Context, text string) error
}

// Telegram отправляет алерты в заданный чат через Bot API.
type Telegram struct {
	bot    *telego.Bot
	chatID int64
}

// NewTelegram создаёт Telegram-канал алертов.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram-бота: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Alert отправляет текст алерта в чат дежурных.
func (t *Telegram) Alert(ctx context.Context, text string) error {
	_, err := t.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: t.chatID},
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("ошибка отправки алерта: %w", err)
	}
	return nil
}

// LogOnly — запасной канал, когда Telegram не настроен:
// алерт уходит только в лог уровнем Error.
type LogOnly struct{}

// Alert пишет алерт в лог.
func (LogOnly) Alert(_ context.Context, text string) error {
	log.Error("[ALERT] " + text)
	return nil
}
