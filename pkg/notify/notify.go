package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Config struct {
	BotToken string `json:"botToken"`
	ChatID   int64  `json:"chatID"`
	Debug    bool   `json:"debug"`
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts plain text messages to a single ops chat.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(config Config) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = config.Debug

	return &Telegram{
		bot:    bot,
		chatID: config.ChatID,
	}, nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true

	_, err := t.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// New returns a Telegram notifier when a bot token is configured and a no-op
// notifier otherwise.
func New(config Config) (Notifier, error) {
	if config.BotToken == "" {
		return Nop{}, nil
	}
	return NewTelegram(config)
}
