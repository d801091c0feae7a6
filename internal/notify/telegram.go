package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// Telegram delivers user-facing outcome messages and channel
// announcements. Every send is best-effort: a failed delivery is
// logged and dropped, it never surfaces back into the acquisition
// loop.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	channel string // status channel username, without t.me/
	logger  *logrus.Logger
}

func NewTelegram(token, channel string, logger *logrus.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	logger.WithField("bot", bot.Self.UserName).Info("Notification bot connected")
	return &Telegram{
		bot:     bot,
		channel: channel,
		logger:  logger,
	}, nil
}

// NotifyOutcome tells the user what happened to a purchase made on
// their behalf.
func (t *Telegram) NotifyOutcome(_ context.Context, userID int64, gift models.Gift, success bool) {
	var text string
	if success {
		text = fmt.Sprintf("🎁 Отправлен подарок: %s (−%d ⭐)", gift.Title, gift.Price)
	} else {
		text = fmt.Sprintf("Не удалось купить подарок %s (%d ⭐)", gift.Title, gift.Price)
	}

	if _, err := t.bot.Send(tgbotapi.NewMessage(userID, text)); err != nil {
		t.logger.WithError(err).WithField("user_id", userID).Debug("Outcome notification dropped")
	}
}

// Announce posts to the status channel if one is configured.
func (t *Telegram) Announce(_ context.Context, text string) {
	if t.channel == "" {
		return
	}
	if _, err := t.bot.Send(tgbotapi.NewMessageToChannel("@"+t.channel, text)); err != nil {
		t.logger.WithError(err).Debug("Channel announcement dropped")
	}
}

// SendTo delivers a plain message to an arbitrary chat, used for the
// startup banner to the log chat.
func (t *Telegram) SendTo(chatID int64, text string) {
	if chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		t.logger.WithError(err).Debug("Message dropped")
	}
}
