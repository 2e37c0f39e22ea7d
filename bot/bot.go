package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"codecast-bot/config"
	"codecast-bot/session"
	"codecast-bot/types"
)

// Callback data for the inline keyboards.
const (
	CallbackFormatVertical = "format:vertical"
	CallbackFormatWide     = "format:wide"
	CallbackUploadYes      = "upload:yes"
	CallbackUploadNo       = "upload:no"
)

// Bot connects the state machine to Telegram. Each update is dispatched on
// its own goroutine so one chat's pipeline run never blocks another chat;
// the session run lock serializes events within a chat.
type Bot struct {
	api     *tgbotapi.BotAPI
	machine *Machine
}

// New authenticates against Telegram and builds the machine around the
// resulting transport.
func New(token string, cfg *config.Config, sessions *session.Registry, pipe Pipeline, uploader Uploader) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("[bot] Authorized as @%s", api.Self.UserName)

	b := &Bot{api: api}
	b.machine = NewMachine(cfg, sessions, pipe, uploader, telegramTransport{api: api})
	return b, nil
}

// Run consumes the update stream until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		// Stop the button spinner regardless of what the machine does.
		if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			log.Printf("[bot] Callback ack failed: %v", err)
		}
	}

	chatID, ev, ok := eventFrom(update)
	if !ok {
		return
	}
	go b.machine.Handle(ctx, chatID, ev)
}

// eventFrom normalizes a Telegram update into a machine event.
func eventFrom(update tgbotapi.Update) (int64, Event, bool) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.IsCommand() {
			switch msg.Command() {
			case "start":
				return msg.Chat.ID, Event{Kind: EventStart}, true
			case "cancel":
				return msg.Chat.ID, Event{Kind: EventCancel}, true
			case "youtube_auth":
				return msg.Chat.ID, Event{Kind: EventAuth}, true
			}
			return 0, Event{}, false
		}
		if msg.Text != "" {
			return msg.Chat.ID, Event{Kind: EventText, Text: msg.Text}, true
		}

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID := update.CallbackQuery.Message.Chat.ID
		switch update.CallbackQuery.Data {
		case CallbackFormatVertical:
			return chatID, Event{Kind: EventFormat, Format: types.FormatVertical}, true
		case CallbackFormatWide:
			return chatID, Event{Kind: EventFormat, Format: types.FormatWide}, true
		case CallbackUploadYes:
			return chatID, Event{Kind: EventUploadChoice, Upload: true}, true
		case CallbackUploadNo:
			return chatID, Event{Kind: EventUploadChoice, Upload: false}, true
		}
	}

	return 0, Event{}, false
}

// telegramTransport implements Transport over the Telegram Bot API.
type telegramTransport struct {
	api *tgbotapi.BotAPI
}

func (t telegramTransport) SendText(chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (t telegramTransport) SendChoices(chatID int64, text string, choices []Choice) error {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Data))
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	_, err := t.api.Send(msg)
	return err
}

func (t telegramTransport) SendVideo(chatID int64, path string) error {
	_, err := t.api.Send(tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path)))
	return err
}
