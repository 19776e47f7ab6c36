package helpers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/artfuse/stylebot/core/logger"
	"github.com/artfuse/stylebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// sendAsync enqueues the delivery on the outbound dispatcher. The dispatcher
// keys jobs by the chat id carried in ctx, so deliveries to one chat stay in
// order. When the queue is saturated it falls back to a synchronous send.
func sendAsync(ctx context.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the given chat.
func SendText(ctx context.Context, bot *tele.Bot, chatID int64, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(ctx, "send.text", "sendMessage", func() error {
		var err error
		if sendOpts != nil {
			_, err = bot.Send(tele.ChatID(chatID), text, sendOpts)
		} else {
			_, err = bot.Send(tele.ChatID(chatID), text)
		}
		return err
	})
}

// SendMD sends a message with Markdown parse mode.
func SendMD(ctx context.Context, bot *tele.Bot, chatID int64, text string) error {
	return SendText(ctx, bot, chatID, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
}

// SendHTML sends a message with HTML parse mode.
func SendHTML(ctx context.Context, bot *tele.Bot, chatID int64, text string) error {
	return SendText(ctx, bot, chatID, text, &tele.SendOptions{ParseMode: tele.ModeHTML})
}

// SendPhoto sends an in-memory image to the given chat.
func SendPhoto(ctx context.Context, bot *tele.Bot, chatID int64, image []byte) error {
	return sendAsync(ctx, "send.photo", "sendPhoto", func() error {
		photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(image))}
		_, err := bot.Send(tele.ChatID(chatID), photo)
		return err
	})
}
