package router

import (
	"time"

	tg "github.com/artfuse/stylebot/core/telegram"
	"github.com/artfuse/stylebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions controls routing for photo and plain-text updates.
type MessageOptions struct {
	// Photo handles incoming photo messages; required for the image flow.
	Photo tele.HandlerFunc
	// UnknownText optionally handles text that resolves to no command.
	UnknownText tele.HandlerFunc
}

// MessageRoutes builds handlers for photo and text routing. Photo updates feed
// the conversation flow; text that is not a registered command either hits the
// registry fallback or is dropped without a reply.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Photo == nil {
			logHandlerSummary(c, "photo", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "photo", start, "", "", func() error {
			return opts.Photo(c)
		})
	}

	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(photoHandler)),
		},
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
	}
}
