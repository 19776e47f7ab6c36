// Package app assembles the style transfer bot from its parts and
// exposes the run options the core runtime expects.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/artfuse/stylebot/bot/flow"
	"github.com/artfuse/stylebot/bot/history"
	"github.com/artfuse/stylebot/bot/session"
	"github.com/artfuse/stylebot/bot/styler"
	coreconfig "github.com/artfuse/stylebot/core/config"
	"github.com/artfuse/stylebot/core/logger"
	coretelegram "github.com/artfuse/stylebot/core/telegram"
	"github.com/artfuse/stylebot/core/telegram/commands"
	tghelpers "github.com/artfuse/stylebot/core/telegram/helpers"
	"github.com/artfuse/stylebot/core/telegram/router"
	tgsender "github.com/artfuse/stylebot/core/telegram/sender"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// App owns the conversation engine and its Telegram bindings. The bot
// instance is created by the core runtime and bound via OnStart before
// any update is processed.
type App struct {
	cfg      *coreconfig.Config
	sessions *session.Store
	engine   *flow.Engine
	history  *history.Store

	bot atomic.Pointer[tele.Bot]
}

// New builds the application. db may be nil; outcome history is then
// disabled and synthesis results are not persisted.
func New(cfg *coreconfig.Config, db *sqlx.DB) *App {
	a := &App{
		cfg:      cfg,
		sessions: session.NewStore(),
	}

	var rec flow.Recorder
	if db != nil {
		a.history = history.NewStore(db)
		rec = a.history
	}

	a.engine = flow.NewEngine(a.sessions, a, styler.NewHTTPClient(cfg.Styler), a, rec)
	return a
}

// CoreConfig exposes the embedded core configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// dispatch normalizes the update and runs it through the engine.
func (a *App) dispatch(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	a.engine.Handle(ctx, flow.Classify(c))
	return nil
}

// TelegramRunOptions builds the runtime configuration for the bot.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.cfg == nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: nil config")
	}

	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.dispatch,
		Description: "Begin a new style transfer session",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.dispatch,
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/about", commands.Command{
		Handler:     a.dispatch,
		Description: "About this bot",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.dispatch,
		Description: "Discard the current session",
	})
	if a.history != nil {
		reg.RegisterCommand("/stats", commands.Command{
			Handler:     a.statsHandler,
			Description: "Synthesis statistics",
			AdminOnly:   true,
			Hidden:      true,
		})
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Photo: a.dispatch,
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      routes,
		DispatcherOptions: tgsender.Options{
			Lanes:     8,
			QueueSize: 64,
		},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.bot.Store(rt.Bot)
			return nil
		},
	}, nil
}

// statsHandler replies with aggregate synthesis counters. Registered
// only when history is enabled and restricted to the admin.
func (a *App) statsHandler(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "stats")

	stats, err := a.history.ReadStats(ctx)
	if err != nil {
		logger.Warn(ctx, "flow", "stats.read",
			slog.String("outcome", "fail"),
			slog.String("err", err.Error()),
		)
		return c.Send("Stats are unavailable right now.")
	}

	recent, err := a.history.RecentJobs(ctx, recentJobsShown)
	if err != nil {
		logger.Warn(ctx, "flow", "stats.recent",
			slog.String("outcome", "fail"),
			slog.String("err", err.Error()),
		)
		recent = nil
	}

	return c.Send(formatStats(stats, recent, a.sessions.Len()))
}

// recentJobsShown caps the tail of the /stats reply.
const recentJobsShown = 5

func formatStats(stats history.Stats, recent []history.Job, sessions int) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Synthesis jobs: %d total\n- ok: %d\n- rejected: %d\n- failed: %d\nActive sessions: %d",
		stats.Total, stats.OK, stats.DomainError, stats.Failed, sessions,
	)
	if len(recent) > 0 {
		b.WriteString("\n\nRecent:")
		for _, j := range recent {
			fmt.Fprintf(&b, "\n%s %s %dms",
				j.CreatedAt.UTC().Format("2006-01-02 15:04:05"), j.Status, j.DurationMS,
			)
		}
	}
	return b.String()
}

// Fetch downloads the photo bytes through the Telegram file API.
func (a *App) Fetch(ctx context.Context, photo *tele.Photo) ([]byte, error) {
	bot := a.bot.Load()
	if bot == nil {
		return nil, fmt.Errorf("app: bot not started")
	}
	if photo == nil {
		return nil, fmt.Errorf("app: no photo on update")
	}

	start := time.Now()
	rc, err := bot.File(&photo.File)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}

	logger.Debug(ctx, "tg", "photo.download",
		slog.Int("bytes", len(data)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return data, nil
}

// Text sends a plain text reply.
func (a *App) Text(ctx context.Context, chatID int64, text string) {
	a.send(ctx, chatID, func(bot *tele.Bot) error {
		return tghelpers.SendText(ctx, bot, chatID, text)
	})
}

// Markdown sends a Markdown-formatted reply.
func (a *App) Markdown(ctx context.Context, chatID int64, text string) {
	a.send(ctx, chatID, func(bot *tele.Bot) error {
		return tghelpers.SendMD(ctx, bot, chatID, text)
	})
}

// HTML sends an HTML-formatted reply.
func (a *App) HTML(ctx context.Context, chatID int64, text string) {
	a.send(ctx, chatID, func(bot *tele.Bot) error {
		return tghelpers.SendHTML(ctx, bot, chatID, text)
	})
}

// Photo sends an in-memory image.
func (a *App) Photo(ctx context.Context, chatID int64, image []byte) {
	a.send(ctx, chatID, func(bot *tele.Bot) error {
		return tghelpers.SendPhoto(ctx, bot, chatID, image)
	})
}

func (a *App) send(ctx context.Context, chatID int64, fn func(bot *tele.Bot) error) {
	bot := a.bot.Load()
	if bot == nil {
		logger.Warn(ctx, "tg", "send.skip",
			slog.Int64("chat_id", chatID),
			slog.String("cause", "bot not started"),
		)
		return
	}
	if err := fn(bot); err != nil {
		logger.Warn(ctx, "tg", "send",
			slog.Int64("chat_id", chatID),
			slog.String("outcome", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

var _ flow.Fetcher = (*App)(nil)
var _ flow.Responder = (*App)(nil)
