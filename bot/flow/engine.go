// Package flow implements the style transfer conversation.
//
// The engine is transport-agnostic. Both ingress variants, webhook and
// long polling, normalize updates into Events and feed them through
// Handle, so the conversation behaves identically regardless of how
// updates arrive.
package flow

import (
	"context"
	"errors"
	"time"

	"github.com/artfuse/stylebot/bot/session"
	"github.com/artfuse/stylebot/bot/styler"
	"github.com/artfuse/stylebot/core/logger"
	"github.com/artfuse/stylebot/core/telegram/format"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

const logComponent = "flow"

// Fetcher downloads the bytes of a photo the user sent.
type Fetcher interface {
	Fetch(ctx context.Context, photo *tele.Photo) ([]byte, error)
}

// Responder delivers replies to a chat. Implementations must preserve
// per-chat call order.
type Responder interface {
	Text(ctx context.Context, chatID int64, text string)
	Markdown(ctx context.Context, chatID int64, text string)
	HTML(ctx context.Context, chatID int64, text string)
	Photo(ctx context.Context, chatID int64, image []byte)
}

// Outcome statuses recorded per synthesis attempt.
const (
	StatusOK          = "ok"
	StatusDomainError = "domain_error"
	StatusError       = "error"
)

// Outcome summarizes one finished synthesis attempt.
type Outcome struct {
	UserID   int64
	ChatID   int64
	Status   string
	Detail   string
	Duration time.Duration
}

// Recorder persists synthesis outcomes. It must never block the
// conversation on failure.
type Recorder interface {
	Record(ctx context.Context, o Outcome)
}

// Engine drives the per-user conversation state machine.
type Engine struct {
	sessions *session.Store
	fetch    Fetcher
	styler   styler.Synthesizer
	out      Responder
	rec      Recorder
}

// NewEngine wires the conversation engine. rec may be nil when outcome
// history is disabled.
func NewEngine(sessions *session.Store, fetch Fetcher, syn styler.Synthesizer, out Responder, rec Recorder) *Engine {
	return &Engine{
		sessions: sessions,
		fetch:    fetch,
		styler:   syn,
		out:      out,
		rec:      rec,
	}
}

// Sessions exposes the underlying store for introspection commands.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// Handle processes one inbound event to completion, including any
// synthesis it triggers. Events for the same user are serialized by
// the session store; callers may invoke Handle concurrently.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case KindCommand:
		e.handleCommand(ctx, ev)
	case KindPhoto:
		e.handlePhoto(ctx, ev)
	default:
		logger.Debug(ctx, logComponent, "event.ignored",
			slog.Int64("user_id", ev.UserID),
		)
	}
}

func (e *Engine) handleCommand(ctx context.Context, ev Event) {
	switch ev.Command {
	case "start":
		e.sessions.Do(ev.UserID, ev.ChatID, func(s *session.Session) {
			s.Reset()
			e.out.Markdown(ctx, ev.ChatID, greeting(format.EscapeName(ev.Username)))
		})
	case "help":
		e.out.Markdown(ctx, ev.ChatID, msgHelp)
	case "about":
		e.out.HTML(ctx, ev.ChatID, msgAbout)
	case "cancel":
		if e.sessions.Remove(ev.UserID) {
			e.out.Text(ctx, ev.ChatID, msgCanceled)
		} else {
			e.out.Text(ctx, ev.ChatID, msgNothingCancel)
		}
	default:
		logger.Debug(ctx, logComponent, "command.unknown",
			slog.Int64("user_id", ev.UserID),
			slog.String("payload", logger.Sanitize(ev.Command)),
		)
	}
}

func (e *Engine) handlePhoto(ctx context.Context, ev Event) {
	// The lock is taken before the file download so the user's photos
	// are processed in arrival order. Fetching outside it would let a
	// faster download overtake an earlier one and swap slot roles.
	e.sessions.Do(ev.UserID, ev.ChatID, func(s *session.Session) {
		image, err := e.fetch.Fetch(ctx, ev.Photo)
		if err != nil {
			logger.Warn(ctx, logComponent, "photo.fetch",
				slog.Int64("user_id", ev.UserID),
				slog.String("outcome", "fail"),
				slog.String("err", err.Error()),
			)
			s.Reset()
			e.out.Text(ctx, ev.ChatID, fetchErrorText(err))
			return
		}

		switch {
		case s.Content == nil:
			s.Content = image
			e.out.Markdown(ctx, ev.ChatID, msgGotContent)
			logger.Debug(ctx, logComponent, "photo.stored",
				slog.Int64("user_id", ev.UserID),
				slog.String("state", s.State().String()),
				slog.Int("bytes", len(image)),
			)

		case s.Style == nil:
			s.Style = image
			e.synthesize(ctx, s)
			s.Reset()

		default:
			// Both slots occupied. Should not happen since every
			// synthesis resets the session, but a stray photo after a
			// crash-free path is treated as a fresh content image.
			s.Reset()
			s.Content = image
			e.out.Markdown(ctx, ev.ChatID, msgReplacedBoth)
		}
	})
}

// synthesize runs one full synthesis round for a session whose slots
// are both filled. The per-user lock is held for the whole call, so a
// photo arriving mid-synthesis waits and then starts a fresh round.
func (e *Engine) synthesize(ctx context.Context, s *session.Session) {
	e.out.Text(ctx, s.ChatID, msgProcessing)

	start := time.Now()
	result, err := e.styler.Synthesize(ctx, s.Content, s.Style)
	took := time.Since(start)

	outcome := Outcome{
		UserID:   s.UserID,
		ChatID:   s.ChatID,
		Duration: took,
	}

	var de *styler.DomainError
	switch {
	case err == nil:
		e.out.Photo(ctx, s.ChatID, result)
		e.out.Markdown(ctx, s.ChatID, msgDone)
		outcome.Status = StatusOK
		logger.Info(ctx, logComponent, "synthesis",
			slog.Int64("user_id", s.UserID),
			slog.String("outcome", "ok"),
			slog.Int("bytes", len(result)),
			slog.Duration("duration", logger.RoundMS(took)),
		)

	case errors.As(err, &de):
		e.out.Text(ctx, s.ChatID, domainErrorText(de.Reason))
		outcome.Status = StatusDomainError
		outcome.Detail = de.Reason
		logger.Info(ctx, logComponent, "synthesis",
			slog.Int64("user_id", s.UserID),
			slog.String("outcome", "domain_error"),
			slog.String("cause", logger.Sanitize(de.Reason)),
			slog.Duration("duration", logger.RoundMS(took)),
		)

	default:
		e.out.Text(ctx, s.ChatID, synthesisErrorText(err))
		outcome.Status = StatusError
		outcome.Detail = err.Error()
		logger.Error(ctx, logComponent, "synthesis",
			slog.Int64("user_id", s.UserID),
			slog.String("outcome", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	}

	if e.rec != nil {
		e.rec.Record(ctx, outcome)
	}
}
