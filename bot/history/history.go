// Package history persists synthesis outcomes for operational stats.
// Conversation state never touches the database; only finished
// synthesis attempts are recorded.
package history

import (
	"context"
	"time"

	"github.com/artfuse/stylebot/bot/flow"
	"github.com/artfuse/stylebot/core/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"log/slog"
)

const logComponent = "db.history"

// Job is one recorded synthesis attempt.
type Job struct {
	ID         string    `db:"id"`
	UserID     int64     `db:"user_id"`
	ChatID     int64     `db:"chat_id"`
	Status     string    `db:"status"`
	Detail     string    `db:"detail"`
	DurationMS int64     `db:"duration_ms"`
	CreatedAt  time.Time `db:"created_at"`
}

// Stats aggregates recorded jobs per status.
type Stats struct {
	Total       int64 `db:"total"`
	OK          int64 `db:"ok"`
	DomainError int64 `db:"domain_error"`
	Failed      int64 `db:"failed"`
}

// Store writes and reads synthesis history.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const insertJob = `
INSERT INTO style_jobs (id, user_id, chat_id, status, detail, duration_ms, created_at)
VALUES (:id, :user_id, :chat_id, :status, :detail, :duration_ms, :created_at)`

// Record persists one outcome. Failures are logged and swallowed so a
// database hiccup never disturbs the conversation.
func (s *Store) Record(ctx context.Context, o flow.Outcome) {
	job := Job{
		ID:         uuid.NewString(),
		UserID:     o.UserID,
		ChatID:     o.ChatID,
		Status:     o.Status,
		Detail:     o.Detail,
		DurationMS: o.Duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.db.NamedExecContext(ctx, insertJob, job); err != nil {
		logger.Warn(ctx, logComponent, "history.record",
			slog.String("outcome", "fail"),
			slog.String("job_id", job.ID),
			slog.String("err", err.Error()),
		)
		return
	}

	logger.Debug(ctx, logComponent, "history.record",
		slog.String("outcome", "ok"),
		slog.String("job_id", job.ID),
		slog.String("status", job.Status),
	)
}

const selectStats = `
SELECT
    COUNT(*) AS total,
    COUNT(*) FILTER (WHERE status = 'ok') AS ok,
    COUNT(*) FILTER (WHERE status = 'domain_error') AS domain_error,
    COUNT(*) FILTER (WHERE status = 'error') AS failed
FROM style_jobs`

// ReadStats returns aggregate counts over all recorded jobs.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := s.db.GetContext(ctx, &out, selectStats); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// RecentJobs returns the newest jobs up to limit.
func (s *Store) RecentJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 10
	}
	var jobs []Job
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT id, user_id, chat_id, status, detail, duration_ms, created_at
		 FROM style_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
