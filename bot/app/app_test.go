package app

import (
	"strings"
	"testing"
	"time"

	"github.com/artfuse/stylebot/bot/history"
)

func TestFormatStatsWithoutRecentJobs(t *testing.T) {
	got := formatStats(history.Stats{Total: 3, OK: 2, DomainError: 1}, nil, 4)

	want := "Synthesis jobs: 3 total\n- ok: 2\n- rejected: 1\n- failed: 0\nActive sessions: 4"
	if got != want {
		t.Fatalf("formatStats = %q, want %q", got, want)
	}
}

func TestFormatStatsListsRecentJobs(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	recent := []history.Job{
		{Status: "ok", DurationMS: 1200, CreatedAt: at},
		{Status: "error", DurationMS: 50, CreatedAt: at.Add(-time.Minute)},
	}

	got := formatStats(history.Stats{Total: 2, OK: 1, Failed: 1}, recent, 0)

	if !strings.Contains(got, "Recent:") {
		t.Fatalf("reply missing recent section: %q", got)
	}
	if !strings.Contains(got, "2026-08-30 12:00:00 ok 1200ms") {
		t.Fatalf("reply missing first job line: %q", got)
	}
	if !strings.Contains(got, "2026-08-30 11:59:00 error 50ms") {
		t.Fatalf("reply missing second job line: %q", got)
	}
}
