package bot

import (
	"fmt"
	"strings"
	"time"

	"cleanmeta/internal/model"
)

// maxMessageLen keeps replies under Telegram's 4096 character limit.
const maxMessageLen = 4000

// FormatReport formats a cleanup result with its status prefix.
func FormatReport(r model.Report) string {
	return r.Status.Prefix() + r.Message
}

// FormatLogs formats the report history, most recent first.
func FormatLogs(entries []model.LogEntry) string {
	if len(entries) == 0 {
		return "No logs recorded yet."
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "=== [%s] ===\n%s\n\n", e.Key(), e.Report)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSchedule describes the current cleanup schedule.
func FormatSchedule(cfg model.ScheduleConfig, next time.Time, scheduled bool) string {
	if !scheduled {
		return "No cleanup scheduled."
	}
	return fmt.Sprintf("Cleanup runs every %d days.\nNext Scheduled Run: %s",
		cfg.IntervalDays, next.Format(model.LogTimeLayout))
}

// Truncate shortens text to fit into a single message.
func Truncate(text string) string {
	r := []rune(text)
	if len(r) <= maxMessageLen {
		return text
	}
	return string(r[:maxMessageLen]) + "\n…"
}
