package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cleanmeta/internal/model"
)

func TestParseCleanArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    model.DedupTarget
		wantErr bool
	}{
		{name: "simple", args: "42 _edit_lock", want: model.DedupTarget{ItemID: 42, Key: "_edit_lock"}},
		{name: "extra spaces", args: "  7   _uag_page_assets ", want: model.DedupTarget{ItemID: 7, Key: "_uag_page_assets"}},
		{name: "markup stripped", args: "7 <b>_edit_lock</b>", want: model.DedupTarget{ItemID: 7, Key: "_edit_lock"}},
		{name: "invalid id becomes zero", args: "abc _edit_lock", want: model.DedupTarget{ItemID: 0, Key: "_edit_lock"}},
		{name: "missing key", args: "42", wantErr: true},
		{name: "empty args", args: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCleanArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDaysArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int
		wantErr bool
	}{
		{name: "valid", args: "7", want: 7},
		{name: "with whitespace", args: "  3  ", want: 3},
		{name: "zero", args: "0", wantErr: true},
		{name: "negative", args: "-1", wantErr: true},
		{name: "empty", args: "", wantErr: true},
		{name: "not a number", args: "weekly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDaysArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatReport(t *testing.T) {
	tests := []struct {
		report model.Report
		want   string
	}{
		{model.Report{Status: model.StatusSuccess, Message: "Deleted 2 entries. Kept meta_id: 12."}, "Success: Deleted 2 entries. Kept meta_id: 12."},
		{model.Report{Status: model.StatusWarning, Message: "No matching entries found."}, "Warning: No matching entries found."},
		{model.Report{Status: model.StatusError, Message: "Post ID and meta key are required."}, "Error: Post ID and meta key are required."},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, FormatReport(tt.report)); diff != "" {
			t.Errorf("FormatReport mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestFormatLogs(t *testing.T) {
	if got := FormatLogs(nil); got != "No logs recorded yet." {
		t.Errorf("empty logs = %q", got)
	}

	base := time.Date(2026, 10, 17, 8, 0, 0, 0, time.Local)
	entries := []model.LogEntry{
		{Timestamp: base.Add(time.Hour), Report: "Found 1 events items.\nNo duplicates."},
		{Timestamp: base, Report: "Found 0 events items."},
	}
	want := "=== [2026-10-17 09:00:00] ===\nFound 1 events items.\nNo duplicates.\n\n" +
		"=== [2026-10-17 08:00:00] ===\nFound 0 events items."
	if diff := cmp.Diff(want, FormatLogs(entries)); diff != "" {
		t.Errorf("FormatLogs mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatSchedule(t *testing.T) {
	if got := FormatSchedule(model.ScheduleConfig{}, time.Time{}, false); got != "No cleanup scheduled." {
		t.Errorf("unscheduled = %q", got)
	}
	next := time.Date(2026, 10, 24, 10, 30, 0, 0, time.Local)
	want := "Cleanup runs every 7 days.\nNext Scheduled Run: 2026-10-24 10:30:00"
	if diff := cmp.Diff(want, FormatSchedule(model.ScheduleConfig{IntervalDays: 7}, next, true)); diff != "" {
		t.Errorf("FormatSchedule mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	short := "hello"
	if got := Truncate(short); got != short {
		t.Errorf("short text changed: %q", got)
	}
	long := strings.Repeat("ж", maxMessageLen+10)
	got := Truncate(long)
	if n := len([]rune(got)); n != maxMessageLen+2 {
		t.Errorf("truncated length = %d runes, want %d", n, maxMessageLen+2)
	}
}
