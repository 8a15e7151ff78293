package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewDedupTarget(t *testing.T) {
	tests := []struct {
		name      string
		id, key   string
		want      DedupTarget
		wantValid bool
	}{
		{name: "plain", id: "42", key: "_edit_lock", want: DedupTarget{ItemID: 42, Key: "_edit_lock"}, wantValid: true},
		{name: "whitespace", id: " 7 ", key: "  _edit_lock\t\n", want: DedupTarget{ItemID: 7, Key: "_edit_lock"}, wantValid: true},
		{name: "tags stripped", id: "1", key: "<b>_edit_lock</b>", want: DedupTarget{ItemID: 1, Key: "_edit_lock"}, wantValid: true},
		{name: "script removed", id: "1", key: "<script>alert(1)</script>_k", want: DedupTarget{ItemID: 1, Key: "_k"}, wantValid: true},
		{name: "zero id", id: "0", key: "_edit_lock", want: DedupTarget{ItemID: 0, Key: "_edit_lock"}},
		{name: "negative id", id: "-5", key: "_edit_lock", want: DedupTarget{ItemID: 0, Key: "_edit_lock"}},
		{name: "not a number", id: "abc", key: "_edit_lock", want: DedupTarget{ItemID: 0, Key: "_edit_lock"}},
		{name: "empty key", id: "3", key: "   ", want: DedupTarget{ItemID: 3, Key: ""}},
		{name: "only markup", id: "3", key: "<br/>", want: DedupTarget{ItemID: 3, Key: ""}},
		{name: "leading digits", id: "42abc", key: "_edit_lock", want: DedupTarget{ItemID: 42, Key: "_edit_lock"}, wantValid: true},
		{name: "decimal truncated", id: "4.0", key: "_edit_lock", want: DedupTarget{ItemID: 4, Key: "_edit_lock"}, wantValid: true},
		{name: "plus sign", id: "+8", key: "_edit_lock", want: DedupTarget{ItemID: 8, Key: "_edit_lock"}, wantValid: true},
		{name: "overflow", id: "99999999999999999999", key: "_edit_lock", want: DedupTarget{ItemID: 0, Key: "_edit_lock"}},
		{name: "lone less-than kept", id: "1", key: "_a<b", want: DedupTarget{ItemID: 1, Key: "_a<b"}, wantValid: true},
		{name: "spaced comparison kept", id: "1", key: "x < y", want: DedupTarget{ItemID: 1, Key: "x < y"}, wantValid: true},
		{name: "entity kept", id: "1", key: "a&amp;b", want: DedupTarget{ItemID: 1, Key: "a&amp;b"}, wantValid: true},
		{name: "entity kept beside tags", id: "1", key: "a&amp;b<i></i>", want: DedupTarget{ItemID: 1, Key: "a&amp;b"}, wantValid: true},
		{name: "stray less-than beside tags", id: "1", key: "x<y <b>z</b>", want: DedupTarget{ItemID: 1, Key: "x<y z"}, wantValid: true},
		{name: "invalid utf8", id: "1", key: "bad\xffkey", want: DedupTarget{ItemID: 1, Key: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDedupTarget(tt.id, tt.key)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			if got.Valid() != tt.wantValid {
				t.Errorf("Valid() = %v, want %v", got.Valid(), tt.wantValid)
			}
		})
	}
}

func TestReportStatusPrefix(t *testing.T) {
	tests := []struct {
		status ReportStatus
		want   string
	}{
		{StatusLog, ""},
		{StatusSuccess, "Success: "},
		{StatusWarning, "Warning: "},
		{StatusError, "Error: "},
	}
	for _, tt := range tests {
		if got := tt.status.Prefix(); got != tt.want {
			t.Errorf("%s.Prefix() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestScheduleConfigInterval(t *testing.T) {
	if got := (ScheduleConfig{IntervalDays: 7}).Interval(); got != 7*24*time.Hour {
		t.Errorf("interval = %v, want 168h", got)
	}
	if got := (ScheduleConfig{}).Interval(); got != 0 {
		t.Errorf("interval = %v, want 0", got)
	}
}

func TestLogEntryKey(t *testing.T) {
	e := LogEntry{Timestamp: time.Date(2026, 10, 17, 9, 5, 3, 999, time.Local)}
	if diff := cmp.Diff("2026-10-17 09:05:03", e.Key()); diff != "" {
		t.Errorf("key mismatch (-want +got):\n%s", diff)
	}
}
