// Package model defines the domain types used across the application.
package model

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Item is a content record whose metadata is being cleaned.
type Item struct {
	ID     int64
	Type   string
	Status string
}

// MetaRow is a single key/value attribute attached to an item.
type MetaRow struct {
	MetaID int64
	ItemID int64
	Key    string
	Value  string
}

// DedupTarget identifies one (item, key) pair to deduplicate.
type DedupTarget struct {
	ItemID int64
	Key    string
}

// NewDedupTarget builds a target from raw user input. The id is read from the
// leading digits of rawID, so "42abc" is 42; anything without a positive
// leading integer becomes 0. The key is reduced to plain text.
func NewDedupTarget(rawID, rawKey string) DedupTarget {
	return DedupTarget{ItemID: leadingInt(rawID), Key: SanitizeKey(rawKey)}
}

func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	s = strings.TrimPrefix(s, "+")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	id, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Valid reports whether both the item id and the key are set.
func (t DedupTarget) Valid() bool {
	return t.ItemID > 0 && t.Key != ""
}

// SanitizeKey strips tags from s and collapses whitespace. Invalid UTF-8
// yields "". A "<" that does not open a tag and any entity are kept as typed.
func SanitizeKey(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	if escaped, tagged := escapeStrayMarkup(s); tagged {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(escaped)); err == nil {
			doc.Find("script, style").Remove()
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// escapeStrayMarkup escapes every "&" and every "<" that does not start a
// complete tag, so that parsing s as HTML drops only its tags. tagged is
// false when s holds no tag at all.
func escapeStrayMarkup(s string) (escaped string, tagged bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '&':
			b.WriteString("&amp;")
		case c == '<' && opensTag(s[i+1:]):
			tagged = true
			b.WriteByte(c)
		case c == '<':
			b.WriteString("&lt;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), tagged
}

// opensTag reports whether rest, the text after a "<", is a tag name, a
// closing tag or a declaration ended by ">" before any further "<".
func opensTag(rest string) bool {
	if rest == "" {
		return false
	}
	c := rest[0]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '/' || c == '!') {
		return false
	}
	end := strings.IndexAny(rest, "<>")
	return end >= 0 && rest[end] == '>'
}

// BatchSpec describes which items and keys a full run covers.
type BatchSpec struct {
	ItemType string   `toml:"item_type"`
	Status   string   `toml:"status"`
	Keys     []string `toml:"keys"`
}

// DefaultBatchSpec returns the built-in batch definition.
func DefaultBatchSpec() BatchSpec {
	return BatchSpec{
		ItemType: "events",
		Status:   "published",
		Keys: []string{
			"_tribe_modified_fields",
			"_uag_page_assets",
			"_uag_css_file_name",
			"_edit_lock",
		},
	}
}

// LogTimeLayout is the key format of log entries.
const LogTimeLayout = "2006-01-02 15:04:05"

// LogEntry is one recorded batch report.
type LogEntry struct {
	Timestamp time.Time
	Report    string
}

// Key returns the identity of the entry in the log history.
func (e LogEntry) Key() string {
	return e.Timestamp.Format(LogTimeLayout)
}

// ScheduleConfig holds the operator-configured cleanup interval.
type ScheduleConfig struct {
	IntervalDays int
}

// Interval returns the configured interval, or zero when unscheduled.
func (c ScheduleConfig) Interval() time.Duration {
	if c.IntervalDays <= 0 {
		return 0
	}
	return time.Duration(c.IntervalDays) * 24 * time.Hour
}

// ReportStatus classifies the outcome of an operation.
type ReportStatus string

// Supported report statuses.
const (
	StatusLog     ReportStatus = "log"
	StatusSuccess ReportStatus = "success"
	StatusWarning ReportStatus = "warning"
	StatusError   ReportStatus = "error"
)

// Prefix returns the label printed before a message of this status.
func (s ReportStatus) Prefix() string {
	switch s {
	case StatusSuccess:
		return "Success: "
	case StatusWarning:
		return "Warning: "
	case StatusError:
		return "Error: "
	default:
		return ""
	}
}

// Report is the result of cleaning a single target.
type Report struct {
	Status  ReportStatus
	Message string
}
