// Package logstore keeps a bounded history of batch reports in the option store.
package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cleanmeta/internal/model"
	"cleanmeta/internal/storage"
)

// OptionName is the option under which the history is persisted.
const OptionName = "logger"

// MaxEntries is the number of reports retained.
const MaxEntries = 10

type persistedEntry struct {
	Timestamp string `json:"timestamp"`
	Report    string `json:"report"`
}

// Store is the report history. Entries are persisted oldest first.
type Store struct {
	opts storage.OptionStore
	now  func() time.Time
}

// New creates a Store backed by opts, stamping entries with the local clock.
func New(opts storage.OptionStore) *Store {
	return &Store{opts: opts, now: time.Now}
}

// Record appends report stamped with the current time.
func (s *Store) Record(ctx context.Context, report string) error {
	return s.Append(ctx, model.LogEntry{
		Timestamp: s.now().Local().Truncate(time.Second),
		Report:    report,
	})
}

// Append adds entry and keeps only the newest MaxEntries. An entry whose
// timestamp matches an existing one replaces it in place.
func (s *Store) Append(ctx context.Context, entry model.LogEntry) error {
	entries, err := s.load(ctx)
	if err != nil {
		return err
	}

	pe := persistedEntry{Timestamp: entry.Key(), Report: entry.Report}
	replaced := false
	for i := range entries {
		if entries[i].Timestamp == pe.Timestamp {
			entries[i] = pe
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, pe)
	}
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}

	return s.save(ctx, entries)
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	return s.save(ctx, []persistedEntry{})
}

// List returns the entries, most recent first.
func (s *Store) List(ctx context.Context) ([]model.LogEntry, error) {
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.LogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		ts, err := time.ParseInLocation(model.LogTimeLayout, entries[i].Timestamp, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse log timestamp %q: %w", entries[i].Timestamp, err)
		}
		out = append(out, model.LogEntry{Timestamp: ts, Report: entries[i].Report})
	}
	return out, nil
}

func (s *Store) load(ctx context.Context) ([]persistedEntry, error) {
	raw, ok, err := s.opts.GetOption(ctx, OptionName)
	if err != nil {
		return nil, fmt.Errorf("load log: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var entries []persistedEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}
	return entries, nil
}

func (s *Store) save(ctx context.Context, entries []persistedEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}
	if err := s.opts.SetOption(ctx, OptionName, string(data)); err != nil {
		return fmt.Errorf("save log: %w", err)
	}
	return nil
}
