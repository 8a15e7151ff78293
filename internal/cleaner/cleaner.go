// Package cleaner removes duplicate metadata rows, keeping the newest row per
// item and key.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cleanmeta/internal/model"
	"cleanmeta/internal/storage"
)

// MsgRequired is reported when a target lacks an item id or key.
const MsgRequired = "Post ID and meta key are required."

// Reporter receives progress and result messages as they are produced.
type Reporter interface {
	Report(status model.ReportStatus, msg string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(status model.ReportStatus, msg string)

// Report calls f.
func (f ReporterFunc) Report(status model.ReportStatus, msg string) { f(status, msg) }

type discard struct{}

func (discard) Report(model.ReportStatus, string) {}

// Recorder persists the text of a completed batch run.
type Recorder interface {
	Record(ctx context.Context, report string) error
}

// RunOptions controls a batch run.
type RunOptions struct {
	// Record appends the report to the log history. Interactive command
	// runs leave it false.
	Record bool
	// Output receives messages as they are produced. Nil discards them.
	Output Reporter
}

// Cleaner deduplicates metadata rows.
type Cleaner struct {
	store    storage.MetaStore
	recorder Recorder
	spec     model.BatchSpec
	log      *slog.Logger
}

// New creates a Cleaner. recorder may be nil when runs are never recorded.
func New(store storage.MetaStore, recorder Recorder, spec model.BatchSpec, log *slog.Logger) *Cleaner {
	return &Cleaner{
		store:    store,
		recorder: recorder,
		spec:     spec,
		log:      log,
	}
}

// Spec returns the batch definition used by CleanAll.
func (c *Cleaner) Spec() model.BatchSpec {
	return c.spec
}

// Clean deletes every row of target except the one with the highest meta_id.
// The returned error is set only when the store fails.
func (c *Cleaner) Clean(ctx context.Context, target model.DedupTarget, out Reporter) (model.Report, error) {
	if out == nil {
		out = discard{}
	}
	emit := func(r model.Report) model.Report {
		out.Report(r.Status, r.Message)
		return r
	}

	if !target.Valid() {
		return emit(model.Report{Status: model.StatusError, Message: MsgRequired}), nil
	}

	out.Report(model.StatusLog, fmt.Sprintf("Cleaning meta key: %s for Post ID: %d...", target.Key, target.ItemID))

	count, err := c.store.CountMeta(ctx, target.ItemID, target.Key)
	if err != nil {
		return model.Report{}, err
	}
	if count <= 1 {
		return emit(model.Report{
			Status:  model.StatusSuccess,
			Message: fmt.Sprintf("No duplicates found for Post ID: %d, Meta Key: %s.", target.ItemID, target.Key),
		}), nil
	}

	keepID, ok, err := c.store.MaxMetaID(ctx, target.ItemID, target.Key)
	if err != nil {
		return model.Report{}, err
	}
	if !ok {
		c.log.Warn("meta rows vanished between count and max", "item_id", target.ItemID, "key", target.Key, "count", count)
		return emit(model.Report{Status: model.StatusWarning, Message: "No matching entries found."}), nil
	}

	deleted, err := c.store.DeleteMetaBefore(ctx, target.ItemID, target.Key, keepID)
	if err != nil {
		return model.Report{}, err
	}

	c.log.Debug("deduplicated meta", "item_id", target.ItemID, "key", target.Key, "deleted", deleted, "kept", keepID)
	return emit(model.Report{
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("Deleted %d entries. Kept meta_id: %d.", deleted, keepID),
	}), nil
}

// CleanAll runs Clean for every key of the batch definition on every matching item
// and returns the combined report text.
func (c *Cleaner) CleanAll(ctx context.Context, opts RunOptions) (string, error) {
	out := opts.Output
	if out == nil {
		out = discard{}
	}

	ids, err := c.store.ListItemIDs(ctx, c.spec.ItemType, c.spec.Status)
	if err != nil {
		return "", fmt.Errorf("list %s items: %w", c.spec.ItemType, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s items.\n", len(ids), c.spec.ItemType)

	for _, id := range ids {
		for _, key := range c.spec.Keys {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			r, err := c.Clean(ctx, model.DedupTarget{ItemID: id, Key: key}, out)
			if err != nil {
				return "", fmt.Errorf("clean item %d key %s: %w", id, key, err)
			}
			b.WriteString(r.Message)
			b.WriteString("\n")
		}
	}

	out.Report(model.StatusSuccess, "Finished cleaning meta keys.")
	report := b.String()
	c.log.Info("batch cleanup finished", "items", len(ids), "keys", len(c.spec.Keys), "recorded", opts.Record)

	if opts.Record && c.recorder != nil {
		if err := c.recorder.Record(ctx, report); err != nil {
			return report, fmt.Errorf("record report: %w", err)
		}
	}

	return report, nil
}
