package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cleanmeta/internal/model"
	"cleanmeta/internal/storage"
)

func testDB(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"DATABASE_PATH", "LOG_LEVEL", "ADMIN_USER", "ADMIN_PASSWORD", "ALLOWED_USERS", "BATCH_CONFIG"} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "data", "cleanmeta.db")
}

func seed(t *testing.T, path, key string, n int) int64 {
	t.Helper()
	ctx := context.Background()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create db dir: %v", err)
	}
	store, err := storage.NewSQLite(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	item := &model.Item{Type: "events", Status: "published"}
	if err := store.CreateItem(ctx, item); err != nil {
		t.Fatalf("create item: %v", err)
	}
	for range n {
		if err := store.AddMeta(ctx, &model.MetaRow{ItemID: item.ID, Key: key, Value: "v"}); err != nil {
			t.Fatalf("add meta: %v", err)
		}
	}
	return item.ID
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCapture(t, args...)
	return out, err
}

func runCapture(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	root := newRootCmd(&outBuf, &errBuf)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

func TestCleanCommand(t *testing.T) {
	db := testDB(t)
	id := seed(t, db, "_edit_lock", 3)
	sid := strconv.FormatInt(id, 10)

	out, err := run(t, "--db", db, "clean", sid, "_edit_lock")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	want := "Cleaning meta key: _edit_lock for Post ID: " + sid + "...\n" +
		"Success: Deleted 2 entries. Kept meta_id: 3.\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanCommandRequiresTarget(t *testing.T) {
	db := testDB(t)

	out, err := run(t, "--db", db, "clean", "abc", "_edit_lock")
	if !errors.Is(err, errReported) {
		t.Fatalf("err = %v, want errReported", err)
	}
	if diff := cmp.Diff("Error: Post ID and meta key are required.\n", out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanCommandArgs(t *testing.T) {
	db := testDB(t)
	if _, err := run(t, "--db", db, "clean", "1"); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestCleanAllRecordFlag(t *testing.T) {
	db := testDB(t)
	seed(t, db, "_edit_lock", 2)

	out, err := run(t, "--db", db, "clean-all")
	if err != nil {
		t.Fatalf("clean-all: %v", err)
	}
	if !strings.HasSuffix(out, "Success: Finished cleaning meta keys.\n") {
		t.Errorf("missing finish marker:\n%s", out)
	}

	logs, err := run(t, "--db", db, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if diff := cmp.Diff("No logs recorded yet.\n", logs); diff != "" {
		t.Errorf("unrecorded run left history (-want +got):\n%s", diff)
	}

	if _, err := run(t, "--db", db, "clean-all", "--record"); err != nil {
		t.Fatalf("clean-all --record: %v", err)
	}
	logs, err = run(t, "--db", db, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(logs, "Found 1 events items.") {
		t.Errorf("recorded run missing from logs:\n%s", logs)
	}

	out, err = run(t, "--db", db, "logs", "--clear")
	if err != nil {
		t.Fatalf("logs --clear: %v", err)
	}
	if diff := cmp.Diff("Success: Logs cleared.\n", out); diff != "" {
		t.Errorf("clear output mismatch (-want +got):\n%s", diff)
	}
}

func TestLogsGoToCommandStderr(t *testing.T) {
	db := testDB(t)
	seed(t, db, "_edit_lock", 2)

	out, logs, err := runCapture(t, "--db", db, "--log-level", "debug", "clean-all")
	if err != nil {
		t.Fatalf("clean-all: %v", err)
	}
	for _, want := range []string{"starting batch cleanup", "batch cleanup finished"} {
		if !strings.Contains(logs, want) {
			t.Errorf("stderr missing %q:\n%s", want, logs)
		}
		if strings.Contains(out, want) {
			t.Errorf("stdout carries log line %q", want)
		}
	}
}

func TestCleanAllBatchConfig(t *testing.T) {
	db := testDB(t)
	id := seed(t, db, "custom_key", 3)

	cfgPath := filepath.Join(t.TempDir(), "batch.toml")
	writeFile(t, cfgPath, "item_type = \"events\"\nstatus = \"published\"\nkeys = [\"custom_key\"]\n")

	out, err := run(t, "--db", db, "--batch-config", cfgPath, "clean-all")
	if err != nil {
		t.Fatalf("clean-all: %v", err)
	}
	if !strings.Contains(out, "Success: Deleted 2 entries. Kept meta_id: 3.") {
		t.Errorf("custom key not cleaned for item %d:\n%s", id, out)
	}
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	db := testDB(t)
	if _, err := run(t, "--db", db, "migrate", "sideways"); err == nil {
		t.Fatal("expected an error for an unknown migrate command")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
