package heapdb

import (
	"path/filepath"
	"testing"
)

func TestHeapInsertReadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	rec := recordWithKey(t, 1, "hello heap")
	if err := h.InsertRecord(rec); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	got, err := h.ReadRecord(encodeKey(1))
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if string(got) != string(rec) {
		t.Fatalf("ReadRecord mismatch: got %q, want %q", got, rec)
	}

	if err := h.DeleteRecord(encodeKey(1)); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if _, err := h.ReadRecord(encodeKey(1)); !IsNotFound(err) {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
}

func TestHeapDeleteMissingKeyIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := h.DeleteRecord(encodeKey(404)); err != nil {
		t.Fatalf("deleting an absent key should not error, got %v", err)
	}
}

func TestHeapUpdateRelocatesOnGrowth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	h.InsertRecord(recordWithKey(t, 1, "a"))

	longer := recordWithKey(t, 1, "a record long enough to force relocation logic to run")
	if err := h.UpdateRecord(encodeKey(1), longer); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}

	got, err := h.ReadRecord(encodeKey(1))
	if err != nil {
		t.Fatalf("ReadRecord after update failed: %v", err)
	}
	if string(got) != string(longer) {
		t.Fatalf("post-update record mismatch: got %q, want %q", got, longer)
	}
}

func TestHeapCommitAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	h.InsertRecord(recordWithKey(t, 1, "persisted across commit"))
	if err := h.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := reopened.ReadRecord(encodeKey(1))
	if err != nil {
		t.Fatalf("ReadRecord after reopen failed: %v", err)
	}
	if string(got) != string(recordWithKey(t, 1, "persisted across commit")) {
		t.Fatalf("record mismatch after reopen: %q", got)
	}
}

func TestHeapChainsDirectoriesUnderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.db")
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	const n = 1000
	for i := uint32(0); i < n; i++ {
		if err := h.InsertRecord(recordWithKey(t, i, "payload-for-load-test")); err != nil {
			t.Fatalf("InsertRecord(%d) failed: %v", i, err)
		}
	}

	if len(h.directories) < 2 {
		t.Fatalf("expected directory chaining under load, got %d directories", len(h.directories))
	}

	for i := uint32(0); i < n; i++ {
		if _, err := h.ReadRecord(encodeKey(i)); err != nil {
			t.Fatalf("ReadRecord(%d) failed: %v", i, err)
		}
	}
}
