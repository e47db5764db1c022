package heapdb

import (
	"path/filepath"
	"testing"
)

func TestDBInsertReadUpdateDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}

	schema := Schema{TypeInt, TypeVarStr}
	values := []Value{IntValue(1), StringValue("first")}
	if err := db.Insert(values, schema); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := db.Read(1, schema)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got[1].VarStr != "first" {
		t.Fatalf("Read mismatch: got %q, want %q", got[1].VarStr, "first")
	}

	if err := db.Update(1, []Value{IntValue(1), StringValue("second")}, schema); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err = db.Read(1, schema)
	if err != nil {
		t.Fatalf("Read after update failed: %v", err)
	}
	if got[1].VarStr != "second" {
		t.Fatalf("Read after update mismatch: got %q, want %q", got[1].VarStr, "second")
	}

	if err := db.Delete(1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := db.Read(1, schema); !IsNotFound(err) {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
}

func TestDBRejectsSchemaChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}

	first := Schema{TypeInt, TypeVarStr}
	if err := db.Insert([]Value{IntValue(1), StringValue("a")}, first); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	second := Schema{TypeInt, TypeShort}
	err = db.Insert([]Value{IntValue(2), ShortValue(5)}, second)
	if err == nil {
		t.Fatal("expected an error inserting with a different schema")
	}
}

func TestDBCommitPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}

	schema := Schema{TypeInt, TypeVarStr}
	if err := db.Insert([]Value{IntValue(9), StringValue("durable")}, schema); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := db.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	reopened, err := OpenDB(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := reopened.Read(9, schema)
	if err != nil {
		t.Fatalf("Read after reopen failed: %v", err)
	}
	if got[1].VarStr != "durable" {
		t.Fatalf("Read after reopen mismatch: got %q, want %q", got[1].VarStr, "durable")
	}
}
