package heapdb

import "sync"

// DB is the external facade described by spec §External Interface: a
// single schema-tagged heap file opened once and driven through Insert,
// Read, Update, Delete, and Commit.
type DB struct {
	heap *Heap

	mu     sync.Mutex
	schema Schema
}

// OpenDB opens (or creates) a heap file at path and wraps it behind the
// typed record API. The schema is captured from the first Insert call and
// held fixed for the DB's remaining lifetime (spec §6 Operation Mapping).
func OpenDB(path string, opts ...Option) (*DB, error) {
	h, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return &DB{heap: h}, nil
}

// Insert encodes values against schema and inserts the result. The schema
// used by the first call to Insert on a given DB is remembered and
// compared against on every later call; passing a different field count or
// type sequence returns ErrSchemaMismatch without touching the heap file.
func (db *DB) Insert(values []Value, schema Schema) error {
	db.mu.Lock()
	if db.schema == nil {
		db.schema = schema
	} else if !sameSchema(db.schema, schema) {
		db.mu.Unlock()
		return newError(ErrSchemaMismatch, "insert schema differs from the schema first used on this DB", nil)
	}
	db.mu.Unlock()

	record, err := EncodeRecord(values, schema)
	if err != nil {
		return err
	}
	return db.heap.InsertRecord(record)
}

// Read locates the record keyed by id and decodes it against schema.
func (db *DB) Read(id uint32, schema Schema) ([]Value, error) {
	raw, err := db.heap.ReadRecord(encodeKey(id))
	if err != nil {
		return nil, err
	}
	return DecodeRecord(raw, schema)
}

// Update re-encodes values against schema and overwrites the record keyed
// by id, possibly relocating it to a different page.
func (db *DB) Update(id uint32, values []Value, schema Schema) error {
	record, err := EncodeRecord(values, schema)
	if err != nil {
		return err
	}
	return db.heap.UpdateRecord(encodeKey(id), record)
}

// Delete tombstones the record keyed by id. A missing id is not an error.
func (db *DB) Delete(id uint32) error {
	return db.heap.DeleteRecord(encodeKey(id))
}

// Commit flushes every in-memory directory and data page to disk.
func (db *DB) Commit() error {
	return db.heap.Commit()
}

func sameSchema(a, b Schema) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
