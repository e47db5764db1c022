// Package compat cross-checks heapdb's CRUD semantics against other
// embedded key/value engines from the retrieval pack: run the same
// randomized sequence of insert/update/delete operations against heapdb
// and an oracle, then assert the two agree on the final key set.
package compat

// Oracle is a reference key/value store used to validate heapdb's CRUD
// results against an independent implementation.
type Oracle interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, bool, error)
	Delete(key []byte) error
	Close() error
}
