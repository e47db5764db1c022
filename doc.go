// Package heapdb is a slotted-page heap file: fixed-size pages holding
// variable-length records, grouped into directory pages that chain
// together to form one growable file. Records are addressed by a 4-byte
// key (their first encoded field) and found by walking the directory
// chain, each directory scanning every slot of its data pages in turn.
// Each page also keeps an in-memory B+ tree index of its keys, filled on
// insert; lookups through the directory chain do not consult it.
//
// There is no transaction log, no locking, and no crash-consistency
// guarantee: Commit writes whatever is currently cached to its
// page-numbered offset and nothing more.
package heapdb
