//go:build rocksdb

package compat

import (
	"github.com/tecbot/gorocksdb"
)

// OracleRocks is an Oracle backed by RocksDB. Built only with the
// "rocksdb" tag: its cgo footprint is the heaviest in the pack, so it
// stays opt-in rather than part of the default compat suite.
type OracleRocks struct {
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

// NewOracleRocks opens (creating if needed) a RocksDB database at path.
func NewOracleRocks(path string) (*OracleRocks, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	db, err := gorocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, err
	}
	return &OracleRocks{
		db: db,
		ro: gorocksdb.NewDefaultReadOptions(),
		wo: gorocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (o *OracleRocks) Put(key, value []byte) error {
	return o.db.Put(o.wo, key, value)
}

func (o *OracleRocks) Get(key []byte) ([]byte, bool, error) {
	slice, err := o.db.Get(o.ro, key)
	if err != nil {
		return nil, false, err
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, false, nil
	}
	return append([]byte(nil), slice.Data()...), true, nil
}

func (o *OracleRocks) Delete(key []byte) error {
	return o.db.Delete(o.wo, key)
}

func (o *OracleRocks) Close() error {
	o.db.Close()
	return nil
}
