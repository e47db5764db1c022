package compat

import (
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("heapdb-compat")

// OracleBolt is an Oracle backed by a single bbolt bucket in its own
// file, used as the default cross-check engine (no cgo required).
type OracleBolt struct {
	db *bolt.DB
}

// NewOracleBolt opens (creating if needed) a bbolt database at path with
// the compat bucket ready to use.
func NewOracleBolt(path string) (*OracleBolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &OracleBolt{db: db}, nil
}

func (o *OracleBolt) Put(key, value []byte) error {
	return o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

func (o *OracleBolt) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := o.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, out != nil, err
}

func (o *OracleBolt) Delete(key []byte) error {
	return o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

func (o *OracleBolt) Close() error {
	return o.db.Close()
}
