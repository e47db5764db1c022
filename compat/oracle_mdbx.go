//go:build mdbx

package compat

import (
	"runtime"

	mdbx "github.com/erigontech/mdbx-go/mdbx"
)

// OracleMdbx is an Oracle backed by libmdbx via cgo. Built only with the
// "mdbx" tag, the sibling of the "rocksdb" tag: both isolate their heavier
// cgo comparisons out of the default compat suite.
type OracleMdbx struct {
	env *mdbx.Env
	dbi mdbx.DBI
}

// NewOracleMdbx opens (creating if needed) an mdbx environment at path.
func NewOracleMdbx(path string) (*OracleMdbx, error) {
	runtime.LockOSThread()

	env, err := mdbx.NewEnv(mdbx.Label("heapdb-compat"))
	if err != nil {
		return nil, err
	}
	env.SetGeometry(-1, -1, 1<<30, -1, -1, 4096)
	if err := env.Open(path, mdbx.Create, 0644); err != nil {
		env.Close()
		return nil, err
	}

	var dbi mdbx.DBI
	err = env.Update(func(txn *mdbx.Txn) error {
		var err error
		dbi, err = txn.OpenRoot(0)
		return err
	})
	if err != nil {
		env.Close()
		return nil, err
	}

	return &OracleMdbx{env: env, dbi: dbi}, nil
}

func (o *OracleMdbx) Put(key, value []byte) error {
	return o.env.Update(func(txn *mdbx.Txn) error {
		return txn.Put(o.dbi, key, value, 0)
	})
}

func (o *OracleMdbx) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := o.env.View(func(txn *mdbx.Txn) error {
		v, err := txn.Get(o.dbi, key)
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, out != nil, err
}

func (o *OracleMdbx) Delete(key []byte) error {
	return o.env.Update(func(txn *mdbx.Txn) error {
		err := txn.Del(o.dbi, key, nil)
		if mdbx.IsNotFound(err) {
			return nil
		}
		return err
	})
}

func (o *OracleMdbx) Close() error {
	o.env.Close()
	runtime.UnlockOSThread()
	return nil
}
