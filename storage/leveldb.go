// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from storage/database/leveldb_database.go, trimmed to
// the narrow key/value surface the peer-book blob needs (no per-table
// metering, no batches, no child-chain specifics).

// Package storage presents the single collaborator the networking core needs
// from the ledger-adjacent store: a reserved-key blob get/put used to persist
// the peer book (spec §4.2, §6). The ledger's own block/tx schema is an
// external collaborator and out of scope here.
package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/ground-x/kcore/log"
)

// Store is the narrow KV surface the networking core depends on. A real
// ledger store typically implements many more tables; only this slice of it
// is a collaborator of the p2p/sync core.
type Store interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Close()
}

type levelDB struct {
	fn  string
	db  *leveldb.DB
	log log.Logger
}

// OpenFileLimit matches the teacher's default number of concurrently open
// LevelDB file handles.
var OpenFileLimit = 64

// NewLevelDBStore opens (or creates) a LevelDB database at the given path,
// attempting a recovery pass if the existing database is corrupted -- the
// same fallback storage/database/leveldb_database.go performs.
func NewLevelDBStore(file string, cacheSizeMB, numHandles int) (Store, error) {
	logger := log.New("database", file)

	if cacheSizeMB < 16 {
		cacheSizeMB = 16
	}
	if numHandles < 16 {
		numHandles = OpenFileLimit
	}

	opts := &opt.Options{
		OpenFilesCacheCapacity: numHandles,
		BlockCacheCapacity:     cacheSizeMB / 2 * opt.MiB,
		WriteBuffer:            cacheSizeMB / 4 * opt.MiB,
	}

	db, err := leveldb.OpenFile(file, opts)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &levelDB{fn: file, db: db, log: logger}, nil
}

func (db *levelDB) Put(key, value []byte) error {
	return db.db.Put(key, value, nil)
}

func (db *levelDB) Get(key []byte) ([]byte, error) {
	return db.db.Get(key, nil)
}

func (db *levelDB) Has(key []byte) (bool, error) {
	return db.db.Has(key, nil)
}

func (db *levelDB) Delete(key []byte) error {
	return db.db.Delete(key, nil)
}

func (db *levelDB) Close() {
	if err := db.db.Close(); err != nil {
		db.log.Error("failed to close database", "err", err)
		return
	}
	db.log.Info("database closed")
}
