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

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// memoryStore backs an ephemeral node (no DataDir configured), matching the
// node/service.go ServiceContext.OpenDatabase fallback to an in-memory
// database.
type memoryStore struct {
	lock sync.RWMutex
	db   map[string][]byte
}

// NewMemoryStore returns a Store with no on-disk footprint, used for
// ephemeral nodes and tests.
func NewMemoryStore() Store {
	return &memoryStore{db: make(map[string][]byte)}
}

func (m *memoryStore) Put(key, value []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.db[string(key)] = cp
	return nil
}

func (m *memoryStore) Get(key []byte) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	v, ok := m.db[string(key)]
	if !ok {
		return nil, leveldb.ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *memoryStore) Has(key []byte) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.db[string(key)]
	return ok, nil
}

func (m *memoryStore) Delete(key []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.db, string(key))
	return nil
}

func (m *memoryStore) Close() {}
