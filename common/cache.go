// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/ground-x/kcore/log"
)

var logger = log.NewModuleLogger(log.Common)

// Cache is a small, fixed-size cache of recently seen keys. It backs the
// handshake nonce window (networks/p2p).
type Cache interface {
	Add(key interface{}, value interface{}) (evicted bool)
	Get(key interface{}) (value interface{}, ok bool)
	Contains(key interface{}) bool
	Remove(key interface{})
	Purge()
	Len() int
}

type lruCache struct {
	lru *lru.Cache
}

// NewLRUCache returns a Cache holding at most size entries, evicting the
// least recently used entry once full.
func NewLRUCache(size int) Cache {
	if size < 1 {
		size = 1
	}
	c, err := lru.New(size)
	if err != nil {
		// lru.New only fails for a non-positive size, which is guarded above.
		logger.Crit("failed to allocate LRU cache", "size", size, "err", err)
	}
	return &lruCache{lru: c}
}

func (c *lruCache) Add(key, value interface{}) (evicted bool) { return c.lru.Add(key, value) }
func (c *lruCache) Get(key interface{}) (interface{}, bool)   { return c.lru.Get(key) }
func (c *lruCache) Contains(key interface{}) bool             { return c.lru.Contains(key) }
func (c *lruCache) Remove(key interface{})                    { c.lru.Remove(key) }
func (c *lruCache) Purge()                                    { c.lru.Purge() }
func (c *lruCache) Len() int                                  { return c.lru.Len() }
