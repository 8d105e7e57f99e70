package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// KeyedStore is a simple key→bytes map (spec.md §4.4 "Keyed map"),
// backed in memory by an ordered tree map — the nearest pack-grounded
// analog of cvs2svn's own B-tree-equivalent on-disk format — and
// flushed to disk as one sorted, length-prefixed stream on Commit.
// The whole map lives in memory until Commit.
type KeyedStore[V any] struct {
	dir, name string
	version   SchemaVersion

	mu       sync.Mutex
	tree     *treemap.Map
	readonly bool
}

// NewKeyedStoreString returns a KeyedStore keyed by string, ordered
// lexicographically, so iteration order is deterministic.
func NewKeyedStoreString[V any](dir, name string, version SchemaVersion) *KeyedStore[V] {
	return &KeyedStore[V]{dir: dir, name: name, version: version, tree: treemap.NewWithStringComparator()}
}

// NewKeyedStoreInt returns a KeyedStore keyed by int, ordered numerically.
func NewKeyedStoreInt[V any](dir, name string, version SchemaVersion) *KeyedStore[V] {
	return &KeyedStore[V]{dir: dir, name: name, version: version, tree: treemap.NewWith(utils.Int64Comparator)}
}

// Put inserts or overwrites key's value. Writable only before Commit.
func (s *KeyedStore[V]) Put(key interface{}, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readonly {
		return fmt.Errorf("artifact %s: put after commit", s.name)
	}
	s.tree.Put(key, value)
	return nil
}

// Get resolves key to its value.
func (s *KeyedStore[V]) Get(key interface{}) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero V
	v, ok := s.tree.Get(key)
	if !ok {
		return zero, false
	}
	return v.(V), true
}

// Each visits every (key, value) pair in key order.
func (s *KeyedStore[V]) Each(fn func(key interface{}, value V)) {
	s.mu.Lock()
	it := s.tree.Iterator()
	s.mu.Unlock()
	for it.Next() {
		fn(it.Key(), it.Value().(V))
	}
}

// Len returns the number of keys stored.
func (s *KeyedStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Size()
}

// Commit writes the map to disk as one gob stream of (key, value)
// pairs in sorted order, then marks the store read-only.
func (s *KeyedStore[V]) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Create(filepath.Join(s.dir, s.name+".kv"))
	if err != nil {
		return fmt.Errorf("artifact %s: commit: %w", s.name, err)
	}
	defer f.Close()
	it := s.tree.Iterator()
	for it.Next() {
		pair := kvPair[V]{Key: it.Key(), Value: it.Value().(V)}
		buf, err := encodeRecord(s.version, pair)
		if err != nil {
			return err
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("artifact %s: write: %w", s.name, err)
		}
	}
	s.readonly = true
	return nil
}

type kvPair[V any] struct {
	Key   interface{}
	Value V
}

// OpenKeyedStore reads a committed KeyedStore back from disk.
func OpenKeyedStore[V any](dir, name string, version SchemaVersion, numericKeys bool) (*KeyedStore[V], error) {
	data, err := os.ReadFile(filepath.Join(dir, name+".kv"))
	if err != nil {
		return nil, fmt.Errorf("opening artifact %s: %w", name, err)
	}
	var tree *treemap.Map
	if numericKeys {
		tree = treemap.NewWith(utils.Int64Comparator)
	} else {
		tree = treemap.NewWithStringComparator()
	}
	pos := 0
	for pos < len(data) {
		var pair kvPair[V]
		_, n, err := decodeRecord(data[pos:], &pair)
		if err != nil {
			return nil, fmt.Errorf("artifact %s: corrupt record at offset %d: %w", name, pos, err)
		}
		tree.Put(pair.Key, pair.Value)
		pos += n
	}
	return &KeyedStore[V]{dir: dir, name: name, version: version, tree: tree, readonly: true}, nil
}
