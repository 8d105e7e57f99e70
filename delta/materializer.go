package delta

import (
	"container/list"
	"fmt"
	"sync"
)

// RevisionSource supplies the raw bytes a Materializer needs, without
// knowing anything about model.CvsRevision itself — commit provides
// a small adapter (fileRevisionSource) over its per-file item graph.
//
// Step must return, for any non-head revision id, the *neighbor*
// revision whose materialized text this revision's delta composes
// with, and the raw delta body to apply. Trunk revisions neighbor
// their child (the walk from head runs backward); branch revisions
// neighbor their parent (the walk runs forward from the branch point),
// matching spec.md §4.2's materialization policy.
type RevisionSource interface {
	HeadID() int64
	FullText(head int64) ([]byte, error)
	Step(id int64) (neighbor int64, body []byte, err error)
	IsDead(id int64) bool
}

type cacheEntry struct {
	id    int64
	text  []byte
	elem  *list.Element
}

// Materializer resolves any revision's full text by walking and
// composing deltas, caching results up to a configurable byte budget
// with LRU eviction (spec.md §4.2). Dead revisions hold no text: Get
// returns (nil, nil) for them, callers treat that as file-absent.
type Materializer struct {
	mu        sync.Mutex
	src       RevisionSource
	cache     map[int64]*cacheEntry
	order     *list.List // front = most recently used
	size      int64
	maxBytes  int64
}

// NewMaterializer returns a Materializer reading from src, caching up
// to maxBytes of materialized text (0 means unlimited).
func NewMaterializer(src RevisionSource, maxBytes int64) *Materializer {
	return &Materializer{
		src:      src,
		cache:    make(map[int64]*cacheEntry),
		order:    list.New(),
		maxBytes: maxBytes,
	}
}

// Get returns the materialized text of revision id.
func (m *Materializer) Get(id int64) ([]byte, error) {
	if m.src.IsDead(id) {
		return nil, nil
	}
	m.mu.Lock()
	if e, ok := m.cache[id]; ok {
		m.order.MoveToFront(e.elem)
		text := e.text
		m.mu.Unlock()
		return text, nil
	}
	m.mu.Unlock()

	text, err := m.resolve(id, make(map[int64]bool))
	if err != nil {
		return nil, err
	}
	m.store(id, text)
	return text, nil
}

// resolve computes the text for id without consulting or populating
// the cache for intermediate hops beyond what Get already checked,
// guarding against a corrupt parent chain with a visited set.
func (m *Materializer) resolve(id int64, visited map[int64]bool) ([]byte, error) {
	if visited[id] {
		return nil, fmt.Errorf("cyclic delta chain detected at revision %d", id)
	}
	visited[id] = true

	m.mu.Lock()
	if e, ok := m.cache[id]; ok {
		m.order.MoveToFront(e.elem)
		text := e.text
		m.mu.Unlock()
		return text, nil
	}
	m.mu.Unlock()

	if id == m.src.HeadID() {
		text, err := m.src.FullText(id)
		if err != nil {
			return nil, err
		}
		m.store(id, text)
		return text, nil
	}

	neighbor, body, err := m.src.Step(id)
	if err != nil {
		return nil, err
	}
	neighborText, err := m.resolve(neighbor, visited)
	if err != nil {
		return nil, err
	}
	cmds, err := ParseCommands(body)
	if err != nil {
		return nil, fmt.Errorf("revision %d: %w", id, err)
	}
	lines, err := Apply(SplitLines(neighborText), cmds)
	if err != nil {
		return nil, fmt.Errorf("revision %d: %w", id, err)
	}
	text := JoinLines(lines)
	m.store(id, text)
	return text, nil
}

func (m *Materializer) store(id int64, text []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache[id]; ok {
		return
	}
	elem := m.order.PushFront(id)
	m.cache[id] = &cacheEntry{id: id, text: text, elem: elem}
	m.size += int64(len(text))
	for m.maxBytes > 0 && m.size > m.maxBytes && m.order.Len() > 1 {
		back := m.order.Back()
		victim := back.Value.(int64)
		if victim == id {
			break
		}
		e := m.cache[victim]
		m.size -= int64(len(e.text))
		delete(m.cache, victim)
		m.order.Remove(back)
	}
}

// Forget drops a cached entry immediately, used once a pass knows a
// revision's text will never be requested again.
func (m *Materializer) Forget(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.cache[id]; ok {
		m.size -= int64(len(e.text))
		delete(m.cache, id)
		m.order.Remove(e.elem)
	}
}
