// Package cache implements the client-side data synchronization core: a
// keyed resource store with subscriber notification and prefix
// invalidation, plus the query and mutation runners built on top of it.
package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a cache entry or a runner.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Key identifies one cached resource: an ordered tuple of primitives and
// plain maps. Two keys are equal iff their canonical serializations match.
type Key []any

// K builds a Key from its parts.
func K(parts ...any) Key {
	return Key(parts)
}

// canonical returns the serialized form used for equality and prefix
// checks. encoding/json writes map keys in sorted order, which makes the
// serialization canonical.
func (k Key) canonical() string {
	data, err := json.Marshal(k)
	if err != nil {
		// Keys are plain data by contract; a non-serializable key is a
		// programming error.
		panic(fmt.Sprintf("cache: key not serializable: %v", err))
	}
	return string(data)
}

// HasPrefix reports whether the first len(prefix) elements of k equal
// prefix, element by element.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	return Key(k[:len(prefix)]).canonical() == prefix.canonical()
}

// Entry is the cached state for one key. Data and Err are mutually
// exclusive on terminal statuses.
type Entry struct {
	Key         Key
	Data        any
	Err         error
	Status      Status
	LastUpdated time.Time
	StaleAfter  time.Duration
}

// entry is the internal record behind an Entry snapshot.
type entry struct {
	Entry
	invalidated bool
	// issuedSeq is the sequence number of the most recently started
	// request run for this key. Only a commit carrying this number is
	// applied; anything older lost the race and is discarded.
	issuedSeq uint64
}

// flight is one in-flight request run shared by de-duplicated callers.
type flight struct {
	seq  uint64
	done chan struct{}
	data any
	err  error
}

// Store is the process-wide resource cache. It is safe for concurrent use;
// all mutation funnels through Set, commit and Invalidate.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	flights    map[string]*flight
	subs       map[string]map[int]func(Entry)
	refetchers map[string]map[int]func()
	nextID     int
	now        func() time.Time
}

// NewStore creates an empty store. Stores are constructed explicitly and
// injected so tests can run against isolated instances.
func NewStore() *Store {
	return &Store{
		entries:    map[string]*entry{},
		flights:    map[string]*flight{},
		subs:       map[string]map[int]func(Entry){},
		refetchers: map[string]map[int]func(){},
		now:        time.Now,
	}
}

// Get returns the entry for key, if any.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.canonical()]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Set seeds or overwrites the data for key and notifies subscribers. Used
// for direct writes that must be visible synchronously, e.g. clearing the
// session entry on logout.
func (s *Store) Set(key Key, data any) {
	s.mu.Lock()
	e := s.ensure(key)
	e.Data = data
	e.Err = nil
	e.Status = StatusSuccess
	e.LastUpdated = s.now()
	e.invalidated = false
	// A direct write supersedes any in-flight run.
	e.issuedSeq++
	delete(s.flights, key.canonical())
	snapshot := e.Entry
	subs := s.subscribers(key)
	s.mu.Unlock()

	notify(subs, snapshot)
}

// Remove evicts every entry whose key starts with prefix. Unlike
// Invalidate, removed entries are gone immediately and no refetch is
// triggered.
func (s *Store) Remove(prefix Key) {
	s.mu.Lock()
	for canon, e := range s.entries {
		if e.Key.HasPrefix(prefix) {
			delete(s.entries, canon)
			delete(s.flights, canon)
		}
	}
	s.mu.Unlock()
}

// Invalidate marks every entry whose key starts with prefix as stale and
// triggers a refetch for keys with a mounted query. Unrelated keys are
// untouched.
func (s *Store) Invalidate(prefix Key) {
	s.mu.Lock()
	var refetch []func()
	for _, e := range s.entries {
		if e.Key.HasPrefix(prefix) {
			e.invalidated = true
		}
	}
	for canon, fns := range s.refetchers {
		var key Key
		if err := json.Unmarshal([]byte(canon), &key); err != nil {
			continue
		}
		if key.HasPrefix(prefix) {
			for _, fn := range fns {
				refetch = append(refetch, fn)
			}
		}
	}
	s.mu.Unlock()

	for _, fn := range refetch {
		go fn()
	}
}

// Subscribe registers a callback invoked synchronously after every commit
// to key. The returned function removes the subscription.
func (s *Store) Subscribe(key Key, fn func(Entry)) (unsubscribe func()) {
	canon := key.canonical()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[canon] == nil {
		s.subs[canon] = map[int]func(Entry){}
	}
	id := s.nextID
	s.nextID++
	s.subs[canon][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[canon], id)
	}
}

// Stale reports whether key has no usable entry: missing, errored,
// explicitly invalidated, or older than its stale-after window.
func (s *Store) Stale(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.canonical()]
	if !ok || e.Status != StatusSuccess || e.invalidated {
		return true
	}
	return s.now().Sub(e.LastUpdated) >= e.StaleAfter
}

// begin starts a new request run for key: it marks the entry pending,
// allocates the next sequence number, and registers the shared flight.
// The caller must finish the run with commit.
func (s *Store) begin(key Key, staleAfter time.Duration) *flight {
	canon := key.canonical()
	s.mu.Lock()
	e := s.ensure(key)
	e.StaleAfter = staleAfter
	e.issuedSeq++
	if e.Status != StatusSuccess {
		// Keep last-known-good data visible while refreshing.
		e.Status = StatusPending
	}
	f := &flight{seq: e.issuedSeq, done: make(chan struct{})}
	s.flights[canon] = f
	snapshot := e.Entry
	subs := s.subscribers(key)
	s.mu.Unlock()

	notify(subs, snapshot)
	return f
}

// inflight returns the current shared flight for key, if any.
func (s *Store) inflight(key Key) (*flight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[key.canonical()]
	return f, ok
}

// commit finishes a request run. The result is applied only when the run
// still carries the latest issued sequence number for its key; a
// late-arriving response from a superseded run is discarded.
func (s *Store) commit(key Key, f *flight, data any, err error) {
	canon := key.canonical()
	s.mu.Lock()
	f.data = data
	f.err = err
	close(f.done)
	if s.flights[canon] == f {
		delete(s.flights, canon)
	}

	e := s.ensure(key)
	if f.seq != e.issuedSeq {
		s.mu.Unlock()
		return
	}
	if err != nil {
		e.Err = err
		e.Status = StatusError
	} else {
		e.Data = data
		e.Err = nil
		e.Status = StatusSuccess
	}
	e.LastUpdated = s.now()
	e.invalidated = false
	snapshot := e.Entry
	subs := s.subscribers(key)
	s.mu.Unlock()

	notify(subs, snapshot)
}

// registerRefetcher attaches a mounted query's forced-refresh hook, used
// by Invalidate. The returned function detaches it.
func (s *Store) registerRefetcher(key Key, fn func()) func() {
	canon := key.canonical()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refetchers[canon] == nil {
		s.refetchers[canon] = map[int]func(){}
	}
	id := s.nextID
	s.nextID++
	s.refetchers[canon][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.refetchers[canon], id)
	}
}

// ensure returns the entry for key, creating an idle one if needed.
// Callers must hold s.mu.
func (s *Store) ensure(key Key) *entry {
	canon := key.canonical()
	e, ok := s.entries[canon]
	if !ok {
		e = &entry{Entry: Entry{Key: key, Status: StatusIdle}}
		s.entries[canon] = e
	}
	return e
}

// subscribers snapshots the callback list for key. Callers must hold s.mu.
func (s *Store) subscribers(key Key) []func(Entry) {
	var fns []func(Entry)
	for _, fn := range s.subs[key.canonical()] {
		fns = append(fns, fn)
	}
	return fns
}

func notify(subs []func(Entry), e Entry) {
	for _, fn := range subs {
		fn(e)
	}
}
