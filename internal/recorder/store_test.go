package recorder

import (
	"errors"
	"sync"
	"testing"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

type memPersister struct {
	state   State
	entries []capture.Entry
	failAll bool
}

var errPersist = errors.New("persist failed")

func (m *memPersister) LoadState() (State, error)             { return m.state, nil }
func (m *memPersister) LoadEntries() ([]capture.Entry, error) { return m.entries, nil }

func (m *memPersister) SaveState(st State) error {
	if m.failAll {
		return errPersist
	}
	m.state = st
	return nil
}

func (m *memPersister) AppendEntry(e capture.Entry, st State) error {
	if m.failAll {
		return errPersist
	}
	m.entries = append(m.entries, e)
	m.state = st
	return nil
}

func (m *memPersister) Reset(st State) error {
	if m.failAll {
		return errPersist
	}
	m.entries = nil
	m.state = st
	return nil
}

func entry(path string) capture.Entry {
	return capture.Entry{Method: "GET", URL: "https://api.example.com" + path, Path: path}
}

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestStoreInitialState(t *testing.T) {
	s := newStore(t)
	if got := s.Get(); got != (State{}) {
		t.Errorf("initial state = %+v", got)
	}
	if len(s.Entries()) != 0 {
		t.Error("expected no entries")
	}
}

func TestStoreAppendAssignsSequence(t *testing.T) {
	s := newStore(t)
	for i := 1; i <= 3; i++ {
		n, err := s.AppendEntry(entry("/a"))
		if err != nil {
			t.Fatal(err)
		}
		if n != i {
			t.Errorf("count after append %d = %d", i, n)
		}
	}
	for i, e := range s.Entries() {
		if e.Seq != i+1 {
			t.Errorf("entry %d seq = %d", i, e.Seq)
		}
	}
	if s.Get().Count != 3 {
		t.Errorf("state count = %d", s.Get().Count)
	}
}

func TestStoreAppendRejectsInvalid(t *testing.T) {
	s := newStore(t)
	if _, err := s.AppendEntry(capture.Entry{URL: "https://x.test/"}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("err = %v, want ErrInvalidEntry", err)
	}
	if s.Get().Count != 0 {
		t.Error("count changed")
	}
}

func TestStoreConcurrentAppend(t *testing.T) {
	s := newStore(t)
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AppendEntry(entry("/c")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	entries := s.Entries()
	if len(entries) != n || s.Get().Count != n {
		t.Fatalf("expected %d entries, got %d (count %d)", n, len(entries), s.Get().Count)
	}
	for i, e := range entries {
		if e.Seq != i+1 {
			t.Fatalf("entry %d seq = %d", i, e.Seq)
		}
	}
}

func TestStoreStartStopKeepCount(t *testing.T) {
	s := newStore(t)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	_, _ = s.AppendEntry(entry("/a"))
	if got := s.Get(); got != (State{Recording: true, Count: 1}) {
		t.Errorf("after start+append = %+v", got)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if got := s.Get(); got != (State{Recording: false, Count: 1}) {
		t.Errorf("after stop = %+v", got)
	}
}

func TestStoreClearIdempotent(t *testing.T) {
	s := newStore(t)
	_ = s.Start()
	_, _ = s.AppendEntry(entry("/a"))

	for i := 0; i < 2; i++ {
		if err := s.Clear(); err != nil {
			t.Fatal(err)
		}
		if got := s.Get(); got != (State{}) {
			t.Errorf("clear %d state = %+v", i, got)
		}
		if len(s.Entries()) != 0 {
			t.Errorf("clear %d left entries", i)
		}
	}
}

func TestStoreEntriesIsCopy(t *testing.T) {
	s := newStore(t)
	_, _ = s.AppendEntry(entry("/a"))
	got := s.Entries()
	got[0].Path = "/mutated"
	if s.Entries()[0].Path != "/a" {
		t.Error("Entries returned shared storage")
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := newStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	_ = s.Set(State{Recording: true})
	_, _ = s.AppendEntry(entry("/a"))
	_ = s.Clear()

	want := []State{{Recording: true}, {Recording: true, Count: 1}, {}}
	for i, w := range want {
		if got := <-ch; got != w {
			t.Errorf("notification %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestStoreSubscribeCancel(t *testing.T) {
	s := newStore(t)
	ch, cancel := s.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if err := s.Set(State{Recording: true}); err != nil {
		t.Fatal(err)
	}
}

func TestBroadcastCounts(t *testing.T) {
	s := newStore(t)
	if n := s.broadcast(State{}); n != 0 {
		t.Errorf("broadcast with no observers = %d", n)
	}

	_, cancelA := s.Subscribe()
	defer cancelA()
	_, cancelB := s.Subscribe()
	defer cancelB()
	if n := s.broadcast(State{Count: 1}); n != 2 {
		t.Errorf("broadcast with two observers = %d", n)
	}
}

func TestBroadcastSlowObserverDoesNotBlock(t *testing.T) {
	s := newStore(t)
	_, cancel := s.Subscribe()
	defer cancel()

	// Nobody reads; the buffer fills and later notifications are dropped.
	for i := 0; i < 100; i++ {
		if _, err := s.AppendEntry(entry("/a")); err != nil {
			t.Fatal(err)
		}
	}
	if s.Get().Count != 100 {
		t.Errorf("count = %d", s.Get().Count)
	}
	if n := s.broadcast(State{}); n != 0 {
		t.Errorf("full observer should not receive, got %d", n)
	}
}

func TestStoreLoadsFromPersister(t *testing.T) {
	p := &memPersister{
		state:   State{Recording: true, Count: 99},
		entries: []capture.Entry{entry("/a"), entry("/b")},
	}
	s := newStore(t, WithPersister(p))
	if got := s.Get(); got != (State{Recording: true, Count: 2}) {
		t.Errorf("loaded state = %+v", got)
	}

	n, err := s.AppendEntry(entry("/c"))
	if err != nil || n != 3 {
		t.Fatalf("AppendEntry = %d, %v", n, err)
	}
	if len(p.entries) != 3 || p.state.Count != 3 {
		t.Errorf("persister not updated: %d entries, state %+v", len(p.entries), p.state)
	}
}

func TestStorePersistFailureLeavesMemory(t *testing.T) {
	p := &memPersister{}
	s := newStore(t, WithPersister(p))
	_, _ = s.AppendEntry(entry("/a"))
	p.failAll = true

	ch, cancel := s.Subscribe()
	defer cancel()

	if _, err := s.AppendEntry(entry("/b")); !errors.Is(err, errPersist) {
		t.Errorf("AppendEntry err = %v", err)
	}
	if err := s.Set(State{Recording: true}); !errors.Is(err, errPersist) {
		t.Errorf("Set err = %v", err)
	}
	if err := s.Clear(); !errors.Is(err, errPersist) {
		t.Errorf("Clear err = %v", err)
	}
	if got := s.Get(); got != (State{Count: 1}) {
		t.Errorf("state changed after failures: %+v", got)
	}
	if len(s.Entries()) != 1 {
		t.Errorf("entries changed after failures")
	}
	select {
	case st := <-ch:
		t.Errorf("unexpected notification %+v", st)
	default:
	}
}
