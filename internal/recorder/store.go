package recorder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

// ErrInvalidEntry is returned when an entry lacks its method or url.
var ErrInvalidEntry = errors.New("method and url are required")

// State is the recording flag plus the number of captured entries.
type State struct {
	Recording bool `json:"recording"`
	Count     int  `json:"count"`
}

// Persister mirrors the store to durable storage. Each call must either
// fully apply or leave the stored data unchanged.
type Persister interface {
	LoadState() (State, error)
	SaveState(st State) error
	LoadEntries() ([]capture.Entry, error)
	AppendEntry(e capture.Entry, st State) error
	Reset(st State) error
}

// Store holds the recording state and captured entries. All mutations are
// serialized and broadcast to subscribers once applied.
type Store struct {
	mu      sync.Mutex
	state   State
	entries []capture.Entry
	persist Persister
	log     zerolog.Logger

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithPersister mirrors every mutation to p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persist = p }
}

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a store. With a persister, the previous state and entries are
// loaded from it.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		log:  zerolog.Nop(),
		subs: make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.persist == nil {
		return s, nil
	}

	st, err := s.persist.LoadState()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	entries, err := s.persist.LoadEntries()
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}
	// The entry list is authoritative for count.
	st.Count = len(entries)
	s.state = st
	s.entries = entries
	return s, nil
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the state wholesale.
func (s *Store) Set(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persist != nil {
		if err := s.persist.SaveState(st); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
	}
	s.state = st
	s.broadcast(st)
	return nil
}

// Start turns recording on, keeping the current count.
func (s *Store) Start() error { return s.setRecording(true) }

// Stop turns recording off, keeping the current count.
func (s *Store) Stop() error { return s.setRecording(false) }

func (s *Store) setRecording(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Recording: on, Count: len(s.entries)}
	if s.persist != nil {
		if err := s.persist.SaveState(st); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
	}
	s.state = st
	s.broadcast(st)
	return nil
}

// AppendEntry appends e, assigning its sequence number, and returns the new
// count.
func (s *Store) AppendEntry(e capture.Entry) (int, error) {
	if !e.Valid() {
		return 0, fmt.Errorf("appending entry: %w", ErrInvalidEntry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.Seq = len(s.entries) + 1
	st := s.state
	st.Count = e.Seq
	if s.persist != nil {
		if err := s.persist.AppendEntry(e, st); err != nil {
			return 0, fmt.Errorf("persisting entry: %w", err)
		}
	}
	s.entries = append(s.entries, e)
	s.state = st
	s.broadcast(st)
	return st.Count, nil
}

// Clear removes all entries and resets the state to not recording.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{}
	if s.persist != nil {
		if err := s.persist.Reset(st); err != nil {
			return fmt.Errorf("clearing: %w", err)
		}
	}
	s.entries = nil
	s.state = st
	s.broadcast(st)
	return nil
}

// Entries returns a copy of the captured entries in append order.
func (s *Store) Entries() []capture.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capture.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Subscribe registers an observer. The returned channel receives every state
// change after the call; a slow observer misses notifications rather than
// blocking the store. cancel unregisters and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 16)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast delivers st to every observer that has room and returns how many
// received it.
func (s *Store) broadcast(st State) int {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if len(s.subs) == 0 {
		s.log.Debug().Bool("recording", st.Recording).Int("count", st.Count).Msg("state changed, no observers")
		return 0
	}

	delivered := 0
	for id, ch := range s.subs {
		select {
		case ch <- st:
			delivered++
		default:
			s.log.Debug().Int("observer", id).Msg("observer busy, notification dropped")
		}
	}
	return delivered
}
