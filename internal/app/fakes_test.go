package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

// fakeStore is an in-memory core.ChannelStore for wiring registries in tests.
type fakeStore struct {
	mu       sync.Mutex
	channels map[domain.ChannelID]*domain.Channel
}

func newFakeStore() *fakeStore {
	return &fakeStore{channels: make(map[domain.ChannelID]*domain.Channel)}
}

func (s *fakeStore) Insert(ctx context.Context, ch *domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ch
	cp.Participants = append([]domain.UserID(nil), ch.Participants...)
	s.channels[ch.ID] = &cp
	return nil
}

func (s *fakeStore) SaveParticipants(ctx context.Context, id domain.ChannelID, participants []domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.channels[id]; ok {
		ch.Participants = append([]domain.UserID(nil), participants...)
	}
	return nil
}

func (s *fakeStore) SetGhostMode(ctx context.Context, id domain.ChannelID, ghost bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.channels[id]; ok {
		ch.IsGhostMode = ghost
	}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, id)
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (s *fakeStore) List(ctx context.Context, includeGhost bool) ([]domain.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Channel
	for _, ch := range s.channels {
		if !includeGhost && ch.IsGhostMode {
			continue
		}
		out = append(out, *ch)
	}
	return out, nil
}

// fakeConn records frames for verification.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

// events decodes every recorded frame and returns their type fields.
func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("bad frame %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) countEvents(t *testing.T, eventType string) int {
	t.Helper()
	n := 0
	for _, e := range c.events(t) {
		if e["type"] == eventType {
			n++
		}
	}
	return n
}

// fakeUsers serves canned directory records, core.ErrNotFound otherwise.
type fakeUsers struct {
	users map[domain.UserID]domain.User
}

func (f *fakeUsers) Lookup(ctx context.Context, id domain.UserID) (domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return domain.User{}, core.ErrNotFound
}

func newTestLifecycle() (*Lifecycle, *core.Registry, *Directory) {
	store := newFakeStore()
	registry := core.NewRegistry(store)
	directory := NewDirectory()
	users := &fakeUsers{users: map[domain.UserID]domain.User{
		"alice": {ID: "alice", Username: "Alice", AuraColor: "#00FF00"},
		"bob":   {ID: "bob", Username: "Bob", AuraColor: "#FF0000"},
	}}
	l := &Lifecycle{Registry: registry, Directory: directory, Users: users, Store: store}
	return l, registry, directory
}
