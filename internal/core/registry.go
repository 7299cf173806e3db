package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/domain"
)

// channelState is one registry entry. Its mutex covers a single state
// transition (membership, ghost flag, queue) and is never held across store
// I/O. gone is set under the same mutex when the channel is removed, so an
// operation holding a stale pointer cannot mutate a dead channel.
type channelState struct {
	mu      sync.Mutex
	gone    bool
	channel *domain.Channel
	queue   signalQueue
}

// Registry is the authoritative in-memory map of live channels. The store is
// written through outside the per-channel lock; the durable insert lands
// before an entry is published, so memory never holds a channel the store
// refused.
type Registry struct {
	mu       sync.RWMutex
	channels map[domain.ChannelID]*channelState
	store    ChannelStore
}

func NewRegistry(store ChannelStore) *Registry {
	return &Registry{
		channels: make(map[domain.ChannelID]*channelState),
		store:    store,
	}
}

// Restore warms the registry from the store on boot. Channels persisted with
// no participants violate the emptiness invariant and are deleted instead of
// resurrected.
func (r *Registry) Restore(ctx context.Context) error {
	channels, err := r.store.List(ctx, true)
	if err != nil {
		return &PersistenceError{Op: "list", Err: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range channels {
		ch := channels[i]
		if len(ch.Participants) == 0 {
			if err := r.store.Delete(ctx, ch.ID); err != nil {
				log.Warn().Err(err).Str("module", "core.registry").Str("channel", string(ch.ID)).Msg("could not drop empty channel on restore")
			}
			continue
		}
		r.channels[ch.ID] = &channelState{channel: &ch}
	}
	log.Info().Str("module", "core.registry").Int("channels", len(r.channels)).Msg("restored channels")
	return nil
}

// Create allocates a fresh channel with the creator as its only participant.
// The insert happens before the entry is published, so a failed create leaves
// no trace for a concurrent join to find.
func (r *Registry) Create(ctx context.Context, name, auraColor string, creator domain.UserID, ghost bool) (*domain.Channel, error) {
	ch, err := domain.NewChannel(name, auraColor, creator, ghost)
	if err != nil {
		return nil, err
	}

	if err := r.store.Insert(ctx, ch); err != nil {
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	r.mu.Lock()
	r.channels[ch.ID] = &channelState{channel: ch}
	r.mu.Unlock()

	log.Info().Str("module", "core.registry").Str("channel", string(ch.ID)).Str("name", ch.Name).Msg("channel created")
	return snapshot(ch), nil
}

// Join idempotently adds user to the channel's participant set and returns
// the resulting set in join order.
func (r *Registry) Join(ctx context.Context, id domain.ChannelID, user domain.UserID) ([]domain.UserID, error) {
	st, ok := r.state(id)
	if !ok {
		return nil, ErrNotFound
	}

	st.mu.Lock()
	if st.gone {
		st.mu.Unlock()
		return nil, ErrNotFound
	}
	changed := false
	if !contains(st.channel.Participants, user) {
		st.channel.Participants = append(st.channel.Participants, user)
		changed = true
	}
	participants := copyParticipants(st.channel.Participants)
	st.mu.Unlock()

	if changed {
		r.persistParticipants(ctx, id, participants)
	}
	return participants, nil
}

// Leave idempotently removes user and reports whether the channel is now
// empty. The last leave tombstones and retires the entry in the same critical
// section that empties the set, so a join racing the deletion cascade gets
// ErrNotFound. The durable row and queue cleanup stay the lifecycle manager's
// call.
func (r *Registry) Leave(ctx context.Context, id domain.ChannelID, user domain.UserID) ([]domain.UserID, bool, error) {
	st, ok := r.state(id)
	if !ok {
		return nil, false, ErrNotFound
	}

	st.mu.Lock()
	if st.gone {
		st.mu.Unlock()
		return nil, false, ErrNotFound
	}
	changed := false
	kept := st.channel.Participants[:0]
	for _, p := range st.channel.Participants {
		if p == user {
			changed = true
			continue
		}
		kept = append(kept, p)
	}
	st.channel.Participants = kept
	participants := copyParticipants(kept)
	empty := len(participants) == 0
	if empty {
		st.gone = true
	}
	st.mu.Unlock()

	if empty {
		r.retire(id, st)
	} else if changed {
		r.persistParticipants(ctx, id, participants)
	}
	return participants, empty, nil
}

// SetGhostMode flips discovery visibility. The flag is orthogonal to the
// channel's lifecycle state.
func (r *Registry) SetGhostMode(ctx context.Context, id domain.ChannelID, ghost bool) (*domain.Channel, error) {
	st, ok := r.state(id)
	if !ok {
		return nil, ErrNotFound
	}

	st.mu.Lock()
	if st.gone {
		st.mu.Unlock()
		return nil, ErrNotFound
	}
	st.channel.IsGhostMode = ghost
	ch := snapshot(st.channel)
	st.mu.Unlock()

	if err := r.store.SetGhostMode(ctx, id, ghost); err != nil {
		return nil, &PersistenceError{Op: "ghost-mode", Err: err}
	}
	return ch, nil
}

// Delete removes the channel and its queue entirely. Idempotent: deleting an
// unknown id is a no-op, and a missing store row is tolerated.
func (r *Registry) Delete(ctx context.Context, id domain.ChannelID) error {
	r.mu.Lock()
	st, existed := r.channels[id]
	delete(r.channels, id)
	r.mu.Unlock()

	if existed {
		st.mu.Lock()
		st.gone = true
		st.mu.Unlock()
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}
	if existed {
		log.Info().Str("module", "core.registry").Str("channel", string(id)).Msg("channel deleted")
	}
	return nil
}

// Get returns a snapshot of the channel's current state.
func (r *Registry) Get(id domain.ChannelID) (*domain.Channel, error) {
	st, ok := r.state(id)
	if !ok {
		return nil, ErrNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gone {
		return nil, ErrNotFound
	}
	return snapshot(st.channel), nil
}

// Participants returns the current participant set in join order.
func (r *Registry) Participants(id domain.ChannelID) ([]domain.UserID, error) {
	st, ok := r.state(id)
	if !ok {
		return nil, ErrNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gone {
		return nil, ErrNotFound
	}
	return copyParticipants(st.channel.Participants), nil
}

// Enqueue appends sig to its channel's queue and reports how many old
// entries were evicted by the cap.
func (r *Registry) Enqueue(sig domain.Signal) (int, error) {
	st, ok := r.state(sig.Channel)
	if !ok {
		return 0, ErrNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gone {
		return 0, ErrNotFound
	}
	return st.queue.push(sig), nil
}

// Drain removes and returns every queued signal addressed to user in the
// channel. An unknown channel drains to nothing: after deletion, pending
// pulls see an empty sequence.
func (r *Registry) Drain(id domain.ChannelID, user domain.UserID) []domain.Signal {
	st, ok := r.state(id)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gone {
		return nil
	}
	return st.queue.drain(user)
}

// QueueLen reports the channel's current queue depth, zero for unknown ids.
func (r *Registry) QueueLen(id domain.ChannelID) int {
	st, ok := r.state(id)
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gone {
		return 0
	}
	return st.queue.len()
}

// Count reports how many channels are live.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// retire unpublishes a tombstoned entry. The pointer comparison keeps a
// re-created id from being collateral damage.
func (r *Registry) retire(id domain.ChannelID, st *channelState) {
	r.mu.Lock()
	if r.channels[id] == st {
		delete(r.channels, id)
	}
	r.mu.Unlock()
}

func (r *Registry) state(id domain.ChannelID) (*channelState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.channels[id]
	return st, ok
}

// persistParticipants writes through after the lock is released. Membership
// already changed in memory; a failed write is logged and left to converge on
// the next successful one.
func (r *Registry) persistParticipants(ctx context.Context, id domain.ChannelID, participants []domain.UserID) {
	if err := r.store.SaveParticipants(ctx, id, participants); err != nil {
		log.Warn().Err(err).Str("module", "core.registry").Str("channel", string(id)).Msg("participant write failed")
	}
}

func snapshot(ch *domain.Channel) *domain.Channel {
	out := *ch
	out.Participants = copyParticipants(ch.Participants)
	return &out
}

func copyParticipants(in []domain.UserID) []domain.UserID {
	return append([]domain.UserID(nil), in...)
}

func contains(in []domain.UserID, user domain.UserID) bool {
	for _, p := range in {
		if p == user {
			return true
		}
	}
	return false
}
