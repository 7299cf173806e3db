package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

type memberKey struct {
	Channel domain.ChannelID
	User    domain.UserID
}

type sessionEntry struct {
	Conn    core.SignalConnection
	Cancel  context.CancelFunc
	User    domain.UserID
	Channel domain.ChannelID // empty while the session is not in a voice channel
}

// memberSnap is a read-only view of one bound session, used for fan-out.
type memberSnap struct {
	SID  core.SessionID
	User domain.UserID
	Conn core.SignalConnection
}

// Directory maps live transport sessions to the (user, channel) they
// currently represent. A session is in at most one channel; the reverse index
// lets the relay pick push over queue delivery.
type Directory struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	byMember map[memberKey]core.SessionID
}

func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[core.SessionID]*sessionEntry),
		byMember: make(map[memberKey]core.SessionID),
	}
}

// Register records a connected session before it joins any channel, so
// channel lifecycle events reach every client the way the original global
// emits did.
func (d *Directory) Register(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.directory").Str("sid", string(sid)).Msg("session registered")
}

// Deregister forgets the session entirely. Any remaining channel binding must
// have been released through Unbind first.
func (d *Directory) Deregister(sid core.SessionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.sessions[sid]; ok && e.Channel != "" {
		delete(d.byMember, memberKey{Channel: e.Channel, User: e.User})
	}
	delete(d.sessions, sid)
	log.Info().Str("module", "app.directory").Str("sid", string(sid)).Msg("session deregistered")
}

// Bind attaches the session to (user, channel). A prior binding of the same
// session is released first; a stale binding of the same member by another
// session is replaced and the superseded session's pumps are cancelled.
func (d *Directory) Bind(sid core.SessionID, user domain.UserID, channel domain.ChannelID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.sessions[sid]
	if !ok {
		return false
	}
	if e.Channel != "" {
		delete(d.byMember, memberKey{Channel: e.Channel, User: e.User})
	}
	key := memberKey{Channel: channel, User: user}
	if prev, ok := d.byMember[key]; ok && prev != sid {
		if stale, ok := d.sessions[prev]; ok {
			stale.User, stale.Channel = "", ""
			if stale.Cancel != nil {
				stale.Cancel()
			}
			log.Info().Str("module", "app.directory").Str("sid", string(prev)).Msg("superseded session cancelled")
		}
	}
	e.User, e.Channel = user, channel
	d.byMember[key] = sid
	log.Info().Str("module", "app.directory").Str("sid", string(sid)).Str("channel", string(channel)).Msg("session bound")
	return true
}

// Unbind releases the session's channel binding and returns it. Safe to call
// any number of times; a disconnect racing an explicit leave resolves to one
// winner.
func (d *Directory) Unbind(sid core.SessionID) (domain.UserID, domain.ChannelID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.sessions[sid]
	if !ok || e.Channel == "" {
		return "", "", false
	}
	user, channel := e.User, e.Channel
	delete(d.byMember, memberKey{Channel: channel, User: user})
	e.User, e.Channel = "", ""
	log.Info().Str("module", "app.directory").Str("sid", string(sid)).Str("channel", string(channel)).Msg("session unbound")
	return user, channel, true
}

// ReleaseMember drops the binding for (channel, user) regardless of which
// session holds it. Used when a member leaves over REST while a live session
// is still attached.
func (d *Directory) ReleaseMember(channel domain.ChannelID, user domain.UserID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	sid, ok := d.byMember[memberKey{Channel: channel, User: user}]
	if !ok {
		return false
	}
	delete(d.byMember, memberKey{Channel: channel, User: user})
	if e, ok := d.sessions[sid]; ok {
		e.User, e.Channel = "", ""
	}
	return true
}

// ReleaseChannel drops every binding still pointing at the channel, part of
// the deletion cascade.
func (d *Directory) ReleaseChannel(channel domain.ChannelID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, sid := range d.byMember {
		if key.Channel != channel {
			continue
		}
		delete(d.byMember, key)
		if e, ok := d.sessions[sid]; ok {
			e.User, e.Channel = "", ""
		}
	}
}

// SessionFor is the relay's push-vs-queue decision: the live connection of
// the member, if any.
func (d *Directory) SessionFor(channel domain.ChannelID, user domain.UserID) (core.SignalConnection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sid, ok := d.byMember[memberKey{Channel: channel, User: user}]
	if !ok {
		return nil, false
	}
	e, ok := d.sessions[sid]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// MembersOf snapshots the sessions currently bound to the channel.
func (d *Directory) MembersOf(channel domain.ChannelID) []memberSnap {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]memberSnap, 0, len(d.byMember))
	for key, sid := range d.byMember {
		if key.Channel != channel {
			continue
		}
		if e, ok := d.sessions[sid]; ok {
			out = append(out, memberSnap{SID: sid, User: key.User, Conn: e.Conn})
		}
	}
	return out
}

// Conns snapshots every connected session, bound or not.
func (d *Directory) Conns() []core.SignalConnection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.SignalConnection, 0, len(d.sessions))
	for _, e := range d.sessions {
		out = append(out, e.Conn)
	}
	return out
}

// Count reports how many sessions are connected.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
