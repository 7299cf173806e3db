package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
	"github.com/aurachat/voice/internal/metrics"
)

// Lifecycle drives every channel state transition, keeping the registry, the
// durable store and the connection directory in step. Explicit leave and
// transport disconnect converge on the same cleanup path; whichever arrives
// second is a no-op.
type Lifecycle struct {
	Registry  *core.Registry
	Directory *Directory
	Users     core.UserDirectory
	Store     core.ChannelStore
}

// Restore warms the registry from the store on boot and seeds the channel
// gauge, so a restarted process reports its channels before the first
// create or delete.
func (l *Lifecycle) Restore(ctx context.Context) error {
	if err := l.Registry.Restore(ctx); err != nil {
		return err
	}
	metrics.ActiveChannels.Set(float64(l.Registry.Count()))
	return nil
}

func (l *Lifecycle) CreateChannel(ctx context.Context, name, auraColor string, creator domain.UserID, ghost bool) (*domain.Channel, error) {
	ch, err := l.Registry.Create(ctx, name, auraColor, creator, ghost)
	if err != nil {
		return nil, err
	}
	metrics.ActiveChannels.Set(float64(l.Registry.Count()))
	l.broadcastAll(channelEvent{Type: "voice_channel_created", Channel: ch})
	return ch, nil
}

// ListChannels serves discovery from the durable store. Ghost-flagged
// channels are filtered out of public listings but remain joinable by id.
func (l *Lifecycle) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	channels, err := l.Store.List(ctx, false)
	if err != nil {
		return nil, &core.PersistenceError{Op: "list", Err: err}
	}
	return channels, nil
}

// JoinChannel adds the member over the request/response surface. Idempotent.
func (l *Lifecycle) JoinChannel(ctx context.Context, id domain.ChannelID, user domain.UserID) ([]domain.UserID, error) {
	participants, err := l.Registry.Join(ctx, id, user)
	if err != nil {
		return nil, err
	}
	l.broadcastUpdated(id)
	return participants, nil
}

// LeaveChannel removes the member over the request/response surface. If the
// member still holds a live binding it is released here, so a later
// disconnect finds nothing to clean up.
func (l *Lifecycle) LeaveChannel(ctx context.Context, id domain.ChannelID, user domain.UserID) error {
	hadBinding := l.Directory.ReleaseMember(id, user)
	return l.finishLeave(ctx, id, user, hadBinding)
}

// JoinLive binds a websocket session to the channel and announces the member
// to the sessions already there.
func (l *Lifecycle) JoinLive(ctx context.Context, sid core.SessionID, id domain.ChannelID, user domain.UserID) ([]domain.UserID, error) {
	participants, err := l.Registry.Join(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if !l.Directory.Bind(sid, user, id) {
		log.Warn().Str("module", "app.lifecycle").Str("sid", string(sid)).Msg("bind for unknown session")
	}
	summary := l.userSummary(ctx, user)
	l.broadcastMembers(id, user, presenceEvent{Type: "user_joined_voice", UserID: user, Username: summary.Username})
	l.broadcastUpdated(id)
	return participants, nil
}

// LeaveLive is the explicit websocket leave. A session with no binding is a
// no-op, which is exactly what a leave racing a disconnect needs.
func (l *Lifecycle) LeaveLive(ctx context.Context, sid core.SessionID) error {
	user, channel, ok := l.Directory.Unbind(sid)
	if !ok {
		return nil
	}
	return l.finishLeave(ctx, channel, user, true)
}

// Connect registers a freshly upgraded session.
func (l *Lifecycle) Connect(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	l.Directory.Register(sid, conn, cancel)
	metrics.LiveSessions.Set(float64(l.Directory.Count()))
}

// Disconnect is the transport-level teardown: resolve the binding, run the
// shared leave path if one existed, then forget the session.
func (l *Lifecycle) Disconnect(ctx context.Context, sid core.SessionID) {
	if user, channel, ok := l.Directory.Unbind(sid); ok {
		if err := l.finishLeave(ctx, channel, user, true); err != nil {
			log.Warn().Err(err).Str("module", "app.lifecycle").Str("sid", string(sid)).Msg("disconnect cleanup")
		}
	}
	l.Directory.Deregister(sid)
	metrics.LiveSessions.Set(float64(l.Directory.Count()))
}

// DeleteChannel is the explicit delete. Unknown ids are NotFound here, unlike
// the internal cascade which is idempotent.
func (l *Lifecycle) DeleteChannel(ctx context.Context, id domain.ChannelID) error {
	if _, err := l.Registry.Get(id); err != nil {
		return err
	}
	return l.deleteCascade(ctx, id)
}

func (l *Lifecycle) SetGhostMode(ctx context.Context, id domain.ChannelID, ghost bool) (*domain.Channel, error) {
	ch, err := l.Registry.SetGhostMode(ctx, id, ghost)
	if err != nil {
		return nil, err
	}
	l.broadcastAll(channelEvent{Type: "voice_channel_updated", Channel: ch})
	return ch, nil
}

// Participants lists the channel's members in join order, decorated by the
// user directory. Unknown users come back as guests rather than holes.
func (l *Lifecycle) Participants(ctx context.Context, id domain.ChannelID) ([]domain.User, error) {
	ids, err := l.Registry.Participants(id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(ids))
	for _, uid := range ids {
		out = append(out, l.userSummary(ctx, uid))
	}
	return out, nil
}

// finishLeave is the single cleanup path shared by REST leave, websocket
// leave and disconnect. The last participant out deletes the channel.
func (l *Lifecycle) finishLeave(ctx context.Context, id domain.ChannelID, user domain.UserID, notify bool) error {
	_, empty, err := l.Registry.Leave(ctx, id, user)
	if err != nil {
		return err
	}
	if notify {
		summary := l.userSummary(ctx, user)
		l.broadcastMembers(id, user, presenceEvent{Type: "user_left_voice", UserID: user, Username: summary.Username})
	}
	if empty {
		return l.deleteCascade(ctx, id)
	}
	l.broadcastUpdated(id)
	return nil
}

// deleteCascade removes the channel everywhere: registry entry and queue,
// lingering directory bindings, then one deletion broadcast.
func (l *Lifecycle) deleteCascade(ctx context.Context, id domain.ChannelID) error {
	l.Directory.ReleaseChannel(id)
	err := l.Registry.Delete(ctx, id)
	metrics.ActiveChannels.Set(float64(l.Registry.Count()))
	l.broadcastAll(deletedEvent{Type: "voice_channel_deleted", ChannelID: id})
	return err
}

func (l *Lifecycle) userSummary(ctx context.Context, id domain.UserID) domain.User {
	if l.Users == nil {
		return domain.GuestUser(id)
	}
	u, err := l.Users.Lookup(ctx, id)
	if err != nil {
		return domain.GuestUser(id)
	}
	return u
}

func (l *Lifecycle) broadcastUpdated(id domain.ChannelID) {
	ch, err := l.Registry.Get(id)
	if err != nil {
		return
	}
	l.broadcastAll(channelEvent{Type: "voice_channel_updated", Channel: ch})
}

func (l *Lifecycle) broadcastAll(v any) {
	frame, ok := marshalEvent(v)
	if !ok {
		return
	}
	for _, conn := range l.Directory.Conns() {
		_ = conn.TrySend(frame)
	}
}

// broadcastMembers fans out to the channel's bound sessions, excluding the
// member the event is about.
func (l *Lifecycle) broadcastMembers(id domain.ChannelID, except domain.UserID, v any) {
	frame, ok := marshalEvent(v)
	if !ok {
		return
	}
	for _, m := range l.Directory.MembersOf(id) {
		if m.User == except {
			continue
		}
		_ = m.Conn.TrySend(frame)
	}
}

type channelEvent struct {
	Type    string          `json:"type"`
	Channel *domain.Channel `json:"channel"`
}

type deletedEvent struct {
	Type      string           `json:"type"`
	ChannelID domain.ChannelID `json:"channel_id"`
}

type presenceEvent struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"user_id"`
	Username string        `json:"username"`
}

func marshalEvent(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.lifecycle").Msg("marshal event")
		return nil, false
	}
	return b, true
}
