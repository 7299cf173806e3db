package app

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
	"github.com/aurachat/voice/internal/metrics"
)

// Relay routes one signal to one recipient: pushed straight to the live
// session when the directory has one, queued on the channel otherwise.
// Recipient absence is the designed fallback, never an error.
type Relay struct {
	Registry  *core.Registry
	Directory *Directory
}

func NewRelay(registry *core.Registry, directory *Directory) *Relay {
	return &Relay{Registry: registry, Directory: directory}
}

// Send delivers sig, exclusively to sig.To. Returns core.ErrNotFound only
// when the channel itself is unknown.
func (r *Relay) Send(sig domain.Signal) error {
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
	if _, err := r.Registry.Get(sig.Channel); err != nil {
		return err
	}

	if conn, ok := r.Directory.SessionFor(sig.Channel, sig.To); ok {
		if err := conn.TrySend(pushFrame(sig)); err == nil {
			metrics.SignalsPushed.Inc()
			log.Debug().Str("module", "app.relay").Str("to", string(sig.To)).Str("kind", string(sig.Kind)).Msg("signal pushed")
			return nil
		}
		// Push lost to backpressure or a closing socket; the queue keeps
		// the handshake alive.
		log.Warn().Str("module", "app.relay").Str("to", string(sig.To)).Msg("push failed, queueing")
	}

	evicted, err := r.Registry.Enqueue(sig)
	if err != nil {
		return err
	}
	metrics.SignalsQueued.Inc()
	if evicted > 0 {
		metrics.SignalsEvicted.Add(float64(evicted))
		log.Warn().Str("module", "app.relay").Str("channel", string(sig.Channel)).Int("evicted", evicted).Msg("queue cap reached")
	}
	return nil
}

// Pull drains every queued signal addressed to user in the channel, in
// enqueue order, consuming them. Unknown or deleted channels drain empty.
func (r *Relay) Pull(channel domain.ChannelID, user domain.UserID) []domain.Signal {
	sigs := r.Registry.Drain(channel, user)
	if len(sigs) > 0 {
		metrics.SignalsPulled.Add(float64(len(sigs)))
	}
	return sigs
}

// pushEvent is the wire shape of a live-delivered signal.
type pushEvent struct {
	Type      string                     `json:"type"`
	From      domain.UserID              `json:"from_user"`
	To        domain.UserID              `json:"to_user"`
	Channel   domain.ChannelID           `json:"channel_id"`
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

func pushFrame(sig domain.Signal) core.Frame {
	b, err := json.Marshal(pushEvent{
		Type:      sig.Kind.EventName(),
		From:      sig.From,
		To:        sig.To,
		Channel:   sig.Channel,
		SDP:       sig.SDP,
		Candidate: sig.Candidate,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal push event")
		return nil
	}
	return b
}
