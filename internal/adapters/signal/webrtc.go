package signal

import (
	"encoding/json"
	"errors"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

// handleWebRTCSignal validates the envelope and hands the signal to the
// relay. Delivery is fire-and-forget: a recipient without a live session is
// the queue path, not a failure.
func (ctl *SignalWSController) handleWebRTCSignal(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type signalPayload struct {
		Type       string                     `json:"type"`
		SignalType string                     `json:"signal_type"`
		FromUser   string                     `json:"from_user"`
		ToUser     string                     `json:"to_user"`
		ChannelID  string                     `json:"channel_id"`
		SDP        *webrtc.SessionDescription `json:"sdp,omitempty"`
		Candidate  *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	}
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	kind, err := domain.ParseSignalKind(p.SignalType)
	if err != nil {
		log.Warn().Str("module", "signal").Str("signal_type", p.SignalType).Msg("unknown signal type")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "unknown_signal_type",
		})
		return
	}

	sig := domain.Signal{
		From:      domain.UserID(p.FromUser),
		To:        domain.UserID(p.ToUser),
		Channel:   domain.ChannelID(p.ChannelID),
		Kind:      kind,
		SDP:       p.SDP,
		Candidate: p.Candidate,
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sig.From) {
		log.Warn().Str("module", "signal").Str("from", p.FromUser).Msg("signal rate limited")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "rate_limited",
		})
		return
	}

	if err := sig.Validate(); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("invalid signal")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	if err := ctl.Relay.Send(sig); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			ctl.sendJSON(conn, map[string]any{
				"type":  "error",
				"error": "channel_not_found",
			})
			return
		}
		log.Error().Err(err).Str("module", "signal").Msg("relay send")
	}
}
