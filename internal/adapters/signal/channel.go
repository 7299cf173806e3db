package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type      string `json:"type"`
		ChannelID string `json:"channel_id"`
		UserID    string `json:"user_id"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelID == "" || p.UserID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	channelID := domain.ChannelID(p.ChannelID)
	userID := domain.UserID(p.UserID)

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("channel_id", p.ChannelID).Msg("join voice channel")
	if _, err := ctl.Lifecycle.JoinLive(ctx, sid, channelID, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			ctl.sendJSON(conn, map[string]any{
				"type":  "error",
				"error": "channel_not_found",
			})
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("channel_id", p.ChannelID).Msg("join failed")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "join_failed",
		})
		return
	}

	ch, err := ctl.Lifecycle.Registry.Get(channelID)
	if err != nil {
		return
	}
	members, _ := ctl.Lifecycle.Participants(ctx, channelID)
	ctl.sendJSON(conn, struct {
		Type    string          `json:"type"`
		Channel *domain.Channel `json:"channel"`
		Members []domain.User   `json:"members"`
	}{
		Type:    "voice_channel_state",
		Channel: ch,
		Members: members,
	})
}

// handleLeave releases the session's current binding; the connection itself
// stays open.
func (ctl *SignalWSController) handleLeave(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave voice channel")
	if err := ctl.Lifecycle.LeaveLive(ctx, sid); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("leave failed")
	}
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})
}
