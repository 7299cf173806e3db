package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/aurachat/voice/internal/domain"
)

type sendSignalRequest struct {
	SignalType string                     `json:"signal_type" binding:"required"`
	FromUser   string                     `json:"from_user" binding:"required"`
	ToUser     string                     `json:"to_user" binding:"required"`
	ChannelID  string                     `json:"channel_id" binding:"required"`
	SDP        *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate  *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// sendSignal accepts a signal for relay. The response is an acknowledgement
// only: an offline recipient means queueing, never an error.
func (h *Handler) sendSignal(c *gin.Context) {
	var req sendSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	kind, err := domain.ParseSignalKind(req.SignalType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	sig := domain.Signal{
		From:      domain.UserID(req.FromUser),
		To:        domain.UserID(req.ToUser),
		Channel:   domain.ChannelID(req.ChannelID),
		Kind:      kind,
		SDP:       req.SDP,
		Candidate: req.Candidate,
	}
	if err := sig.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := h.Relay.Send(sig); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Señal aceptada"})
}

// pullSignals drains the caller's queued signals for one channel, consuming
// them. An unknown or already deleted channel pulls empty.
func (h *Handler) pullSignals(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "user_id is required"})
		return
	}
	sigs := h.Relay.Pull(domain.ChannelID(c.Param("channel_id")), domain.UserID(userID))
	if sigs == nil {
		sigs = []domain.Signal{}
	}
	c.JSON(http.StatusOK, gin.H{"signals": sigs})
}
