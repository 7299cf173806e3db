package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/app"
	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/domain"
)

// Handler is the thin request/response surface over the lifecycle manager and
// the relay.
type Handler struct {
	Lifecycle *app.Lifecycle
	Relay     *app.Relay
}

type createChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	AuraColor   string `json:"aura_color"`
	CreatorID   string `json:"creator_id" binding:"required"`
	IsGhostMode bool   `json:"is_ghost_mode"`
}

func (h *Handler) createChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	ch, err := h.Lifecycle.CreateChannel(c.Request.Context(), req.Name, req.AuraColor, domain.UserID(req.CreatorID), req.IsGhostMode)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) listChannels(c *gin.Context) {
	channels, err := h.Lifecycle.ListChannels(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if channels == nil {
		channels = []domain.Channel{}
	}
	c.JSON(http.StatusOK, channels)
}

func (h *Handler) deleteChannel(c *gin.Context) {
	id := domain.ChannelID(c.Param("channel_id"))
	if err := h.Lifecycle.DeleteChannel(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Canal eliminado"})
}

func (h *Handler) joinChannel(c *gin.Context) {
	id := domain.ChannelID(c.Param("channel_id"))
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "user_id is required"})
		return
	}
	participants, err := h.Lifecycle.JoinChannel(c.Request.Context(), id, domain.UserID(userID))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unido al canal", "participants": participants})
}

func (h *Handler) leaveChannel(c *gin.Context) {
	id := domain.ChannelID(c.Param("channel_id"))
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "user_id is required"})
		return
	}
	if err := h.Lifecycle.LeaveChannel(c.Request.Context(), id, domain.UserID(userID)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saliste del canal"})
}

func (h *Handler) toggleGhostMode(c *gin.Context) {
	id := domain.ChannelID(c.Param("channel_id"))
	isGhost, err := strconv.ParseBool(c.DefaultQuery("is_ghost", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "is_ghost must be a boolean"})
		return
	}
	ch, err := h.Lifecycle.SetGhostMode(c.Request.Context(), id, isGhost)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Modo fantasma actualizado", "channel": ch})
}

func (h *Handler) listParticipants(c *gin.Context) {
	id := domain.ChannelID(c.Param("channel_id"))
	participants, err := h.Lifecycle.Participants(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func abortWithError(c *gin.Context, err error) {
	var perr *core.PersistenceError
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Canal no encontrado"})
	case errors.As(err, &perr):
		log.Error().Err(err).Str("module", "adapters.http").Msg("persistence failure")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error de almacenamiento"})
	case errors.Is(err, domain.ErrChannelNameEmpty), errors.Is(err, domain.ErrChannelNameTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno"})
	}
}
