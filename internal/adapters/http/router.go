package http

import (
	"context"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/aurachat/voice/internal/adapters/signal"
	"github.com/aurachat/voice/internal/app"
	"github.com/aurachat/voice/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, lifecycle *app.Lifecycle, relay *app.Relay) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("AuraVoiceSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handler{Lifecycle: lifecycle, Relay: relay}
	ctl := &signal.SignalWSController{
		Lifecycle:  lifecycle,
		Relay:      relay,
		Limiter:    signal.NewSignalRateLimiter(120, 10*time.Second),
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}

	api := r.Group("/api")

	api.POST("/voice-channels", h.createChannel)
	api.GET("/voice-channels", h.listChannels)
	api.DELETE("/voice-channels/:channel_id", h.deleteChannel)
	api.POST("/voice-channels/:channel_id/join", h.joinChannel)
	api.POST("/voice-channels/:channel_id/leave", h.leaveChannel)
	api.PUT("/voice-channels/:channel_id/ghost-mode", h.toggleGhostMode)
	api.GET("/voice-channels/:channel_id/participants", h.listParticipants)

	api.POST("/signals", h.sendSignal)
	api.GET("/signals/:channel_id", h.pullSignals)

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	return r
}
