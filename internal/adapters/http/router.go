// Package http wires the gin router: the websocket endpoint, the REST
// surface around users/workspaces/notes, and the operational
// endpoints.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/noteroom/internal/adapters/ws"
	"github.com/dkeye/noteroom/internal/app"
	"github.com/dkeye/noteroom/internal/config"
	"github.com/dkeye/noteroom/internal/metrics"
	"github.com/dkeye/noteroom/internal/store"
)

func SetupRouter(ctx context.Context, cfg *config.Config, hub *app.Hub, st store.Store) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	secret := []byte(cfg.Secret)
	h := &Handlers{hub: hub, store: st, secret: secret, tokenTTL: cfg.TokenTTL}
	wsCtl := ws.NewController(hub, secret, cfg.ReadLimit, cfg.PingPeriod)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		wsCtl.HandleWS(ctx, c)
	})

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)

	workspaces := api.Group("/workspaces", h.RequireAuth())
	workspaces.GET("", h.ListWorkspaces)
	workspaces.POST("", h.CreateWorkspace)
	workspaces.GET("/:id", h.GetWorkspace)
	workspaces.GET("/:id/notes", h.ListNotes)
	workspaces.POST("/:id/notes", h.CreateNote)
	workspaces.DELETE("/:id/notes/:noteId", h.DeleteNote)
	workspaces.POST("/:id/invite", h.InviteMember)
	workspaces.POST("/:id/accept", h.AcceptInvitation)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
