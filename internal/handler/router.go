package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"treevite/server/internal/config"
	"treevite/server/internal/handler/middleware"
	jwtpkg "treevite/server/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	inviteHandler *InviteHandler,
	authHandler *AuthHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes. Redemption takes an optional token so an existing
	// participant can redeem under their current identity.
	public := r.Group("/api/v1/conversations/:conversation_id")
	{
		public.POST("/invites/redeem", middleware.OptionalJWTAuth(jwtManager), inviteHandler.Redeem)
		public.POST("/login", authHandler.Login)
	}

	// Participant routes
	me := r.Group("/api/v1/conversations/:conversation_id/me")
	me.Use(middleware.JWTAuth(jwtManager))
	{
		me.GET("/invites", inviteHandler.ListMyInvites)
		me.GET("/wave", inviteHandler.MyWaveContext)
		me.POST("/logincode/regenerate", authHandler.RegenerateLoginCode)
	}

	// Admin routes (JWT + allow-list)
	admin := r.Group("/api/v1/admin/conversations/:conversation_id")
	admin.Use(middleware.JWTAuth(jwtManager))
	admin.Use(middleware.AdminAuth(cfg.Admin.AccountIDs))
	{
		admin.POST("/waves", adminHandler.CreateWave)
		admin.GET("/waves", adminHandler.ListWaves)
		admin.GET("/invites", adminHandler.ListInvites)
		admin.POST("/participants/:participant_id/revoke-logincode", adminHandler.RevokeLoginCode)
	}

	return r
}
