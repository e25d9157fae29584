package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tubedigest/infrastructure/configuration"
	httpHandler "tubedigest/interfaces/http"
	"tubedigest/interfaces/middleware"
)

func InitiateRouter(
	sessionHandler httpHandler.ISessionHandler,
	googleOAuthHandler httpHandler.IGoogleOAuthHandler,
	channelHandler httpHandler.IChannelHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{configuration.C.Frontend.BaseURL, "http://localhost:4200", "https://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// OAuth entry points stay outside the auth group: they are how a
	// session gets created in the first place.
	router.GET("/auth/google", googleOAuthHandler.Redirect)
	router.GET("/auth/google/callback", googleOAuthHandler.Callback)

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	api.Use(middleware.Auth(configuration.C.App.SecretKey))

	api.GET("/me", sessionHandler.Me)
	api.POST("/auth/logout", sessionHandler.Logout)

	api.GET("/channels", channelHandler.ListDirectory)
	api.GET("/channels/selected", channelHandler.ListSelected)
	api.POST("/channels/select", channelHandler.SelectChannels)
	api.PUT("/channels/:channelId", channelHandler.ToggleChannel)

	return router
}
