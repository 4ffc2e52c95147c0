package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"premises/internal/infra/config"
	"premises/internal/infra/obs"
)

type Handlers struct {
	Premise        PremiseHTTP
	Auth           AuthHTTP
	Stats          StatsHTTP
	Chat           ChatHTTP
	Geocode        GeocodeHTTP
	Favorites      FavoritesHTTP
	Upload         UploadHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Device-Id"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/change-password", h.Auth.ChangePassword)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Premise != nil {
		api.GET("/premises", h.Premise.List)
		api.POST("/premises", h.Premise.Create)
		api.GET("/premises/:id", h.Premise.Get)
		api.PUT("/premises/:id", h.Premise.Update)
		api.DELETE("/premises/:id", h.Premise.Delete)
		api.GET("/premises/:id/similar", h.Premise.Similar)
		api.POST("/premises/:id/price-suggestion", h.Premise.PriceSuggestion)
	}
	if h.Stats != nil {
		statsGroup := api.Group("/stats")
		statsGroup.GET("/overview", h.Stats.Overview)
		statsGroup.GET("/avg-price-by-type", h.Stats.AvgPriceByType)
		statsGroup.GET("/count-by-type", h.Stats.CountByType)
		statsGroup.GET("/avg-price-by-day", h.Stats.AvgPriceByDay)
		statsGroup.GET("/count-by-day", h.Stats.CountByDay)
		statsGroup.GET("/top-users-by-type", h.Stats.TopUsersByType)
		statsGroup.GET("/area-range-by-type", h.Stats.AreaRangeByType)
	}
	if h.Chat != nil {
		api.POST("/chat", h.Chat.Reply)
		api.POST("/chat/stream", h.Chat.Stream)
	}
	if h.Geocode != nil {
		api.GET("/geocode", h.Geocode.Lookup)
	}
	if h.Favorites != nil {
		api.POST("/favorites/:id", h.Favorites.Increment)
		api.GET("/favorites/top", h.Favorites.Top)
		api.DELETE("/favorites", h.Favorites.Reset)
	}
	if h.Upload != nil {
		api.POST("/uploads", h.Upload.UploadImage)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
