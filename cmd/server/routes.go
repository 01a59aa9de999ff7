package main

import (
	"github.com/gin-gonic/gin"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/interfaces/http/handlers"
	"onyx.backend/internal/interfaces/http/middleware"
	"onyx.backend/internal/interfaces/http/response"
)

type routeDeps struct {
	fundingHandler *handlers.FundingHandler
	webhookHandler *handlers.WebhookHandler
	providerAuth   gin.HandlerFunc
}

// newRouter builds the engine with the global middleware chain and every route.
func newRouter(allowedOrigins []string, d routeDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	applyCORSMiddleware(r, allowedOrigins...)

	r.NoMethod(func(c *gin.Context) {
		response.Error(c, domainerrors.MethodNotAllowed())
	})
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, domainerrors.NotFound("Not found"))
	})

	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerFundingRoutes(r, d)
	return r
}

func registerFundingRoutes(r *gin.Engine, d routeDeps) {
	providerAuth := d.providerAuth
	if providerAuth == nil {
		providerAuth = middleware.ProviderAuthMiddleware(nil)
	}

	funding := r.Group("/api/funding")
	{
		funding.POST("/log", providerAuth, middleware.IdempotencyMiddleware(), d.fundingHandler.LogFunding)
		funding.POST("/webhook", d.webhookHandler.HandlePaystackWebhook)

		funding.GET("/users/:userId/balance", d.fundingHandler.GetBalance)
		funding.GET("/users/:userId/records", d.fundingHandler.ListRecords)
	}
}
