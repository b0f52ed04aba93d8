package router

import (
	"net/http"
	"strconv"
	"time"

	"bridge-backend/internal/app"
	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// corsMiddleware CORS middleware driven by the cors section of the config.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowedOrigins := []string{"*"}
		allowCredentials := true
		maxAge := 3600
		if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		}

		allowed := ""
		for _, candidate := range allowedOrigins {
			if candidate == "*" || candidate == origin {
				allowed = candidate
				break
			}
		}
		if allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			if allowCredentials && allowed != "*" {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger logs every request with structured fields.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Info("request handled")
	}
}

// SetupRouter wires all routes against the service container.
func SetupRouter(container *app.ServiceContainer) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	walletHandler := handlers.NewWalletHandler(container.WalletProvisioner, container.WalletEvents)
	bridgeHandler := handlers.NewBridgeHandler(container.BridgeService, container.PaymentService)
	paymentHandler := handlers.NewPaymentHandler(container.PaymentService)
	healthHandler := handlers.NewHealthHandler(config.AppConfig, clients.DialChain)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/ws/progress", func(c *gin.Context) {
		container.ProgressPush.HandleConnection(c.Writer, c.Request)
	})

	api := engine.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		wallet := api.Group("/wallet")
		{
			wallet.POST("/create", walletHandler.CreateWalletHandler)
			wallet.POST("/create-all", walletHandler.CreateAllWalletsHandler)
		}

		api.POST("/bridge/transfer", bridgeHandler.TransferHandler)

		payments := api.Group("/payments")
		{
			payments.POST("", paymentHandler.CreatePaymentHandler)
			payments.GET("", paymentHandler.ListPaymentsHandler)
			payments.GET("/:payid", paymentHandler.GetPaymentHandler)
			payments.PATCH("/:payid/status", paymentHandler.UpdatePaymentStatusHandler)
		}
	}

	return engine
}
