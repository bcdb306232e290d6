package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/handlers"
	"messaging-service/internal/identity"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/presence"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.OTLPEndpoint, "messaging-service")
	if err != nil {
		logger.Fatalf("failed to set up tracing: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	resolver := identity.NewJWTResolver(cfg.JWTSecret)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	emitter := telemetry.NewEmitter(publisher, "messaging-service", cfg.Environment, logger)

	registry := presence.NewRegistry()
	broadcaster := ws.NewBroadcaster(logger)
	hub := ws.NewHub(registry, messageRepo, emitter, logger)
	socketHandler := ws.NewWebSocketHandler(hub, registry, broadcaster, resolver, emitter, logger)

	messageHandler := handlers.NewMessageHandler(conversationRepo, messageRepo)
	notificationHandler := handlers.NewNotificationHandler(broadcaster, emitter)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messaging-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(resolver)

	router.GET("/conversations", authMiddleware, messageHandler.ListConversations)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, messageHandler.GetConversationMessages)
	router.PATCH("/messages/:message_id/read", authMiddleware, messageHandler.MarkMessageRead)
	router.POST("/admin/notifications", authMiddleware, notificationHandler.PostNotification)

	router.GET("/ws", socketHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.ServerPort).Info("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.WithError(err).Warn("tracing shutdown")
	}
	logger.Info("server exited")
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()

	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	return logger
}
