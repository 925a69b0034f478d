package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"realtime-service/internal/auth"
	"realtime-service/internal/broadcast"
	"realtime-service/internal/config"
	"realtime-service/internal/db"
	grpcserver "realtime-service/internal/grpc"
	"realtime-service/internal/handlers"
	"realtime-service/internal/middleware"
	"realtime-service/internal/observability"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/repositories"
	"realtime-service/internal/telemetry"
	"realtime-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	mode, reason := rabbitmq.Describe(publisher)
	log.Printf("event publisher mode=%s reason=%q", mode, reason)
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, "audit."+cfg.ServiceName, cfg.ServiceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	reportRepo := repositories.NewReportRepo(database)

	hubOpts := []ws.Option{
		ws.WithClock(clockwork.NewRealClock()),
		ws.WithTypingTimeout(cfg.TypingTimeout),
	}
	probes := map[string]grpcserver.Probe{"postgres": database.PingContext}

	var backbone *broadcast.RedisBackbone
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		nodeID := uuid.NewString()
		backbone = broadcast.NewRedisBackbone(rdb, cfg.RedisChannel, 0)
		hubOpts = append(hubOpts, ws.WithBackbone(nodeID, backbone))
		probes["redis"] = backbone.Ping
		log.Printf("multi-node fan-out enabled node_id=%s channel=%s", nodeID, cfg.RedisChannel)
	}

	hub := ws.NewHub(userRepo, hubOpts...)
	if backbone != nil {
		go func() {
			if err := backbone.Run(ctx, hub); err != nil {
				log.Printf("backbone stopped: %v", err)
			}
		}()
	}

	tokens := auth.NewValidator(cfg.JWTSecret)
	dispatcher := ws.NewDispatcher(hub, chatRepo)
	wsHandler := ws.NewWebSocketHandler(hub, dispatcher, tokens, cfg.SendBuffer)

	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, userRepo, friendRepo, notificationRepo, hub)
	friendHandler := handlers.NewFriendHandler(friendRepo, userRepo, notificationRepo, hub)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	reportHandler := handlers.NewReportHandler(reportRepo, hub, audit)
	presenceHandler := handlers.NewPresenceHandler(hub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": hub.ConnectionCount(), "online_users": hub.OnlineCount()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.Handle)

	api := router.Group("/", middleware.AuthMiddleware(tokens))
	api.GET("/chats", chatHandler.ListChats)
	api.GET("/chats/unread", chatHandler.UnreadCounts)
	api.POST("/chats/start", chatHandler.StartChat)
	api.GET("/chats/:chat_id/messages", chatHandler.GetChatMessages)
	api.POST("/chats/:chat_id/messages", chatHandler.PostChatMessage)
	api.POST("/chats/:chat_id/read", chatHandler.MarkChatRead)

	api.POST("/friends/requests", friendHandler.SendRequest)
	api.POST("/friends/requests/:request_id/accept", friendHandler.AcceptRequest)
	api.DELETE("/friends/requests/:request_id", friendHandler.CancelRequest)
	api.DELETE("/friends/:friend_id", friendHandler.RemoveFriend)

	api.GET("/notifications", notificationHandler.List)
	api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	api.POST("/notifications/:notification_id/read", notificationHandler.MarkRead)

	api.POST("/reports", reportHandler.FileReport)
	api.GET("/users/:user_id/online", presenceHandler.Online)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	grpcLis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("failed to listen grpc: %v", err)
	}
	grpcSrv := grpcserver.NewServer(probes, 10*time.Second)
	go func() {
		if err := grpcSrv.Serve(ctx, grpcLis); err != nil {
			log.Printf("grpc server error: %v", err)
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("http listening port=%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	grpcSrv.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
}
