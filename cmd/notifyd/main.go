package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopflow/config"
	"shopflow/internal/api"
	"shopflow/internal/broker"
	"shopflow/internal/hub"
	"shopflow/internal/models"
	"shopflow/internal/redisclient"
	"shopflow/internal/service"
	"shopflow/internal/store"
	"shopflow/internal/util"
	"shopflow/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger("notification-service", cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting notification service")

	tp, err := util.InitTracer("notification-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, fan-out and history cache degraded", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	queue, err := broker.NewQueue(cfg.Rabbit.URL, cfg.Rabbit.RequeueLimit)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, queue flow degraded", zap.Error(err))
		queue = nil
	} else {
		defer queue.Close()
		if err := queue.Declare(models.QueueNotifications); err != nil {
			logger.Warn("Queue declaration failed", zap.Error(err))
		}
		log.Println("RabbitMQ connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	stream := broker.NewStreamPublisher(producer,
		cfg.Kafka.TopicOrderEvents, cfg.Kafka.TopicUserEvents, cfg.Kafka.TopicPaymentEvents)

	registry := hub.NewRegistry()

	notificationService := service.NewNotificationService(
		db, redisClient, redisClient, registry, stream,
		cfg.Redis.NotifyChannel, cfg.Notify.HistoryLimit)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if redisClient != nil {
		bridge := hub.NewBridge(registry, redisClient, cfg.Redis.NotifyChannel)
		go func() {
			if err := bridge.Run(workerCtx); err != nil && workerCtx.Err() == nil {
				log.Printf("Fan-out bridge error: %v", err)
			}
		}()
	} else {
		logger.Warn("Fan-out bridge disabled, only local sockets receive pushes")
	}

	var notifyWorker *worker.NotificationWorker
	if queue != nil {
		consumer, err := queue.NewConsumer(models.QueueNotifications)
		if err != nil {
			logger.Warn("Notification consumer unavailable", zap.Error(err))
		} else {
			notifyWorker = worker.NewNotificationWorker(consumer, notificationService)
			go func() {
				if err := notifyWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
					log.Printf("Notification worker error: %v", err)
				}
			}()
		}
	}

	relayConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents, cfg.Kafka.ConsumerGroup)
	relayWorker := worker.NewRelayWorker(relayConsumer, notificationService)
	go func() {
		if err := relayWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Printf("Relay worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	wsHandler := hub.NewHandler(registry, notificationService, cfg.Notify.SendBuffer)
	handler := api.NewNotifyHandler(notificationService, wsHandler)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if notifyWorker != nil {
		notifyWorker.Stop()
	}
	relayWorker.Stop()

	log.Println("Server exited")
}
