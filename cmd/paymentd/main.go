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
	"shopflow/internal/models"
	"shopflow/internal/service"
	"shopflow/internal/store"
	"shopflow/internal/util"
	"shopflow/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger("payment-service", cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting payment service")

	tp, err := util.InitTracer("payment-service", cfg.Observ.JaegerEndpoint)
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

	queue, err := broker.NewQueue(cfg.Rabbit.URL, cfg.Rabbit.RequeueLimit)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, queue flow degraded", zap.Error(err))
		queue = nil
	} else {
		defer queue.Close()
		if err := queue.Declare(models.QueuePaymentRequest, models.QueuePaymentCompleted); err != nil {
			logger.Warn("Queue declaration failed", zap.Error(err))
		}
		log.Println("RabbitMQ connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	stream := broker.NewStreamPublisher(producer,
		cfg.Kafka.TopicOrderEvents, cfg.Kafka.TopicUserEvents, cfg.Kafka.TopicPaymentEvents)

	paymentService := service.NewPaymentService(db, queue, stream)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var paymentWorker *worker.PaymentWorker
	if queue != nil {
		consumer, err := queue.NewConsumer(models.QueuePaymentRequest)
		if err != nil {
			logger.Warn("Payment request consumer unavailable", zap.Error(err))
		} else {
			paymentWorker = worker.NewPaymentWorker(consumer, paymentService)
			go func() {
				if err := paymentWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
					log.Printf("Payment worker error: %v", err)
				}
			}()
		}
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewPaymentHandler(paymentService)
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
	if paymentWorker != nil {
		paymentWorker.Stop()
	}

	log.Println("Server exited")
}
