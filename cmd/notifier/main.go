package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sellervault-backend-go/internal/config"
	"sellervault-backend-go/internal/logger"
	"sellervault-backend-go/internal/mailer"
	"sellervault-backend-go/internal/messagequeue"
)

func main() {
	// --- 1. Load .env outside release mode ---
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, relying on environment variables")
		}
	}

	// --- 2. Load Configuration ---
	appConfig, err := config.LoadNotifierConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load notifier configuration: %v", err)
	}

	// --- 3. Initialize Logger ---
	zapLogger, err := logger.New(appConfig.LogLevel, appConfig.LogJSON)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 4. Initialize Mailer ---
	m, err := mailer.New(mailer.Config{
		Host:     appConfig.SMTPHost,
		Port:     appConfig.SMTPPort,
		Username: appConfig.SMTPUsername,
		Password: appConfig.SMTPPassword,
		Sender:   appConfig.MailSender,
	})
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid SMTP configuration", zap.Error(err))
	}

	// --- 5. Connect to RabbitMQ ---
	mq, err := messagequeue.NewRabbitMQService(appConfig.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mq.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 6. Consume seller approved events until shutdown ---
	zapLogger.Info("Notifier consuming", zap.String("queue", appConfig.RabbitMQQueue))
	err = mq.Consume(ctx, appConfig.RabbitMQQueue, func(body []byte) error {
		event, err := messagequeue.DecodeSellerApproved(body)
		if err != nil {
			// A malformed event will never succeed; drop it instead of requeueing.
			zapLogger.Error("Discarding malformed seller approved event", zap.Error(err))
			return nil
		}
		subject, html := mailer.SellerApprovedMessage(event)
		if err := m.Send(event.Email, subject, html); err != nil {
			zapLogger.Error("Failed to send seller approved email", zap.String("memberID", event.MemberID), zap.Error(err))
			return err
		}
		zapLogger.Info("Seller approved email sent", zap.String("memberID", event.MemberID))
		return nil
	})
	if err != nil && ctx.Err() == nil {
		zapLogger.Fatal("Consumer stopped unexpectedly", zap.Error(err))
	}
	zapLogger.Info("Notifier exiting gracefully")
}
