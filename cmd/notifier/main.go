package main

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/config"
	"github.com/ariefcatur/go-retail-backend/internal/events"
	kafkax "github.com/ariefcatur/go-retail-backend/internal/kafka"
	"github.com/ariefcatur/go-retail-backend/internal/notify"
	"github.com/ariefcatur/go-retail-backend/internal/postgres"
	"github.com/ariefcatur/go-retail-backend/internal/redisx"
	"github.com/ariefcatur/go-retail-backend/internal/users"
	"github.com/joho/godotenv"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// SES
	mailer, err := notify.NewSESMailer(ctx, cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey, cfg.MailSender)
	if err != nil {
		log.Fatalf("ses: %v", err)
	}

	svc := &notify.Service{
		Users:       &users.Repo{DB: db},
		Mailer:      mailer,
		Dedup:       redisx.NewCache(rdb),
		ServiceName: cfg.ServiceName + "-notifier",
	}

	// Consumer
	topics := []string{events.TopicOrderStatusChanged, events.TopicPaymentConfirmed}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, topics, cfg.NotifierWorkers)

	go func() {
		log.Printf("notifier started: group=%s topics=%v workers=%d", cfg.NotifierGroup, topics, cfg.NotifierWorkers)
		if err := cons.Start(ctx, svc.Handle); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down notifier...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
