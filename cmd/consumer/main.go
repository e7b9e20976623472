package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/gymlog/internal/config"
	"example.com/gymlog/internal/consumer"
	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/events"
	"example.com/gymlog/internal/importer"
	"example.com/gymlog/internal/store"
	pgstore "example.com/gymlog/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Printf("gymlog consumer metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	repo := buildRepository(ctx, cfg)
	service := domain.NewService(repo)
	if err := service.SeedLocations(ctx); err != nil {
		log.Fatalf("seed locations: %v", err)
	}

	imp := importer.New(service)
	publisher := consumer.NewKafkaCompletionPublisher(cfg.KafkaBrokers, cfg.CompletionsTopic)
	defer publisher.Close()
	handler := consumer.NewImportHandler(imp, cfg.DefaultUserID, cfg.ImportMinDate,
		consumer.WithCompletionPublisher(publisher))
	var wg sync.WaitGroup

	for _, topic := range cfg.ConsumerTopics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.KafkaBrokers,
			GroupID:        cfg.ConsumerGroup,
			Topic:          topic,
			MinBytes:       1e3,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
		})
		proc := consumer.NewProcessor(reader, handler,
			consumer.WithEventTypes(events.TypeImportRequested))

		wg.Add(1)
		go func(tp string, r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()
			if err := proc.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("consumer stopped with error (topic=%s): %v", tp, err)
			}
		}(topic, reader)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	log.Println("gymlog consumer shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics shutdown error: %v", err)
	}

	wg.Wait()
}

func buildRepository(ctx context.Context, cfg config.Config) domain.Repository {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, using in-memory repository")
		return store.NewInMemoryRepository()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres pool: %v", err)
	}
	if err := pgstore.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("postgres schema: %v", err)
	}
	return pgstore.NewRepository(pool)
}
