package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/gymlog/internal/api"
	"example.com/gymlog/internal/auth"
	"example.com/gymlog/internal/config"
	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/importer"
	"example.com/gymlog/internal/store"
	pgstore "example.com/gymlog/internal/store/postgres"
	httptransport "example.com/gymlog/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := buildRepository(ctx, cfg)
	service := domain.NewService(repo)
	if err := service.SeedLocations(ctx); err != nil {
		log.Fatalf("seed locations: %v", err)
	}

	imp := importer.New(service)
	handler := api.NewHandler(service, imp, cfg.DefaultUserID)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	middleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, logger(middleware.Wrap(mux)))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("gymlog api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-stop
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
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
	log.Printf("using Postgres repository")
	return pgstore.NewRepository(pool)
}
