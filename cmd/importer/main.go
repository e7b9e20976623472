// Command importer runs one-shot batch operations against the gymlog store:
// importing a raw log file, migrating legacy records to normalized sessions,
// recomputing the usage ranking, and taking or listing backup snapshots.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gymlog/internal/config"
	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/importer"
	"example.com/gymlog/internal/store"
	pgstore "example.com/gymlog/internal/store/postgres"
)

func main() {
	var (
		mode = flag.String("mode", "import", "one of: import, import-legacy, migrate, clear-sessions, rank, backup, list-backups")
		file = flag.String("file", "gym.txt", "path to the raw log file (import modes)")
		user = flag.String("user", "", "user id (defaults to DEFAULT_USER_ID)")
	)
	flag.Parse()

	cfg := config.Load()
	userID := *user
	if userID == "" {
		userID = cfg.DefaultUserID
	}

	ctx := context.Background()
	repo := buildRepository(ctx, cfg)
	service := domain.NewService(repo)
	if err := service.SeedLocations(ctx); err != nil {
		log.Fatalf("seed locations: %v", err)
	}
	imp := importer.New(service)

	switch *mode {
	case "import":
		text := readFile(*file)
		imported, err := imp.ImportNormalized(ctx, userID, text, cfg.ImportMinDate, time.Now().UTC())
		if err != nil {
			log.Fatalf("import failed: %v", err)
		}
		log.Printf("done: imported %d sessions from %s (min date %q)", imported, *file, cfg.ImportMinDate)
	case "import-legacy":
		text := readFile(*file)
		imported, err := imp.ImportLegacy(ctx, userID, text, cfg.ImportMinDate, time.Now().UTC())
		if err != nil {
			log.Fatalf("legacy import failed: %v", err)
		}
		log.Printf("done: imported %d legacy sessions from %s", imported, *file)
	case "migrate":
		migrated, err := imp.MigrateLegacy(ctx, userID)
		if err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		log.Printf("done: migrated %d sessions from legacy to normalized", migrated)
	case "clear-sessions":
		cleared, err := service.ClearSessions(ctx, userID)
		if err != nil {
			log.Fatalf("clear sessions failed: %v", err)
		}
		log.Printf("done: cleared %d normalized sessions", cleared)
	case "rank":
		ranked, err := service.RankExercises(ctx, userID)
		if err != nil {
			log.Fatalf("ranking failed: %v", err)
		}
		log.Printf("ranked %d exercises by frequency", len(ranked))
		for i, exercise := range ranked {
			if i >= 20 {
				break
			}
			log.Printf("%s -> %d", exercise.Name, exercise.UsageCount)
		}
	case "backup":
		meta, err := service.CreateBackup(ctx, userID)
		if err != nil {
			log.Fatalf("backup failed: %v", err)
		}
		log.Printf("created backup %s (sessions=%d exercises=%d locations=%d)",
			meta.BackupID, meta.Summary.Sessions, meta.Summary.Exercises, meta.Summary.Locations)
	case "list-backups":
		backups, err := service.ListBackups(ctx, userID, 20)
		if err != nil {
			log.Fatalf("list backups failed: %v", err)
		}
		log.Printf("found %d backups", len(backups))
		for _, meta := range backups {
			log.Printf("%s | v%d | sessions=%d exercises=%d locations=%d",
				meta.BackupID, meta.SchemaVersion, meta.Summary.Sessions, meta.Summary.Exercises, meta.Summary.Locations)
		}
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}

func readFile(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return string(raw)
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
