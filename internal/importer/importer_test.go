package importer

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/parse"
	"example.com/gymlog/internal/store"
)

func newImporter(t *testing.T) (*Importer, *domain.Service) {
	t.Helper()
	service := domain.NewService(store.NewInMemoryRepository())
	require.NoError(t, service.SeedLocations(context.Background()))
	return New(service, WithLogger(log.New(io.Discard, "", 0))), service
}

func TestMergeByDateDeduplicatesCaseInsensitively(t *testing.T) {
	merged := MergeByDate([]parse.Session{
		{SessionDate: "2024-01-05", Exercises: []string{"Bench", "Squats"}},
		{SessionDate: "2024-01-05", Exercises: []string{"bench", "Deadlift"}},
	})

	require.Len(t, merged, 1)
	require.Equal(t, []string{"Bench", "Squats", "Deadlift"}, merged[0].Exercises)
}

func TestMergeByDateJoinsNotesAndSortsNewestFirst(t *testing.T) {
	merged := MergeByDate([]parse.Session{
		{SessionDate: "2024-01-05", Exercises: []string{"Bench"}, NotesRaw: "Jan 5"},
		{SessionDate: "2024-01-07", Exercises: []string{"Run 5k"}, NotesRaw: "Jan 7"},
		{SessionDate: "2024-01-05", Exercises: []string{"Squats"}, NotesRaw: "Jan 5 again"},
	})

	require.Len(t, merged, 2)
	require.Equal(t, "2024-01-07", merged[0].SessionDate)
	require.Equal(t, "2024-01-05", merged[1].SessionDate)
	require.Equal(t, "Jan 5 | Jan 5 again", merged[1].NotesRaw)
}

func TestImportNormalizedEndToEnd(t *testing.T) {
	imp, service := newImporter(t)
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	text := "gym\nJan 5\nBench Press\nbench press\nSquats\nJan 7\npf treadmill\npf lat pulldown\n"

	imported, err := imp.ImportNormalized(ctx, "me", text, "", now)
	require.NoError(t, err)
	require.Equal(t, 2, imported)

	views, err := service.ListSessionViews(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Newest first.
	require.Equal(t, "2024-01-07", views[0].SessionDate)
	require.Equal(t, "planet-fitness", views[0].LocationID)
	require.Equal(t, "Planet Fitness", views[0].LocationName)

	require.Equal(t, "2024-01-05", views[1].SessionDate)
	require.Equal(t, "unknown", views[1].LocationID)
	// Duplicate resolving to the same identity keeps a single item.
	require.Len(t, views[1].ExerciseItems, 2)

	bench, err := service.GetExercise(ctx, "bench-press")
	require.NoError(t, err)
	require.Equal(t, "Bench Press", bench.Name)
}

func TestImportNormalizedHonorsMinDate(t *testing.T) {
	imp, service := newImporter(t)
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	text := "Jan 5\nBench Press\nFeb 10\nSquats\n"

	imported, err := imp.ImportNormalized(ctx, "me", text, "2024-02-01", now)
	require.NoError(t, err)
	require.Equal(t, 1, imported)

	views, err := service.ListSessionViews(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "2024-02-10", views[0].SessionDate)
}

func TestImportLegacyWritesDateKeyedRecords(t *testing.T) {
	imp, service := newImporter(t)
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	text := "Jan 5\nBench Press\nSquats\nJan 5\nbench press\nDeadlift\n"

	imported, err := imp.ImportLegacy(ctx, "me", text, "", now)
	require.NoError(t, err)
	require.Equal(t, 1, imported)

	sessions, err := service.ListLegacySessions(ctx, "me")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "2024-01-05", sessions[0].SessionDate)
	require.Equal(t, []string{"Bench Press", "Squats", "Deadlift"}, sessions[0].Exercises)
}

func TestMigrateLegacyResolvesIdentitiesAndLocation(t *testing.T) {
	imp, service := newImporter(t)
	ctx := context.Background()

	_, err := service.UpsertLegacySession(ctx, "me", "2024-01-05", []string{"pf treadmill", "pf Treadmill", "pf bench press"}, "Jan 5")
	require.NoError(t, err)

	migrated, err := imp.MigrateLegacy(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, 1, migrated)

	views, err := service.ListSessionViews(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "planet-fitness", views[0].LocationID)
	require.Len(t, views[0].ExerciseItems, 2)

	// The raw alias is recorded with the prefix stripped.
	bench, err := service.GetExercise(ctx, "bench-press")
	require.NoError(t, err)
	require.Contains(t, bench.Aliases, "bench press")
}

func TestMigrateLegacyRerunAppendsSessionsButNotIdentities(t *testing.T) {
	imp, service := newImporter(t)
	ctx := context.Background()

	_, err := service.UpsertLegacySession(ctx, "me", "2024-01-05", []string{"Bench Press"}, "")
	require.NoError(t, err)

	_, err = imp.MigrateLegacy(ctx, "me")
	require.NoError(t, err)
	_, err = imp.MigrateLegacy(ctx, "me")
	require.NoError(t, err)

	// Identity resolution dedupes, but each run mints fresh session IDs.
	exercises, err := service.SearchExercises(ctx, "bench", 10)
	require.NoError(t, err)
	require.Len(t, exercises, 1)

	views, err := service.ListSessionViews(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Clearing normalized sessions first makes the repeat well-defined.
	cleared, err := service.ClearSessions(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, 2, cleared)

	_, err = imp.MigrateLegacy(ctx, "me")
	require.NoError(t, err)

	views, err = service.ListSessionViews(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 1)
}
