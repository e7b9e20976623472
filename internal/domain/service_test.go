package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/store"
)

func newService(t *testing.T) (*domain.Service, *store.InMemoryRepository) {
	t.Helper()
	repo := store.NewInMemoryRepository()
	service := domain.NewService(repo)
	require.NoError(t, service.SeedLocations(context.Background()))
	return service, repo
}

func TestCreateExerciseMintsSlugIdentity(t *testing.T) {
	service, _ := newService(t)

	exercise, err := service.CreateExercise(context.Background(), domain.CreateExerciseInput{
		Name:    "Bench Press",
		Aliases: []string{"bench", "bench "},
	})
	require.NoError(t, err)
	require.Equal(t, "bench-press", exercise.ExerciseID)
	require.Equal(t, "Bench Press", exercise.Name)
	require.Equal(t, "bench press", exercise.NameLower)
	require.Equal(t, []string{"bench"}, exercise.Aliases)
}

func TestCreateExerciseIsIdempotentOnName(t *testing.T) {
	service, repo := newService(t)
	ctx := context.Background()

	first, err := service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	second, err := service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "deadlift"})
	require.NoError(t, err)
	require.Equal(t, first.ExerciseID, second.ExerciseID)

	all, err := repo.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCreateExerciseRejectsEmptyName(t *testing.T) {
	service, _ := newService(t)

	_, err := service.CreateExercise(context.Background(), domain.CreateExerciseInput{Name: "   "})
	require.Error(t, err)
}

func TestCreateExerciseResolvesSlugCollision(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	first, err := service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "Row"})
	require.NoError(t, err)
	require.Equal(t, "row", first.ExerciseID)

	// Different display name, same derived slug via preferred id.
	second, err := service.CreateExercise(ctx, domain.CreateExerciseInput{
		Name:        "Cable Row",
		PreferredID: "row",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ExerciseID, second.ExerciseID)
	require.Contains(t, second.ExerciseID, "row-")
}

func TestEnsureExerciseRecordsNewAliases(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	created, err := service.EnsureExercise(ctx, domain.EnsureExerciseInput{
		Name:  "Pull Ups",
		Alias: "pullups",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"pullups"}, created.Aliases)

	again, err := service.EnsureExercise(ctx, domain.EnsureExerciseInput{
		Name:  "pull ups",
		Alias: "10 pullups",
	})
	require.NoError(t, err)
	require.Equal(t, created.ExerciseID, again.ExerciseID)
	require.Equal(t, []string{"pullups", "10 pullups"}, again.Aliases)

	unchanged, err := service.EnsureExercise(ctx, domain.EnsureExerciseInput{
		Name:  "Pull Ups",
		Alias: "pullups",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"pullups", "10 pullups"}, unchanged.Aliases)
}

func TestEnsureExercisePinsPreferredID(t *testing.T) {
	service, _ := newService(t)

	exercise, err := service.EnsureExercise(context.Background(), domain.EnsureExerciseInput{
		Name:        "One-Arm Dumbbell Row",
		Alias:       "Back",
		PreferredID: "back",
	})
	require.NoError(t, err)
	require.Equal(t, "back", exercise.ExerciseID)
}

func TestUpdateExerciseUnknownIdentityIsNotFound(t *testing.T) {
	service, _ := newService(t)

	_, err := service.UpdateExercise(context.Background(), domain.UpdateExerciseInput{
		ExerciseID: "missing",
		Name:       "Whatever",
	})
	require.ErrorIs(t, err, domain.ErrExerciseNotFound)
}

func TestSearchExercisesMatchesAliasesAndRanks(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.EnsureExercise(ctx, domain.EnsureExerciseInput{Name: "Triceps Machine", Alias: "triceps"})
	require.NoError(t, err)
	_, err = service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "Bench Press"})
	require.NoError(t, err)

	byAlias, err := service.SearchExercises(ctx, "triceps", 10)
	require.NoError(t, err)
	require.Len(t, byAlias, 1)
	require.Equal(t, "Triceps Machine", byAlias[0].Name)

	all, err := service.SearchExercises(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Unranked with equal usage: alphabetical.
	require.Equal(t, "Bench Press", all[0].Name)
}

func TestRankExercisesOrdersByUsage(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	bench, err := service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "Bench Press"})
	require.NoError(t, err)
	squats, err := service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "Squats"})
	require.NoError(t, err)

	for _, date := range []string{"2024-01-05", "2024-01-07"} {
		_, err = service.UpsertSession(ctx, domain.UpsertSessionInput{
			UserID:      "me",
			SessionDate: date,
			LocationID:  "unknown",
			ExerciseItems: []domain.SessionExerciseItem{
				{ExerciseID: squats.ExerciseID},
			},
		})
		require.NoError(t, err)
	}
	_, err = service.UpsertSession(ctx, domain.UpsertSessionInput{
		UserID:      "me",
		SessionDate: "2024-01-09",
		LocationID:  "unknown",
		ExerciseItems: []domain.SessionExerciseItem{
			{ExerciseID: bench.ExerciseID},
		},
	})
	require.NoError(t, err)

	ranked, err := service.RankExercises(ctx, "me")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	require.Equal(t, "Squats", ranked[0].Name)
	require.Equal(t, 2, ranked[0].UsageCount)
	require.Equal(t, 1, ranked[0].SortOrder)
	require.Equal(t, "Bench Press", ranked[1].Name)
	require.Equal(t, 2, ranked[1].SortOrder)
}

func TestUpsertSessionValidation(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.UpsertSession(ctx, domain.UpsertSessionInput{
		UserID:        "me",
		SessionDate:   "Jan 5",
		ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: "bench-press"}},
	})
	require.Error(t, err)

	_, err = service.UpsertSession(ctx, domain.UpsertSessionInput{
		UserID:      "me",
		SessionDate: "2024-01-05",
	})
	require.Error(t, err)

	_, err = service.UpsertSession(ctx, domain.UpsertSessionInput{
		UserID:        "me",
		SessionDate:   "2024-01-05",
		LocationID:    "mars",
		ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: "bench-press"}},
	})
	require.Error(t, err)
}

func TestUpsertSessionMintsIDAndSortKey(t *testing.T) {
	service, _ := newService(t)

	session, err := service.UpsertSession(context.Background(), domain.UpsertSessionInput{
		UserID:        "me",
		SessionDate:   "2024-01-05",
		StartTime:     "07:30",
		LocationID:    "planet-fitness",
		ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: "bench-press"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionID)
	require.True(t, len(session.SessionID) > 2 && session.SessionID[:2] == "s-")
	require.Equal(t, "2024-01-05T07:30", session.SessionSortKey)

	defaulted, err := service.UpsertSession(context.Background(), domain.UpsertSessionInput{
		UserID:        "me",
		SessionDate:   "2024-01-06",
		LocationID:    "unknown",
		ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: "bench-press"}},
	})
	require.NoError(t, err)
	require.Equal(t, "2024-01-06T00:00", defaulted.SessionSortKey)
}

func TestListSessionViewsResolvesNames(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	bench, err := service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "Bench Press"})
	require.NoError(t, err)

	_, err = service.UpsertSession(ctx, domain.UpsertSessionInput{
		UserID:        "me",
		SessionDate:   "2024-01-05",
		LocationID:    "planet-fitness",
		ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: bench.ExerciseID}},
	})
	require.NoError(t, err)

	views, err := service.ListSessionViews(ctx, "me")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Planet Fitness", views[0].LocationName)
	require.Equal(t, "Bench Press", views[0].ExerciseNames[bench.ExerciseID])
}

func TestGetSessionByDateNotFound(t *testing.T) {
	service, _ := newService(t)

	_, err := service.GetSessionByDate(context.Background(), "me", "2024-01-05")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestClearSessionsRemovesAllForUser(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	for _, date := range []string{"2024-01-05", "2024-01-07"} {
		_, err := service.UpsertSession(ctx, domain.UpsertSessionInput{
			UserID:        "me",
			SessionDate:   date,
			LocationID:    "unknown",
			ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: "bench-press"}},
		})
		require.NoError(t, err)
	}
	_, err := service.UpsertSession(ctx, domain.UpsertSessionInput{
		UserID:        "someone-else",
		SessionDate:   "2024-01-09",
		LocationID:    "unknown",
		ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: "bench-press"}},
	})
	require.NoError(t, err)

	cleared, err := service.ClearSessions(ctx, "me")
	require.NoError(t, err)
	require.Equal(t, 2, cleared)

	views, err := service.ListSessionViews(ctx, "me")
	require.NoError(t, err)
	require.Empty(t, views)

	others, err := service.ListSessionViews(ctx, "someone-else")
	require.NoError(t, err)
	require.Len(t, others, 1)
}

func TestCreateBackupSnapshotsEverything(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	bench, err := service.CreateExercise(ctx, domain.CreateExerciseInput{Name: "Bench Press"})
	require.NoError(t, err)
	_, err = service.UpsertLegacySession(ctx, "me", "2024-01-03", []string{"Bench Press"}, "")
	require.NoError(t, err)
	_, err = service.UpsertSession(ctx, domain.UpsertSessionInput{
		UserID:        "me",
		SessionDate:   "2024-01-05",
		LocationID:    "planet-fitness",
		ExerciseItems: []domain.SessionExerciseItem{{ExerciseID: bench.ExerciseID}},
	})
	require.NoError(t, err)

	meta, err := service.CreateBackup(ctx, "me")
	require.NoError(t, err)
	require.NotEmpty(t, meta.BackupID)
	require.Equal(t, 1, meta.Summary.LegacySessions)
	require.Equal(t, 1, meta.Summary.Sessions)
	require.Equal(t, 1, meta.Summary.Exercises)
	require.Equal(t, 4, meta.Summary.Locations)

	backup, err := service.GetBackup(ctx, "me", meta.BackupID)
	require.NoError(t, err)
	require.Equal(t, meta.BackupID, backup.Meta.BackupID)
	require.Len(t, backup.Snapshot.Sessions, 1)
	require.Len(t, backup.Snapshot.Exercises, 1)
	require.Equal(t, "Bench Press", backup.Snapshot.Exercises[0].Name)
}

func TestListBackupsNewestFirst(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	first, err := service.CreateBackup(ctx, "me")
	require.NoError(t, err)
	second, err := service.CreateBackup(ctx, "me")
	require.NoError(t, err)

	backups, err := service.ListBackups(ctx, "me", 10)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	require.Equal(t, second.BackupID, backups[0].BackupID)
	require.Equal(t, first.BackupID, backups[1].BackupID)

	limited, err := service.ListBackups(ctx, "me", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestGetBackupNotFound(t *testing.T) {
	service, _ := newService(t)

	_, err := service.GetBackup(context.Background(), "me", "missing")
	require.ErrorIs(t, err, domain.ErrBackupNotFound)
}
