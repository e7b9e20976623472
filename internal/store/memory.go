// Package store provides Repository implementations. The in-memory variant
// backs local development and tests; Postgres lives in the postgres
// subpackage.
package store

import (
	"context"
	"sort"
	"sync"

	"example.com/gymlog/internal/domain"
)

// InMemoryRepository keeps all records in process memory, indexed by slug
// and by lowercased name so identity lookups never scan ambient state.
type InMemoryRepository struct {
	mu             sync.RWMutex
	exercises      map[string]domain.Exercise
	exerciseOrder  []string
	locations      map[string]domain.Location
	legacySessions map[string]map[string]domain.LegacySession
	sessions       map[string]map[string]domain.Session
	backups        map[string]map[string]domain.Backup
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		exercises:      make(map[string]domain.Exercise),
		locations:      make(map[string]domain.Location),
		legacySessions: make(map[string]map[string]domain.LegacySession),
		sessions:       make(map[string]map[string]domain.Session),
		backups:        make(map[string]map[string]domain.Backup),
	}
}

// UpsertExercise implements domain.Repository.
func (r *InMemoryRepository) UpsertExercise(ctx context.Context, exercise domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exercises[exercise.ExerciseID]; !ok {
		r.exerciseOrder = append(r.exerciseOrder, exercise.ExerciseID)
	}
	r.exercises[exercise.ExerciseID] = exercise
	return nil
}

// GetExercise returns the exercise or nil when absent.
func (r *InMemoryRepository) GetExercise(ctx context.Context, exerciseID string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercise, ok := r.exercises[exerciseID]
	if !ok {
		return nil, nil
	}
	return &exercise, nil
}

// GetExercisesByIDs returns the subset of identities that exist.
func (r *InMemoryRepository) GetExercisesByIDs(ctx context.Context, exerciseIDs []string) (map[string]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Exercise, len(exerciseIDs))
	for _, id := range exerciseIDs {
		if exercise, ok := r.exercises[id]; ok {
			out[id] = exercise
		}
	}
	return out, nil
}

// ListExercises returns all identities in insertion order.
func (r *InMemoryRepository) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Exercise, 0, len(r.exerciseOrder))
	for _, id := range r.exerciseOrder {
		out = append(out, r.exercises[id])
	}
	return out, nil
}

// UpsertLocation implements domain.Repository.
func (r *InMemoryRepository) UpsertLocation(ctx context.Context, location domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.locations[location.LocationID] = location
	return nil
}

// ListLocations returns all known locations.
func (r *InMemoryRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Location, 0, len(r.locations))
	for _, location := range r.locations {
		out = append(out, location)
	}
	return out, nil
}

// UpsertLegacySession stores a v1 record keyed by (user, date).
func (r *InMemoryRepository) UpsertLegacySession(ctx context.Context, session domain.LegacySession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDate, ok := r.legacySessions[session.UserID]
	if !ok {
		byDate = make(map[string]domain.LegacySession)
		r.legacySessions[session.UserID] = byDate
	}
	byDate[session.SessionDate] = session
	return nil
}

// ListLegacySessions returns v1 records for a user, newest date first.
func (r *InMemoryRepository) ListLegacySessions(ctx context.Context, userID string) ([]domain.LegacySession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDate := r.legacySessions[userID]
	out := make([]domain.LegacySession, 0, len(byDate))
	for _, session := range byDate {
		out = append(out, session)
	}
	sortLegacyByDateDesc(out)
	return out, nil
}

// UpsertSession stores a v2 record keyed by (user, session ID).
func (r *InMemoryRepository) UpsertSession(ctx context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.sessions[session.UserID]
	if !ok {
		byID = make(map[string]domain.Session)
		r.sessions[session.UserID] = byID
	}
	byID[session.SessionID] = session
	return nil
}

// ListSessions returns v2 records for a user.
func (r *InMemoryRepository) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := r.sessions[userID]
	out := make([]domain.Session, 0, len(byID))
	for _, session := range byID {
		out = append(out, session)
	}
	return out, nil
}

// DeleteSession removes one v2 record. Deleting a missing record is a no-op.
func (r *InMemoryRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if byID, ok := r.sessions[userID]; ok {
		delete(byID, sessionID)
	}
	return nil
}

// SaveBackup stores a snapshot keyed by (user, backup ID).
func (r *InMemoryRepository) SaveBackup(ctx context.Context, backup domain.Backup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.backups[backup.Meta.UserID]
	if !ok {
		byID = make(map[string]domain.Backup)
		r.backups[backup.Meta.UserID] = byID
	}
	byID[backup.Meta.BackupID] = backup
	return nil
}

// ListBackups returns backup metadata for a user, newest first.
func (r *InMemoryRepository) ListBackups(ctx context.Context, userID string, limit int) ([]domain.BackupMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := r.backups[userID]
	out := make([]domain.BackupMeta, 0, len(byID))
	for _, backup := range byID {
		out = append(out, backup.Meta)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BackupID > out[j].BackupID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetBackup returns the snapshot or nil when absent.
func (r *InMemoryRepository) GetBackup(ctx context.Context, userID, backupID string) (*domain.Backup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backup, ok := r.backups[userID][backupID]
	if !ok {
		return nil, nil
	}
	return &backup, nil
}

func sortLegacyByDateDesc(sessions []domain.LegacySession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].SessionDate > sessions[j].SessionDate
	})
}
