// Package postgres provides pgx-backed persistence for gymlog records.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gymlog/internal/domain"
)

// Repository implements domain.Repository on a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Schema holds the DDL for all gymlog tables. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS exercises (
    exercise_id TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    name_lower  TEXT NOT NULL,
    aliases     JSONB NOT NULL DEFAULT '[]',
    usage_count INT NOT NULL DEFAULT 0,
    sort_order  INT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS exercises_name_lower_idx ON exercises (name_lower);

CREATE TABLE IF NOT EXISTS locations (
    location_id TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS legacy_sessions (
    user_id      TEXT NOT NULL,
    session_date TEXT NOT NULL,
    exercises    JSONB NOT NULL DEFAULT '[]',
    notes_raw    TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, session_date)
);

CREATE TABLE IF NOT EXISTS sessions (
    user_id          TEXT NOT NULL,
    session_id       TEXT NOT NULL,
    session_date     TEXT NOT NULL,
    session_sort_key TEXT NOT NULL,
    start_time       TEXT NOT NULL DEFAULT '',
    end_time         TEXT NOT NULL DEFAULT '',
    location_id      TEXT NOT NULL,
    exercise_items   JSONB NOT NULL DEFAULT '[]',
    notes_raw        TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, session_id)
);
CREATE INDEX IF NOT EXISTS sessions_sort_idx ON sessions (user_id, session_sort_key);

CREATE TABLE IF NOT EXISTS backups (
    user_id        TEXT NOT NULL,
    backup_id      TEXT NOT NULL,
    schema_version INT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    summary        JSONB NOT NULL,
    payload        JSONB NOT NULL,
    PRIMARY KEY (user_id, backup_id)
);
`

// EnsureSchema applies the DDL.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}

// UpsertExercise implements domain.Repository.
func (r *Repository) UpsertExercise(ctx context.Context, exercise domain.Exercise) error {
	aliases, err := json.Marshal(exercise.Aliases)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO exercises (exercise_id, name, name_lower, aliases, usage_count, sort_order, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (exercise_id) DO UPDATE SET
            name = EXCLUDED.name,
            name_lower = EXCLUDED.name_lower,
            aliases = EXCLUDED.aliases,
            usage_count = EXCLUDED.usage_count,
            sort_order = EXCLUDED.sort_order,
            updated_at = EXCLUDED.updated_at`

	_, err = r.pool.Exec(ctx, stmt,
		exercise.ExerciseID,
		exercise.Name,
		exercise.NameLower,
		aliases,
		exercise.UsageCount,
		exercise.SortOrder,
		exercise.CreatedAt,
		exercise.UpdatedAt,
	)
	return err
}

// GetExercise returns the exercise or nil when absent.
func (r *Repository) GetExercise(ctx context.Context, exerciseID string) (*domain.Exercise, error) {
	const query = `SELECT exercise_id, name, name_lower, aliases, usage_count, sort_order, created_at, updated_at
        FROM exercises WHERE exercise_id=$1`

	row := r.pool.QueryRow(ctx, query, exerciseID)
	exercise, err := scanExercise(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &exercise, nil
}

// GetExercisesByIDs returns the subset of identities that exist.
func (r *Repository) GetExercisesByIDs(ctx context.Context, exerciseIDs []string) (map[string]domain.Exercise, error) {
	out := make(map[string]domain.Exercise, len(exerciseIDs))
	if len(exerciseIDs) == 0 {
		return out, nil
	}

	const query = `SELECT exercise_id, name, name_lower, aliases, usage_count, sort_order, created_at, updated_at
        FROM exercises WHERE exercise_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, exerciseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out[exercise.ExerciseID] = exercise
	}
	return out, rows.Err()
}

// ListExercises returns all identities.
func (r *Repository) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	const query = `SELECT exercise_id, name, name_lower, aliases, usage_count, sort_order, created_at, updated_at
        FROM exercises ORDER BY created_at, exercise_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Exercise
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exercise)
	}
	return out, rows.Err()
}

// UpsertLocation implements domain.Repository.
func (r *Repository) UpsertLocation(ctx context.Context, location domain.Location) error {
	const stmt = `INSERT INTO locations (location_id, name, created_at, updated_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (location_id) DO UPDATE SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, stmt, location.LocationID, location.Name, location.CreatedAt, location.UpdatedAt)
	return err
}

// ListLocations returns all known locations.
func (r *Repository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	const query = `SELECT location_id, name, created_at, updated_at FROM locations ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Location
	for rows.Next() {
		var location domain.Location
		if err := rows.Scan(&location.LocationID, &location.Name, &location.CreatedAt, &location.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, location)
	}
	return out, rows.Err()
}

// UpsertLegacySession stores a v1 record keyed by (user, date).
func (r *Repository) UpsertLegacySession(ctx context.Context, session domain.LegacySession) error {
	exercises, err := json.Marshal(session.Exercises)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO legacy_sessions (user_id, session_date, exercises, notes_raw, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id, session_date) DO UPDATE SET
            exercises = EXCLUDED.exercises,
            notes_raw = EXCLUDED.notes_raw,
            updated_at = EXCLUDED.updated_at`

	_, err = r.pool.Exec(ctx, stmt,
		session.UserID,
		session.SessionDate,
		exercises,
		session.NotesRaw,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// ListLegacySessions returns v1 records for a user, newest date first.
func (r *Repository) ListLegacySessions(ctx context.Context, userID string) ([]domain.LegacySession, error) {
	const query = `SELECT user_id, session_date, exercises, notes_raw, created_at, updated_at
        FROM legacy_sessions WHERE user_id=$1 ORDER BY session_date DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LegacySession
	for rows.Next() {
		var session domain.LegacySession
		var exercises []byte
		if err := rows.Scan(&session.UserID, &session.SessionDate, &exercises, &session.NotesRaw, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(exercises, &session.Exercises); err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

// UpsertSession stores a v2 record keyed by (user, session ID).
func (r *Repository) UpsertSession(ctx context.Context, session domain.Session) error {
	items, err := json.Marshal(session.ExerciseItems)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO sessions (user_id, session_id, session_date, session_sort_key, start_time, end_time, location_id, exercise_items, notes_raw, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (user_id, session_id) DO UPDATE SET
            session_date = EXCLUDED.session_date,
            session_sort_key = EXCLUDED.session_sort_key,
            start_time = EXCLUDED.start_time,
            end_time = EXCLUDED.end_time,
            location_id = EXCLUDED.location_id,
            exercise_items = EXCLUDED.exercise_items,
            notes_raw = EXCLUDED.notes_raw,
            updated_at = EXCLUDED.updated_at`

	_, err = r.pool.Exec(ctx, stmt,
		session.UserID,
		session.SessionID,
		session.SessionDate,
		session.SessionSortKey,
		session.StartTime,
		session.EndTime,
		session.LocationID,
		items,
		session.NotesRaw,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// ListSessions returns v2 records for a user.
func (r *Repository) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	const query = `SELECT user_id, session_id, session_date, session_sort_key, start_time, end_time, location_id, exercise_items, notes_raw, created_at, updated_at
        FROM sessions WHERE user_id=$1 ORDER BY session_sort_key DESC, session_id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var session domain.Session
		var items []byte
		if err := rows.Scan(
			&session.UserID,
			&session.SessionID,
			&session.SessionDate,
			&session.SessionSortKey,
			&session.StartTime,
			&session.EndTime,
			&session.LocationID,
			&items,
			&session.NotesRaw,
			&session.CreatedAt,
			&session.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &session.ExerciseItems); err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

// DeleteSession removes one v2 record. Deleting a missing record is a no-op.
func (r *Repository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id=$1 AND session_id=$2`, userID, sessionID)
	return err
}

// SaveBackup stores a snapshot keyed by (user, backup ID).
func (r *Repository) SaveBackup(ctx context.Context, backup domain.Backup) error {
	summary, err := json.Marshal(backup.Meta.Summary)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(backup.Snapshot)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO backups (user_id, backup_id, schema_version, created_at, summary, payload)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id, backup_id) DO UPDATE SET
            schema_version = EXCLUDED.schema_version,
            summary = EXCLUDED.summary,
            payload = EXCLUDED.payload`

	_, err = r.pool.Exec(ctx, stmt,
		backup.Meta.UserID,
		backup.Meta.BackupID,
		backup.Meta.SchemaVersion,
		backup.Meta.CreatedAt,
		summary,
		payload,
	)
	return err
}

// ListBackups returns backup metadata for a user, newest first.
func (r *Repository) ListBackups(ctx context.Context, userID string, limit int) ([]domain.BackupMeta, error) {
	const query = `SELECT user_id, backup_id, schema_version, created_at, summary
        FROM backups WHERE user_id=$1 ORDER BY backup_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BackupMeta
	for rows.Next() {
		var meta domain.BackupMeta
		var summary []byte
		if err := rows.Scan(&meta.UserID, &meta.BackupID, &meta.SchemaVersion, &meta.CreatedAt, &summary); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(summary, &meta.Summary); err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// GetBackup returns the snapshot or nil when absent.
func (r *Repository) GetBackup(ctx context.Context, userID, backupID string) (*domain.Backup, error) {
	const query = `SELECT user_id, backup_id, schema_version, created_at, summary, payload
        FROM backups WHERE user_id=$1 AND backup_id=$2`

	var backup domain.Backup
	var summary, payload []byte
	err := r.pool.QueryRow(ctx, query, userID, backupID).Scan(
		&backup.Meta.UserID,
		&backup.Meta.BackupID,
		&backup.Meta.SchemaVersion,
		&backup.Meta.CreatedAt,
		&summary,
		&payload,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(summary, &backup.Meta.Summary); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &backup.Snapshot); err != nil {
		return nil, err
	}
	return &backup, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (domain.Exercise, error) {
	var exercise domain.Exercise
	var aliases []byte
	if err := row.Scan(
		&exercise.ExerciseID,
		&exercise.Name,
		&exercise.NameLower,
		&aliases,
		&exercise.UsageCount,
		&exercise.SortOrder,
		&exercise.CreatedAt,
		&exercise.UpdatedAt,
	); err != nil {
		return domain.Exercise{}, err
	}
	if err := json.Unmarshal(aliases, &exercise.Aliases); err != nil {
		return domain.Exercise{}, err
	}
	return exercise, nil
}
