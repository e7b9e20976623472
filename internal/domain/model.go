// Package domain holds the gymlog record model and the identity resolution
// service that turns free-text exercise names into stable canonical records.
package domain

import (
	"context"
	"errors"
	"time"
)

// Exercise is a canonical exercise identity. Every raw text variant ever
// seen for it is kept in Aliases; insertion order is first-seen order.
type Exercise struct {
	ExerciseID string    `json:"exerciseId"`
	Name       string    `json:"name"`
	NameLower  string    `json:"nameLower"`
	Aliases    []string  `json:"aliases"`
	UsageCount int       `json:"usageCount"`
	SortOrder  int       `json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Location is static reference data describing where a session happened.
type Location struct {
	LocationID string    `json:"locationId"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LegacySession is the v1 record shape: one session per date, raw exercise
// strings, no identity resolution.
type LegacySession struct {
	UserID      string    `json:"userId"`
	SessionDate string    `json:"sessionDate"`
	Exercises   []string  `json:"exercises"`
	NotesRaw    string    `json:"notesRaw,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SessionExerciseItem references a canonical exercise within a session.
type SessionExerciseItem struct {
	ExerciseID string `json:"exerciseId"`
	Notes      string `json:"notes,omitempty"`
}

// Session is the normalized v2 record: identified by a generated session ID
// so a day can hold multiple sessions, ordered by a date+time sort key.
type Session struct {
	UserID         string                `json:"userId"`
	SessionID      string                `json:"sessionId"`
	SessionDate    string                `json:"sessionDate"`
	SessionSortKey string                `json:"sessionSortKey"`
	StartTime      string                `json:"startTime,omitempty"`
	EndTime        string                `json:"endTime,omitempty"`
	LocationID     string                `json:"locationId"`
	ExerciseItems  []SessionExerciseItem `json:"exerciseItems"`
	NotesRaw       string                `json:"notesRaw,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// SessionView is a Session with exercise and location names resolved for
// presentation.
type SessionView struct {
	Session
	LocationName  string            `json:"locationName"`
	ExerciseNames map[string]string `json:"exerciseNames"`
}

// BackupSummary counts the records captured in one snapshot.
type BackupSummary struct {
	LegacySessions int `json:"legacySessions"`
	Sessions       int `json:"sessions"`
	Exercises      int `json:"exercises"`
	Locations      int `json:"locations"`
}

// BackupMeta describes a stored snapshot without its payload.
type BackupMeta struct {
	UserID        string        `json:"userId"`
	BackupID      string        `json:"backupId"`
	SchemaVersion int           `json:"schemaVersion"`
	CreatedAt     time.Time     `json:"createdAt"`
	Summary       BackupSummary `json:"summary"`
}

// BackupSnapshot is the full exported dataset for one user.
type BackupSnapshot struct {
	ExportedAt     time.Time       `json:"exportedAt"`
	UserID         string          `json:"userId"`
	LegacySessions []LegacySession `json:"legacySessions"`
	Sessions       []Session       `json:"sessions"`
	Exercises      []Exercise      `json:"exercises"`
	Locations      []Location      `json:"locations"`
}

// Backup couples a snapshot with its stored metadata.
type Backup struct {
	Meta     BackupMeta     `json:"meta"`
	Snapshot BackupSnapshot `json:"snapshot"`
}

var (
	// ErrExerciseNotFound indicates the referenced identity does not exist.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrSessionNotFound indicates no session matches the lookup.
	ErrSessionNotFound = errors.New("session not found")
	// ErrBackupNotFound indicates no snapshot matches the lookup.
	ErrBackupNotFound = errors.New("backup not found")
)

// Repository is the narrow persistence contract the core depends on. The
// storage layer behind it is an external collaborator; the core performs no
// retries of its own.
type Repository interface {
	UpsertExercise(ctx context.Context, exercise Exercise) error
	GetExercise(ctx context.Context, exerciseID string) (*Exercise, error)
	GetExercisesByIDs(ctx context.Context, exerciseIDs []string) (map[string]Exercise, error)
	ListExercises(ctx context.Context) ([]Exercise, error)

	UpsertLocation(ctx context.Context, location Location) error
	ListLocations(ctx context.Context) ([]Location, error)

	UpsertLegacySession(ctx context.Context, session LegacySession) error
	ListLegacySessions(ctx context.Context, userID string) ([]LegacySession, error)

	UpsertSession(ctx context.Context, session Session) error
	ListSessions(ctx context.Context, userID string) ([]Session, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error

	SaveBackup(ctx context.Context, backup Backup) error
	ListBackups(ctx context.Context, userID string, limit int) ([]BackupMeta, error)
	GetBackup(ctx context.Context, userID, backupID string) (*Backup, error)
}

// DefaultLocations seeds the fixed location enumeration.
func DefaultLocations() []Location {
	return []Location{
		{LocationID: "planet-fitness", Name: "Planet Fitness"},
		{LocationID: "work", Name: "Work Gym"},
		{LocationID: "street", Name: "Street"},
		{LocationID: "unknown", Name: "Unknown"},
	}
}
