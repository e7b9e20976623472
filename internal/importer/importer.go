// Package importer runs the batch ingestion pipeline: segment raw log text,
// merge same-day sessions, infer locations, resolve exercise identities and
// hand normalized sessions to the store.
package importer

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/normalize"
	"example.com/gymlog/internal/observability"
	"example.com/gymlog/internal/parse"
)

// Importer orchestrates batch imports and the legacy migration.
type Importer struct {
	service *domain.Service
	logger  *log.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// New constructs an Importer.
func New(service *domain.Service, opts ...Option) *Importer {
	i := &Importer{service: service, logger: log.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// MergeByDate folds sessions that resolved to the same calendar date into
// one, keeping exercises in first-seen order, skipping repeats of the same
// lowercased text, and joining header texts with " | ". Callers must pass
// sessions in their original written order for deterministic output.
func MergeByDate(sessions []parse.Session) []parse.Session {
	type accumulator struct {
		exercises  []string
		seen       map[string]struct{}
		notesParts []string
	}

	byDate := make(map[string]*accumulator)
	var order []string

	for _, session := range sessions {
		acc, ok := byDate[session.SessionDate]
		if !ok {
			acc = &accumulator{seen: make(map[string]struct{})}
			byDate[session.SessionDate] = acc
			order = append(order, session.SessionDate)
		}

		for _, exercise := range session.Exercises {
			key := strings.ToLower(exercise)
			if _, dup := acc.seen[key]; dup {
				continue
			}
			acc.seen[key] = struct{}{}
			acc.exercises = append(acc.exercises, exercise)
		}

		if session.NotesRaw != "" {
			acc.notesParts = append(acc.notesParts, session.NotesRaw)
		}
	}

	merged := make([]parse.Session, 0, len(order))
	for _, date := range order {
		acc := byDate[date]
		merged = append(merged, parse.Session{
			SessionDate: date,
			Exercises:   acc.exercises,
			NotesRaw:    strings.Join(acc.notesParts, " | "),
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SessionDate > merged[j].SessionDate
	})
	return merged
}

// ImportLegacy parses raw log text and writes one legacy record per merged
// calendar day, skipping sessions older than minDate (ISO, empty for no
// cutoff). Returns the number of sessions written.
func (i *Importer) ImportLegacy(ctx context.Context, userID, text, minDate string, now time.Time) (int, error) {
	sessions := parse.GymText(text, now)

	kept := sessions[:0:0]
	for _, session := range sessions {
		if minDate == "" || session.SessionDate >= minDate {
			kept = append(kept, session)
		}
	}

	merged := MergeByDate(kept)
	for _, session := range merged {
		if _, err := i.service.UpsertLegacySession(ctx, userID, session.SessionDate, session.Exercises, session.NotesRaw); err != nil {
			observability.RecordImportError()
			return 0, err
		}
		i.logger.Printf("imported %s (%d exercises)", session.SessionDate, len(session.Exercises))
	}

	observability.RecordSessionsImported(len(merged))
	return len(merged), nil
}

// MigrateLegacy replays every legacy record through identity resolution and
// writes normalized sessions. Identity resolution is idempotent, but each run
// mints fresh session IDs, so re-running appends duplicate sessions; clear
// the normalized sessions first when repeating a migration.
func (i *Importer) MigrateLegacy(ctx context.Context, userID string) (int, error) {
	sessions, err := i.service.ListLegacySessions(ctx, userID)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, session := range sessions {
		normalized, err := i.normalizeSession(ctx, session.Exercises)
		if err != nil {
			observability.RecordImportError()
			return migrated, err
		}

		if _, err := i.service.UpsertSession(ctx, domain.UpsertSessionInput{
			UserID:        userID,
			SessionDate:   session.SessionDate,
			LocationID:    string(normalized.location),
			ExerciseItems: normalized.items,
			NotesRaw:      session.NotesRaw,
		}); err != nil {
			observability.RecordImportError()
			return migrated, err
		}

		migrated++
		i.logger.Printf("migrated %s -> %d exercises (%s)", session.SessionDate, len(normalized.items), normalized.location)
	}

	return migrated, nil
}

// ImportNormalized runs the full pipeline in one pass: segment, merge by
// date, infer location, resolve identities and upsert normalized sessions.
// Returns the number of sessions written.
func (i *Importer) ImportNormalized(ctx context.Context, userID, text, minDate string, now time.Time) (int, error) {
	sessions := parse.GymText(text, now)

	kept := sessions[:0:0]
	for _, session := range sessions {
		if minDate == "" || session.SessionDate >= minDate {
			kept = append(kept, session)
		}
	}

	merged := MergeByDate(kept)
	for _, session := range merged {
		normalized, err := i.normalizeSession(ctx, session.Exercises)
		if err != nil {
			observability.RecordImportError()
			return 0, err
		}

		if _, err := i.service.UpsertSession(ctx, domain.UpsertSessionInput{
			UserID:        userID,
			SessionDate:   session.SessionDate,
			LocationID:    string(normalized.location),
			ExerciseItems: normalized.items,
			NotesRaw:      session.NotesRaw,
		}); err != nil {
			observability.RecordImportError()
			return 0, err
		}
		i.logger.Printf("imported %s -> %d exercises (%s)", session.SessionDate, len(normalized.items), normalized.location)
	}

	observability.RecordSessionsImported(len(merged))
	return len(merged), nil
}

type normalizedSession struct {
	location normalize.LocationID
	items    []domain.SessionExerciseItem
}

// normalizeSession resolves each raw line of one session to a canonical
// identity, deduplicating by resolved exercise ID while preserving
// first-seen order.
func (i *Importer) normalizeSession(ctx context.Context, rawExercises []string) (normalizedSession, error) {
	location := normalize.InferLocation(rawExercises)

	var items []domain.SessionExerciseItem
	seen := make(map[string]struct{})

	for _, raw := range rawExercises {
		canonicalName := normalize.CanonicalNameForLocation(raw, location)
		exercise, err := i.service.EnsureExercise(ctx, domain.EnsureExerciseInput{
			Name:        canonicalName,
			Alias:       normalize.StripLocationPrefix(raw),
			PreferredID: normalize.CanonicalIDForLocation(raw, location),
		})
		if err != nil {
			return normalizedSession{}, err
		}

		if _, dup := seen[exercise.ExerciseID]; dup {
			continue
		}
		seen[exercise.ExerciseID] = struct{}{}
		items = append(items, domain.SessionExerciseItem{ExerciseID: exercise.ExerciseID})
	}

	return normalizedSession{location: location, items: items}, nil
}
