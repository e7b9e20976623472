package domain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/gymlog/internal/normalize"
	"example.com/gymlog/internal/observability"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	spaceRun       = regexp.MustCompile(`\s+`)
)

// Service owns identity resolution and session persistence rules. It holds
// no mutable state of its own; everything flows through the Repository.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateExerciseInput carries the fields for minting an exercise identity.
type CreateExerciseInput struct {
	Name        string
	Aliases     []string
	PreferredID string
}

// CreateExercise mints a canonical exercise identity. Re-creating an
// existing display name is idempotent and returns the existing record. A
// slug collision against a different name is disambiguated with a
// time-based suffix.
func (s *Service) CreateExercise(ctx context.Context, input CreateExerciseInput) (Exercise, error) {
	name := collapseName(input.Name)
	if name == "" {
		return Exercise{}, errors.New("exercise name is required")
	}

	existing, err := s.findByNameLower(ctx, strings.ToLower(name))
	if err != nil {
		return Exercise{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	baseID := input.PreferredID
	if baseID == "" {
		baseID = normalize.Slugify(name)
	}

	exerciseID := baseID
	byID, err := s.repo.GetExercise(ctx, exerciseID)
	if err != nil {
		return Exercise{}, err
	}
	if byID != nil {
		exerciseID = baseID + "-" + collisionSuffix()
	}

	now := time.Now().UTC()
	exercise := Exercise{
		ExerciseID: exerciseID,
		Name:       name,
		NameLower:  strings.ToLower(name),
		Aliases:    uniqueTrimmed(input.Aliases),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.UpsertExercise(ctx, exercise); err != nil {
		return Exercise{}, err
	}
	observability.RecordExerciseUpsert(now)
	return exercise, nil
}

// UpdateExerciseInput carries a rename/realias request.
type UpdateExerciseInput struct {
	ExerciseID string
	Name       string
	Aliases    []string
}

// UpdateExercise renames or realiases an existing identity. A missing
// identity is a not-found failure, never an implicit create.
func (s *Service) UpdateExercise(ctx context.Context, input UpdateExerciseInput) (Exercise, error) {
	exerciseID := strings.TrimSpace(input.ExerciseID)
	if exerciseID == "" {
		return Exercise{}, errors.New("exerciseId is required")
	}

	existing, err := s.repo.GetExercise(ctx, exerciseID)
	if err != nil {
		return Exercise{}, err
	}
	if existing == nil {
		return Exercise{}, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
	}

	name := collapseName(input.Name)
	if name == "" {
		return Exercise{}, errors.New("exercise name is required")
	}

	updated := *existing
	updated.Name = name
	updated.NameLower = strings.ToLower(name)
	updated.Aliases = uniqueTrimmed(input.Aliases)
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpsertExercise(ctx, updated); err != nil {
		return Exercise{}, err
	}
	observability.RecordExerciseUpsert(updated.UpdatedAt)
	return updated, nil
}

// EnsureExerciseInput carries an ensure request from the ingestion pipeline.
type EnsureExerciseInput struct {
	Name        string
	Alias       string
	PreferredID string
}

// EnsureExercise resolves a canonical name to its identity, creating it on
// first sight and recording a new raw alias variant on subsequent sightings.
// PreferredID pins the slug during migration so a location-sensitive rename
// keeps a stable identity.
func (s *Service) EnsureExercise(ctx context.Context, input EnsureExerciseInput) (Exercise, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Exercise{}, errors.New("exercise name is required")
	}

	existing, err := s.findByNameLower(ctx, strings.ToLower(name))
	if err != nil {
		return Exercise{}, err
	}

	if existing != nil {
		if input.Alias == "" || containsString(existing.Aliases, input.Alias) {
			return *existing, nil
		}
		updated := *existing
		updated.Aliases = append(append([]string{}, existing.Aliases...), input.Alias)
		updated.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpsertExercise(ctx, updated); err != nil {
			return Exercise{}, err
		}
		observability.RecordExerciseUpsert(updated.UpdatedAt)
		return updated, nil
	}

	var aliases []string
	if input.Alias != "" {
		aliases = []string{input.Alias}
	}
	return s.CreateExercise(ctx, CreateExerciseInput{
		Name:        name,
		Aliases:     aliases,
		PreferredID: input.PreferredID,
	})
}

// GetExercise retrieves one identity.
func (s *Service) GetExercise(ctx context.Context, exerciseID string) (*Exercise, error) {
	exercise, err := s.repo.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if exercise == nil {
		return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
	}
	return exercise, nil
}

// SearchExercises filters identities by name or alias substring and orders
// them for the frequency-ranked picker: explicit sort order first, then
// usage count descending, then name.
func (s *Service) SearchExercises(ctx context.Context, query string, limit int) ([]Exercise, error) {
	all, err := s.repo.ListExercises(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	filtered := all[:0:0]
	for _, exercise := range all {
		if q == "" || matchesQuery(exercise, q) {
			filtered = append(filtered, exercise)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		orderI, orderJ := rankOrder(filtered[i]), rankOrder(filtered[j])
		if orderI != orderJ {
			return orderI < orderJ
		}
		if filtered[i].UsageCount != filtered[j].UsageCount {
			return filtered[i].UsageCount > filtered[j].UsageCount
		}
		return filtered[i].Name < filtered[j].Name
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// RankExercises recomputes usage counts from the normalized sessions and
// assigns sortOrder 1..N by count descending, ties broken by name.
func (s *Service) RankExercises(ctx context.Context, userID string) ([]Exercise, error) {
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int)
	for _, session := range sessions {
		for _, item := range session.ExerciseItems {
			usage[item.ExerciseID]++
		}
	}

	exercises, err := s.repo.ListExercises(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(exercises, func(i, j int) bool {
		countI, countJ := usage[exercises[i].ExerciseID], usage[exercises[j].ExerciseID]
		if countI != countJ {
			return countI > countJ
		}
		return exercises[i].Name < exercises[j].Name
	})

	now := time.Now().UTC()
	for i := range exercises {
		exercises[i].UsageCount = usage[exercises[i].ExerciseID]
		exercises[i].SortOrder = i + 1
		exercises[i].UpdatedAt = now
		if err := s.repo.UpsertExercise(ctx, exercises[i]); err != nil {
			return nil, err
		}
	}
	return exercises, nil
}

// UpsertSessionInput carries a normalized session write.
type UpsertSessionInput struct {
	UserID        string
	SessionID     string
	SessionDate   string
	StartTime     string
	EndTime       string
	LocationID    string
	ExerciseItems []SessionExerciseItem
	NotesRaw      string
}

// UpsertSession validates and persists a normalized session. A blank session
// ID mints a new one, so the same day can hold several sessions.
func (s *Service) UpsertSession(ctx context.Context, input UpsertSessionInput) (Session, error) {
	if !isoDatePattern.MatchString(input.SessionDate) {
		return Session{}, errors.New("sessionDate must be YYYY-MM-DD")
	}
	if len(input.ExerciseItems) == 0 {
		return Session{}, errors.New("at least one exercise is required")
	}

	locationID := strings.TrimSpace(input.LocationID)
	if locationID == "" {
		locationID = "unknown"
	}
	known, err := s.knownLocationIDs(ctx)
	if err != nil {
		return Session{}, err
	}
	if _, ok := known[locationID]; !ok {
		return Session{}, fmt.Errorf("invalid locationId: %s", locationID)
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = newSessionID()
	}

	now := time.Now().UTC()
	session := Session{
		UserID:         input.UserID,
		SessionID:      sessionID,
		SessionDate:    input.SessionDate,
		SessionSortKey: sessionSortKey(input.SessionDate, input.StartTime),
		StartTime:      strings.TrimSpace(input.StartTime),
		EndTime:        strings.TrimSpace(input.EndTime),
		LocationID:     locationID,
		ExerciseItems:  input.ExerciseItems,
		NotesRaw:       input.NotesRaw,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.UpsertSession(ctx, session); err != nil {
		return Session{}, err
	}
	observability.RecordSessionUpsert(now)
	return session, nil
}

// UpsertLegacySession persists a v1 record keyed by (user, date).
func (s *Service) UpsertLegacySession(ctx context.Context, userID, sessionDate string, exercises []string, notesRaw string) (LegacySession, error) {
	if !isoDatePattern.MatchString(sessionDate) {
		return LegacySession{}, errors.New("sessionDate must be YYYY-MM-DD")
	}

	now := time.Now().UTC()
	session := LegacySession{
		UserID:      userID,
		SessionDate: sessionDate,
		Exercises:   exercises,
		NotesRaw:    notesRaw,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.UpsertLegacySession(ctx, session); err != nil {
		return LegacySession{}, err
	}
	observability.RecordSessionUpsert(now)
	return session, nil
}

// ListLegacySessions returns the v1 records for a user.
func (s *Service) ListLegacySessions(ctx context.Context, userID string) ([]LegacySession, error) {
	return s.repo.ListLegacySessions(ctx, userID)
}

// ListSessionViews returns normalized sessions newest-first with exercise
// and location names resolved.
func (s *Service) ListSessionViews(ctx context.Context, userID string) ([]SessionView, error) {
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].SessionSortKey != sessions[j].SessionSortKey {
			return sessions[i].SessionSortKey > sessions[j].SessionSortKey
		}
		return sessions[i].SessionID > sessions[j].SessionID
	})

	var exerciseIDs []string
	seen := make(map[string]struct{})
	for _, session := range sessions {
		for _, item := range session.ExerciseItems {
			if _, ok := seen[item.ExerciseID]; !ok {
				seen[item.ExerciseID] = struct{}{}
				exerciseIDs = append(exerciseIDs, item.ExerciseID)
			}
		}
	}

	exercises, err := s.repo.GetExercisesByIDs(ctx, exerciseIDs)
	if err != nil {
		return nil, err
	}
	locations, err := s.locationsByID(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		view := SessionView{
			Session:       session,
			LocationName:  "Unknown",
			ExerciseNames: make(map[string]string, len(session.ExerciseItems)),
		}
		if location, ok := locations[session.LocationID]; ok {
			view.LocationName = location.Name
		}
		for _, item := range session.ExerciseItems {
			name := item.ExerciseID
			if exercise, ok := exercises[item.ExerciseID]; ok {
				name = exercise.Name
			}
			view.ExerciseNames[item.ExerciseID] = name
		}
		views = append(views, view)
	}
	return views, nil
}

// GetSessionByDate returns the first session for a calendar day.
func (s *Service) GetSessionByDate(ctx context.Context, userID, sessionDate string) (*SessionView, error) {
	views, err := s.ListSessionViews(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].SessionDate == sessionDate {
			return &views[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionDate)
}

// ListLocations returns the location reference data.
func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.repo.ListLocations(ctx)
}

// ClearSessions deletes every normalized session for a user and returns how
// many were removed. Companion to MigrateLegacy, which appends on each run.
func (s *Service) ClearSessions(ctx context.Context, userID string) (int, error) {
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, session := range sessions {
		if err := s.repo.DeleteSession(ctx, userID, session.SessionID); err != nil {
			return 0, err
		}
	}
	return len(sessions), nil
}

const backupSchemaVersion = 3

// backupIDFormat is a fixed-width timestamp so backup IDs sort
// lexicographically in creation order.
const backupIDFormat = "2006-01-02T15:04:05.000000000Z"

// CreateBackup snapshots every record for a user into one stored backup and
// returns its metadata. The backup ID is the export timestamp, so backups
// sort newest-first by ID.
func (s *Service) CreateBackup(ctx context.Context, userID string) (BackupMeta, error) {
	legacySessions, err := s.repo.ListLegacySessions(ctx, userID)
	if err != nil {
		return BackupMeta{}, err
	}
	sessions, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return BackupMeta{}, err
	}
	exercises, err := s.repo.ListExercises(ctx)
	if err != nil {
		return BackupMeta{}, err
	}
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return BackupMeta{}, err
	}

	exportedAt := time.Now().UTC()
	backup := Backup{
		Meta: BackupMeta{
			UserID:        userID,
			BackupID:      exportedAt.Format(backupIDFormat),
			SchemaVersion: backupSchemaVersion,
			CreatedAt:     exportedAt,
			Summary: BackupSummary{
				LegacySessions: len(legacySessions),
				Sessions:       len(sessions),
				Exercises:      len(exercises),
				Locations:      len(locations),
			},
		},
		Snapshot: BackupSnapshot{
			ExportedAt:     exportedAt,
			UserID:         userID,
			LegacySessions: legacySessions,
			Sessions:       sessions,
			Exercises:      exercises,
			Locations:      locations,
		},
	}

	if err := s.repo.SaveBackup(ctx, backup); err != nil {
		return BackupMeta{}, err
	}
	return backup.Meta, nil
}

// ListBackups returns backup metadata for a user, newest first.
func (s *Service) ListBackups(ctx context.Context, userID string, limit int) ([]BackupMeta, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.repo.ListBackups(ctx, userID, limit)
}

// GetBackup returns one stored snapshot with its payload.
func (s *Service) GetBackup(ctx context.Context, userID, backupID string) (*Backup, error) {
	backup, err := s.repo.GetBackup(ctx, userID, backupID)
	if err != nil {
		return nil, err
	}
	if backup == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, backupID)
	}
	return backup, nil
}

// SeedLocations upserts the fixed location enumeration.
func (s *Service) SeedLocations(ctx context.Context) error {
	now := time.Now().UTC()
	for _, location := range DefaultLocations() {
		location.CreatedAt = now
		location.UpdatedAt = now
		if err := s.repo.UpsertLocation(ctx, location); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) findByNameLower(ctx context.Context, nameLower string) (*Exercise, error) {
	all, err := s.repo.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].NameLower == nameLower {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *Service) knownLocationIDs(ctx context.Context) (map[string]struct{}, error) {
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(locations))
	for _, location := range locations {
		known[location.LocationID] = struct{}{}
	}
	return known, nil
}

func (s *Service) locationsByID(ctx context.Context) (map[string]Location, error) {
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Location, len(locations))
	for _, location := range locations {
		byID[location.LocationID] = location
	}
	return byID, nil
}

func matchesQuery(exercise Exercise, q string) bool {
	if strings.Contains(exercise.NameLower, q) {
		return true
	}
	for _, alias := range exercise.Aliases {
		if strings.Contains(strings.ToLower(alias), q) {
			return true
		}
	}
	return false
}

// rankOrder treats an unranked exercise (sortOrder zero) as last.
func rankOrder(exercise Exercise) int {
	if exercise.SortOrder <= 0 {
		return int(^uint(0) >> 1)
	}
	return exercise.SortOrder
}

func collapseName(name string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(name, " "))
}

func uniqueTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func collisionSuffix() string {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return ms[len(ms)-6:]
}

func newSessionID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "s-" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + random
}

func sessionSortKey(sessionDate, startTime string) string {
	t := strings.TrimSpace(startTime)
	if t == "" {
		t = "00:00"
	}
	return sessionDate + "T" + t
}
