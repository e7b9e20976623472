// Package api exposes HTTP handlers for the gymlog service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/gymlog/internal/auth"
	"example.com/gymlog/internal/domain"
	"example.com/gymlog/internal/importer"
)

// Handler handles HTTP interactions.
type Handler struct {
	service       *domain.Service
	importer      *importer.Importer
	defaultUserID string
}

// NewHandler constructs Handler.
func NewHandler(service *domain.Service, imp *importer.Importer, defaultUserID string) *Handler {
	return &Handler{service: service, importer: imp, defaultUserID: defaultUserID}
}

// RegisterRoutes sets up routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/exercises", h.exercises)
	mux.HandleFunc("/v1/exercises/", h.exerciseByID)
	mux.HandleFunc("/v1/sessions", h.sessions)
	mux.HandleFunc("/v1/locations", h.locations)
	mux.HandleFunc("/v1/backups", h.backups)
	mux.HandleFunc("/v1/import", h.importLog)
	mux.HandleFunc("/healthz", healthz)
}

// healthz returns an OK response for readiness probes.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) userID(r *http.Request) string {
	if claims, ok := auth.FromContext(r.Context()); ok && claims.Subject != "" {
		return claims.Subject
	}
	return h.defaultUserID
}

func (h *Handler) exercises(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.searchExercises(w, r)
	case http.MethodPost:
		h.createExercise(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) searchExercises(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeRead, auth.ScopeWrite) {
		return
	}

	query := r.URL.Query().Get("query")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	exercises, err := h.service.SearchExercises(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": exercises})
}

// CreateExerciseRequest represents the creation payload.
type CreateExerciseRequest struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

func (h *Handler) createExercise(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeWrite) {
		return
	}

	var req CreateExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}

	exercise, err := h.service.CreateExercise(r.Context(), domain.CreateExerciseInput{
		Name:    req.Name,
		Aliases: req.Aliases,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"exercise": exercise})
}

// UpdateExerciseRequest represents the update payload.
type UpdateExerciseRequest struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

func (h *Handler) exerciseByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/exercises/")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing exercise id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, auth.ScopeRead, auth.ScopeWrite) {
			return
		}
		exercise, err := h.service.GetExercise(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrExerciseNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "exercise not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, exercise)
	case http.MethodPut:
		if !requireScope(w, r, auth.ScopeWrite) {
			return
		}
		var req UpdateExerciseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		exercise, err := h.service.UpdateExercise(r.Context(), domain.UpdateExerciseInput{
			ExerciseID: id,
			Name:       req.Name,
			Aliases:    req.Aliases,
		})
		if err != nil {
			if errors.Is(err, domain.ErrExerciseNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "exercise not found")
				return
			}
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exercise": exercise})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// UpsertSessionRequest represents the session payload.
type UpsertSessionRequest struct {
	SessionID   string   `json:"sessionId"`
	SessionDate string   `json:"sessionDate"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	LocationID  string   `json:"locationId"`
	ExerciseIDs []string `json:"exerciseIds"`
	NotesRaw    string   `json:"notesRaw"`
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, auth.ScopeRead, auth.ScopeWrite) {
			return
		}
		h.getSessions(w, r)
	case http.MethodPost, http.MethodPut:
		if !requireScope(w, r, auth.ScopeWrite) {
			return
		}
		h.upsertSession(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getSessions(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)

	if sessionDate := strings.TrimSpace(r.URL.Query().Get("sessionDate")); sessionDate != "" {
		session, err := h.service.GetSessionByDate(r.Context(), userID, sessionDate)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": session})
		return
	}

	sessions, err := h.service.ListSessionViews(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) upsertSession(w http.ResponseWriter, r *http.Request) {
	var req UpsertSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	items := make([]domain.SessionExerciseItem, 0, len(req.ExerciseIDs))
	for _, id := range req.ExerciseIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			items = append(items, domain.SessionExerciseItem{ExerciseID: trimmed})
		}
	}

	session, err := h.service.UpsertSession(r.Context(), domain.UpsertSessionInput{
		UserID:        h.userID(r),
		SessionID:     req.SessionID,
		SessionDate:   req.SessionDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		LocationID:    req.LocationID,
		ExerciseItems: items,
		NotesRaw:      req.NotesRaw,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

func (h *Handler) locations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeRead, auth.ScopeWrite) {
		return
	}

	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": locations})
}

func (h *Handler) backups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, auth.ScopeRead, auth.ScopeWrite) {
			return
		}
		h.getBackups(w, r)
	case http.MethodPost:
		if !requireScope(w, r, auth.ScopeWrite) {
			return
		}
		meta, err := h.service.CreateBackup(r.Context(), h.userID(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"backup": meta})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getBackups(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)

	if backupID := strings.TrimSpace(r.URL.Query().Get("backupId")); backupID != "" {
		backup, err := h.service.GetBackup(r.Context(), userID, backupID)
		if err != nil {
			if errors.Is(err, domain.ErrBackupNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "backup not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, backup)
		return
	}

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	backups, err := h.service.ListBackups(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}

// ImportRequest represents a raw-text import payload.
type ImportRequest struct {
	Text    string `json:"text"`
	MinDate string `json:"minDate"`
}

func (h *Handler) importLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeWrite) {
		return
	}

	var req ImportRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
			return
		}
		req.Text = string(body)
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "log text is required")
		return
	}

	imported, err := h.importer.ImportNormalized(r.Context(), h.userID(r), req.Text, req.MinDate, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": imported})
}

func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "insufficient scope")
	return false
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{"type": code, "detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
