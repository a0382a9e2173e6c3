package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/playkit/gameroom/internal/api/middleware"
	"github.com/playkit/gameroom/internal/api/request"
	"github.com/playkit/gameroom/internal/api/response"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/registry"
)

const defaultHistoryLimit = 20

// HistoryHandler handles match history endpoints
type HistoryHandler struct {
	registryController *registry.Controller
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(registryController *registry.Controller) *HistoryHandler {
	return &HistoryHandler{
		registryController: registryController,
	}
}

// Record handles POST /api/v1/matches
func (h *HistoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req request.RecordMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	kind := model.GameKind(req.Kind)
	if !kind.Valid() {
		WriteError(w, model.ErrUnknownGameKind)
		return
	}

	rec := model.MatchRecord{
		Kind:      kind,
		Winner:    model.UserID(req.Winner),
		MoveCount: req.MoveCount,
		Duration:  time.Duration(req.DurationMS) * time.Millisecond,
	}
	for i, p := range req.Players {
		rec.Players[i] = model.PlayerRef{
			SessionID:   model.SessionID(p.SessionID),
			UserID:      model.UserID(p.UserID),
			DisplayName: p.DisplayName,
		}
	}

	stored, err := h.registryController.RecordMatch(r.Context(), rec)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MatchFromModel(stored))
}

// Get handles GET /api/v1/matches/{id}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.registryController.GetMatch(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(rec))
}

// ListMine handles GET /api/v1/matches
// Returns the authenticated user's match history, newest first.
func (h *HistoryHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	profile := middleware.MustGetProfile(r.Context())

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	recs, err := h.registryController.ListMatchesForUser(r.Context(), profile.ID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.MatchList{Matches: make([]response.Match, 0, len(recs))}
	for _, rec := range recs {
		resp.Matches = append(resp.Matches, response.MatchFromModel(rec))
	}

	response.JSON(w, http.StatusOK, resp)
}
