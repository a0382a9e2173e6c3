package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/playkit/gameroom/internal/api/middleware"
	"github.com/playkit/gameroom/internal/api/request"
	"github.com/playkit/gameroom/internal/api/response"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/registry"
)

// RoomHandler handles room directory endpoints
type RoomHandler struct {
	registryController *registry.Controller
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(registryController *registry.Controller) *RoomHandler {
	return &RoomHandler{
		registryController: registryController,
	}
}

// Register handles POST /api/v1/rooms
func (h *RoomHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Code == "" {
		WriteError(w, NewInvalidRequestError("code is required"))
		return
	}

	profile := middleware.MustGetProfile(r.Context())

	room, err := h.registryController.RegisterRoom(r.Context(), model.RoomCode(req.Code), profile.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(room))
}

// Heartbeat handles POST /api/v1/rooms/{code}/heartbeat
func (h *RoomHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.registryController.Heartbeat(r.Context(), code, req.PeerCount); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.registryController.ListRooms(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.RoomList{Rooms: make([]response.Room, 0, len(rooms))}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, response.RoomFromModel(room))
	}

	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.registryController.GetRoom(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Close handles DELETE /api/v1/rooms/{code}
func (h *RoomHandler) Close(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	if err := h.registryController.CloseRoom(r.Context(), code); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
