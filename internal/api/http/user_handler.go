package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/service"
)

type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type roleRequest struct {
	Role domain.UserRole `json:"role"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		respondError(w, r, err)
		return
	}
	filter := domain.UserFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Role:   domain.UserRole(r.URL.Query().Get("role")),
		Active: active,
		Page:   pageFrom(r),
	}
	users, page, err := h.users.ListUsers(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"users": users, "pagination": page})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"user": user})
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"stats": stats})
}

func (h *UserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.users.ToggleActive(r.Context(), actorFrom(r).ID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	msg := "User deactivated successfully"
	if user.IsActive {
		msg = "User activated successfully"
	}
	respondMessage(w, msg, map[string]any{"user": user})
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	user, err := h.users.ChangeRole(r.Context(), actorFrom(r).ID, id, req.Role)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "User role updated successfully", map[string]any{"user": user})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), actorFrom(r).ID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, "User deleted successfully", nil)
}

// RegisterUserRoutes registers account administration routes; fixed paths precede {id}.
func RegisterUserRoutes(router *mux.Router, h *UserHandler) {
	router.HandleFunc("/users", h.List).Methods(http.MethodGet)
	router.HandleFunc("/users/stats", h.Stats).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}", h.Get).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}", h.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/users/{id}/toggle-active", h.ToggleActive).Methods(http.MethodPut)
	router.HandleFunc("/users/{id}/role", h.ChangeRole).Methods(http.MethodPut)
}
