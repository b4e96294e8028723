package handler

import (
	"net/http"

	"github.com/alari/backend/internal/ctxkeys"
	"github.com/alari/backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type createUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	UserName *string `json:"user_name" validate:"omitempty,max=100"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	err := decode(w, r, &req)
	if err != nil {
		writeError(w, r, "failed to create user", err)
		return
	}

	user, err := h.userService.Create(r.Context(), req.Email, req.Password, req.UserName)
	if err != nil {
		writeError(w, r, "failed to create user", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "failed to load user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteMe removes the caller and everything they own.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	err := h.userService.Delete(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, "failed to delete user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
