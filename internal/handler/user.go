package handler

import (
	"net/http"

	"github.com/aidar/team-formation/internal/domain"
	"github.com/aidar/team-formation/internal/middleware"
	"github.com/aidar/team-formation/internal/service"
)

// UserHandler обрабатывает эндпоинты пользователей
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler создает новый UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// UserResponse представляет ответ с профилем пользователя
type UserResponse struct {
	User *domain.User `json:"user"`
}

// Me обрабатывает GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, UserResponse{User: user})
}
