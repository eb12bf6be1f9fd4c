package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/team-formation/internal/domain"
	"github.com/aidar/team-formation/internal/middleware"
	"github.com/aidar/team-formation/internal/service"
)

// TeamHandler обрабатывает эндпоинты команд
type TeamHandler struct {
	teamService *service.TeamService
}

// NewTeamHandler создает новый TeamHandler
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeamRequest представляет тело запроса на создание команды.
// MaxMembers указатель чтобы отличать пропущенное поле от явного нуля.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Description string `json:"description,omitempty"`
	MaxMembers  *int   `json:"max_members,omitempty"`
}

// TeamResponse представляет ответ с одной командой
type TeamResponse struct {
	Team *domain.Team `json:"team"`
}

// TeamsResponse представляет ответ со списком команд
type TeamsResponse struct {
	Teams []*domain.Team `json:"teams"`
}

// AppliedTeam представляет команду вместе с вычисленным статусом заявки
type AppliedTeam struct {
	Team   *domain.Team             `json:"team"`
	Status domain.ApplicationStatus `json:"status"`
}

// AppliedTeamsResponse представляет ответ на список заявок пользователя
type AppliedTeamsResponse struct {
	Teams []AppliedTeam `json:"teams"`
}

// CreateTeam обрабатывает POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	// Валидация запроса
	if req.Name == "" || req.Domain == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "name and domain are required")
		return
	}

	creatorID := middleware.GetUserIDFromContext(r.Context())
	team, err := h.teamService.Create(r.Context(), creatorID, service.CreateTeamInput{
		Name:        req.Name,
		Domain:      req.Domain,
		Description: req.Description,
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, TeamResponse{Team: team})
}

// ListCreated обрабатывает GET /teams/created
func (h *TeamHandler) ListCreated(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	teams, err := h.teamService.ListCreated(r.Context(), userID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamsResponse{Teams: teams})
}

// ListAvailable обрабатывает GET /teams/available?domain=...
// Явный параметр domain приоритетнее направления из токена.
func (h *TeamHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	explicitDomain := r.URL.Query().Get("domain")
	claimDomain := middleware.GetDomainFromContext(r.Context())
	userID := middleware.GetUserIDFromContext(r.Context())

	teams, err := h.teamService.ListAvailable(r.Context(), explicitDomain, claimDomain, userID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamsResponse{Teams: teams})
}

// ListApplied обрабатывает GET /teams/applied
func (h *TeamHandler) ListApplied(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	teams, err := h.teamService.ListApplied(r.Context(), userID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	// Статус вычисляется из текущих коллекций команды, отдельно не хранится
	applied := make([]AppliedTeam, 0, len(teams))
	for _, team := range teams {
		applied = append(applied, AppliedTeam{
			Team:   team,
			Status: team.StatusFor(userID),
		})
	}

	RespondWithJSON(w, r, http.StatusOK, AppliedTeamsResponse{Teams: applied})
}

// GetTeam обрабатывает GET /teams/{teamID}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	team, err := h.teamService.Get(r.Context(), teamID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}

// ApplyRequest представляет тело заявки на вступление
type ApplyRequest struct {
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Resume   string `json:"resume"`
}

// Apply обрабатывает POST /teams/{teamID}/apply
func (h *TeamHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	teamID := chi.URLParam(r, "teamID")
	userID := middleware.GetUserIDFromContext(r.Context())

	team, err := h.teamService.Apply(r.Context(), teamID, userID, service.ApplyInput{
		LinkedIn: req.LinkedIn,
		GitHub:   req.GitHub,
		Resume:   req.Resume,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}

// Accept обрабатывает POST /teams/{teamID}/applicants/{applicantID}/accept
func (h *TeamHandler) Accept(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	applicantID := chi.URLParam(r, "applicantID")
	callerID := middleware.GetUserIDFromContext(r.Context())

	team, err := h.teamService.Accept(r.Context(), teamID, callerID, applicantID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}

// Reject обрабатывает POST /teams/{teamID}/applicants/{applicantID}/reject
func (h *TeamHandler) Reject(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	applicantID := chi.URLParam(r, "applicantID")
	callerID := middleware.GetUserIDFromContext(r.Context())

	team, err := h.teamService.Reject(r.Context(), teamID, callerID, applicantID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}

// Withdraw обрабатывает POST /teams/{teamID}/applicants/{applicantID}/withdraw
func (h *TeamHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	applicantID := chi.URLParam(r, "applicantID")
	callerID := middleware.GetUserIDFromContext(r.Context())

	team, err := h.teamService.Withdraw(r.Context(), teamID, callerID, applicantID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, TeamResponse{Team: team})
}
