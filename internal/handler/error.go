package handler

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/aidar/team-formation/internal/domain"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// HandleError преобразует доменные ошибки в HTTP ответы.
// Сообщение берется из самой ошибки: вызывающий должен видеть
// конкретную причину отказа, а не обобщенный текст.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)

	var status int
	switch code {
	case domain.CodeUnauthorized, domain.CodeInvalidCredentials:
		status = http.StatusUnauthorized
	case domain.CodeForbidden:
		status = http.StatusForbidden
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeSelfApply, domain.CodeAlreadyMember, domain.CodeAlreadyApplied,
		domain.CodeRejected, domain.CodeTeamFull, domain.CodeConflict, domain.CodeEmailExists:
		status = http.StatusConflict
	case domain.CodeValidation:
		status = http.StatusBadRequest
	default:
		RespondWithError(w, r, http.StatusInternalServerError, string(domain.CodeInternal), "internal server error")
		return
	}

	RespondWithError(w, r, status, string(code), err.Error())
}
