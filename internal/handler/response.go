package handler

import (
	"net/http"

	"github.com/go-chi/render"
)

// RespondWithJSON сериализует data в JSON и выставляет статус код ответа
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	render.Status(r, statusCode)
	render.JSON(w, r, data)
}
