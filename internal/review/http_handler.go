package review

import (
	"encoding/json"
	"net/http"

	"bookhive/internal/apperr"
	"bookhive/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type upsertReq struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// List handles GET /books/{id}/reviews
// @Summary List reviews of a book
// @Tags reviews
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/reviews [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, reviews, map[string]any{"total": len(reviews)})
}

// Upsert handles POST /books/{id}/reviews
// @Summary Rate and review a book
// @Description Creates the caller's review or replaces the earlier one.
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/reviews [post]
func (h *HTTPHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, string(apperr.CodeValidation), "Validation failed", details)
		return
	}

	rv, sum, err := h.service.Upsert(r.Context(), r.PathValue("id"), httpx.UserIDFrom(r), Input{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, map[string]any{"review": rv, "book_rating": sum})
}

// DeleteMine handles DELETE /books/{id}/reviews/mine
// @Summary Delete my review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/reviews/mine [delete]
func (h *HTTPHandler) DeleteMine(w http.ResponseWriter, r *http.Request) {
	deleted, sum, err := h.service.DeleteMine(r.Context(), r.PathValue("id"), httpx.UserIDFrom(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"deleted": deleted, "book_rating": sum}, nil)
}

// Rating handles GET /books/{id}/rating
// @Summary Average rating of a book
// @Tags reviews
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/rating [get]
func (h *HTTPHandler) Rating(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, sum, nil)
}
