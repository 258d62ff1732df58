package loan

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bookhive/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type onBehalfReq struct {
	UserID string `json:"user_id"`
}

func actorFrom(r *http.Request) Actor {
	return Actor{UserID: httpx.UserIDFrom(r), Admin: httpx.IsAdmin(r)}
}

// decodeOnBehalf reads the optional body. An empty body is fine.
func decodeOnBehalf(r *http.Request) (onBehalfReq, error) {
	var req onBehalfReq
	if r.Body == nil {
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, nil
	}
	return req, err
}

// Borrow handles PATCH /books/{id}/borrow
// @Summary Borrow a book
// @Description Opens a loan for the caller. Admins may pass user_id to borrow for another reader.
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse "unavailable or already borrowed"
// @Router /books/{id}/borrow [patch]
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	req, err := decodeOnBehalf(r)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	res, err := h.service.Borrow(r.Context(), actorFrom(r), r.PathValue("id"), req.UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, res, nil)
}

// Return handles PATCH /books/{id}/return
// @Summary Return a book
// @Tags loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse "no active loan"
// @Router /books/{id}/return [patch]
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	req, err := decodeOnBehalf(r)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	res, err := h.service.Return(r.Context(), actorFrom(r), r.PathValue("id"), req.UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, res, nil)
}

// History handles GET /books/history
// @Summary Borrowing history
// @Description The caller's loans, newest first. Admins may pass user_id.
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httpx.SuccessResponse
// @Router /books/history [get]
func (h *HTTPHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := actorFrom(r).subject(r.URL.Query().Get("user_id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	loans, err := h.service.History(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, loans, map[string]any{"total": len(loans)})
}

// Stats handles GET /books/stats/borrowed
// @Summary Borrowed counts
// @Description Open loans across the library; with book_id also the open loans of that book.
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param book_id query string false "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Router /books/stats/borrowed [get]
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	data := map[string]any{"total_borrowed": total}

	if bookID := r.URL.Query().Get("book_id"); bookID != "" {
		n, err := h.service.ActiveLoanCount(r.Context(), bookID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		data["book_id"] = bookID
		data["active_loans"] = n
	}
	httpx.JSONSuccess(w, r, data, nil)
}

// Active handles GET /books/{id}/loans/active
// @Summary Open loans of a book
// @Tags loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/loans/active [get]
func (h *HTTPHandler) Active(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ActiveLoans(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, loans, map[string]any{"total": len(loans)})
}
