package book

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"bookhive/internal/apperr"
	"bookhive/internal/httpx"
)

const (
	maxDocumentBytes = 20 << 20
	maxPageSize      = 100
)

// MaxUploadBytes bounds a create or update request carrying a document.
const MaxUploadBytes = maxDocumentBytes + 1<<20

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createReq struct {
	Title    string  `json:"title" validate:"notblank,max=300"`
	Author   string  `json:"author" validate:"notblank,max=200"`
	Genre    string  `json:"genre" validate:"notblank,max=100"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Status   *string `json:"status" validate:"omitempty,book_status"`
}

type updateReq struct {
	Title    *string `json:"title" validate:"omitempty,notblank,max=300"`
	Author   *string `json:"author" validate:"omitempty,notblank,max=200"`
	Genre    *string `json:"genre" validate:"omitempty,notblank,max=100"`
	Quantity *int    `json:"quantity" validate:"omitempty,gte=0"`
	Status   *string `json:"status" validate:"omitempty,book_status"`
}

// List handles GET /books
// @Summary List books
// @Description List the catalog. Without page_size every book is returned.
// @Tags books
// @Produce json
// @Param genre query string false "Filter by genre"
// @Param author query string false "Filter by author"
// @Param q query string false "Search title, author and genre"
// @Param available query bool false "Only books that can be borrowed"
// @Param sort query string false "title, created_at or quantity"
// @Param desc query bool false "Sort descending"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Genre:         query.Get("genre"),
		Author:        query.Get("author"),
		Q:             query.Get("q"),
		AvailableOnly: query.Get("available") == "true",
		Sort:          query.Get("sort"),
		Desc:          query.Get("desc") == "true",
	}

	var page, pageSize int
	if query.Has("page_size") {
		page, _ = strconv.Atoi(query.Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ = strconv.Atoi(query.Get("page_size"))
		if pageSize <= 0 || pageSize > maxPageSize {
			pageSize = 20
		}
		params.Limit = pageSize
		params.Offset = (page - 1) * pageSize
	}

	books, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	meta := map[string]any{"total": total}
	if pageSize > 0 {
		meta["page"] = page
		meta["page_size"] = pageSize
		meta["total_pages"] = (total + pageSize - 1) / pageSize
	}
	httpx.JSONSuccess(w, r, books, meta)
}

// Get handles GET /books/{id}
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Create handles POST /books
// @Summary Add a book
// @Description Adds a book, or merges it into the record with the same title, author and genre (case-insensitive).
// @Description Accepts JSON or multipart/form-data with an optional "document" file.
// @Tags books
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} httpx.SuccessResponse "created"
// @Success 200 {object} httpx.SuccessResponse "merged into an existing record"
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	var doc *Document
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart body", nil)
			return
		}
		req = createReq{
			Title:  r.FormValue("title"),
			Author: r.FormValue("author"),
			Genre:  r.FormValue("genre"),
			Status: formString(r, "status"),
		}
		if q := formInt(r, "quantity"); q != nil {
			req.Quantity = *q
		} else if r.FormValue("quantity") != "" {
			httpx.WriteError(w, r, apperr.Validation(apperr.FieldError{Field: "quantity", Message: "quantity must be a number"}))
			return
		}
		var err error
		if doc, err = formDocument(r); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid document upload", nil)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, string(apperr.CodeValidation), "Validation failed", details)
		return
	}

	b, created, err := h.service.AddOrMerge(r.Context(), AddInput{
		Title:    req.Title,
		Author:   req.Author,
		Genre:    req.Genre,
		Quantity: req.Quantity,
		Status:   toStatus(req.Status),
		Document: doc,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if created {
		httpx.JSONCreated(w, r, b)
		return
	}
	httpx.JSONSuccess(w, r, b, map[string]any{"merged": true})
}

// Update handles PUT /books/{id}
// @Summary Update a book
// @Description Partial update. When the edit makes the book a duplicate of another record the two are merged and the surviving record is returned.
// @Tags books
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateReq
	var doc *Document
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart body", nil)
			return
		}
		req = updateReq{
			Title:    formString(r, "title"),
			Author:   formString(r, "author"),
			Genre:    formString(r, "genre"),
			Quantity: formInt(r, "quantity"),
			Status:   formString(r, "status"),
		}
		if req.Quantity == nil && r.FormValue("quantity") != "" {
			httpx.WriteError(w, r, apperr.Validation(apperr.FieldError{Field: "quantity", Message: "quantity must be a number"}))
			return
		}
		var err error
		if doc, err = formDocument(r); err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid document upload", nil)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, string(apperr.CodeValidation), "Validation failed", details)
		return
	}

	b, merged, err := h.service.Update(r.Context(), r.PathValue("id"), Patch{
		Title:    req.Title,
		Author:   req.Author,
		Genre:    req.Genre,
		Quantity: req.Quantity,
		Status:   toStatus(req.Status),
		Document: doc,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var meta map[string]any
	if merged {
		meta = map[string]any{"merged": true}
	}
	httpx.JSONSuccess(w, r, b, meta)
}

// Delete handles DELETE /books/{id}
// @Summary Delete a book
// @Tags books
// @Param id path string true "Book ID"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse "book has open loans"
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

// Document handles GET /books/{id}/document
// @Summary Download the book's document
// @Tags books
// @Produce octet-stream
// @Param id path string true "Book ID"
// @Success 200 {file} binary
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id}/document [get]
func (h *HTTPHandler) Document(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Document(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func formString(r *http.Request, key string) *string {
	if _, ok := r.MultipartForm.Value[key]; !ok {
		return nil
	}
	v := r.FormValue(key)
	return &v
}

func formInt(r *http.Request, key string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return nil
	}
	return &v
}

// formDocument reads the optional "document" file part.
func formDocument(r *http.Request) (*Document, error) {
	f, hdr, err := r.FormFile("document")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Document{Name: hdr.Filename, ContentType: contentType, Data: data}, nil
}

func toStatus(s *string) *Status {
	if s == nil {
		return nil
	}
	st := Status(strings.TrimSpace(*s))
	return &st
}
