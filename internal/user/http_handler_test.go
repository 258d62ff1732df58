package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookhive/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandler_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	h := NewHTTPHandler(NewService(mockRepo, nil))

	tests := []struct {
		name   string
		body   string
		setup  func()
		status int
	}{
		{
			name: "created",
			body: `{"name":"Ana","email":"ana@example.com","password":"Secret#123"}`,
			setup: func() {
				mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			status: http.StatusCreated,
		},
		{name: "weak password", body: `{"name":"Ana","email":"ana@example.com","password":"secret"}`, status: http.StatusBadRequest},
		{name: "bad email", body: `{"name":"Ana","email":"ana","password":"Secret#123"}`, status: http.StatusBadRequest},
		{name: "malformed", body: `{`, status: http.StatusBadRequest},
		{
			name: "taken",
			body: `{"name":"Ana","email":"ana@example.com","password":"Secret#123"}`,
			setup: func() {
				mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrAlreadyExists)
			},
			status: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			w := httptest.NewRecorder()
			h.Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHTTPHandler_Me(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	h := NewHTTPHandler(NewService(mockRepo, nil))

	mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(User{ID: "u1", Email: "ana@example.com", PasswordHash: "secret-hash", Role: RoleUser}, nil)
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r = r.WithContext(httpx.ContextWithUser(r.Context(), "u1", httpx.RoleUser))
	w := httptest.NewRecorder()
	h.Me(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")
	var env struct {
		Data User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "ana@example.com", env.Data.Email)

	mockRepo.EXPECT().GetByID(gomock.Any(), "gone").Return(User{}, ErrNotFound)
	r = httptest.NewRequest(http.MethodGet, "/me", nil)
	r = r.WithContext(httpx.ContextWithUser(r.Context(), "gone", httpx.RoleUser))
	w = httptest.NewRecorder()
	h.Me(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
