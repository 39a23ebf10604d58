package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/utils"
)

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthenticate(t *testing.T) {
	svc := utils.NewJWTService("secret")
	valid, err := svc.GenerateAccessToken(models.User{ID: "p-1", Email: "ana@ramo.test"}, time.Hour)
	require.NoError(t, err)

	var seen *models.User
	handler := Authenticate(svc, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "p-1", seen.ID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := RequireUser(req.Context())
	assert.Error(t, err)

	user, err := RequireUser(WithUser(req.Context(), &models.User{ID: "p-1"}))
	require.NoError(t, err)
	assert.Equal(t, "p-1", user.ID)
}

func TestRequireContentType(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(okHandler))

	tests := []struct {
		method      string
		contentType string
		status      int
	}{
		{http.MethodGet, "", http.StatusOK},
		{http.MethodDelete, "", http.StatusOK},
		{http.MethodPost, "", http.StatusBadRequest},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{http.MethodPatch, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPut, "application/jsonx", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.contentType, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestNormalize(t *testing.T) {
	var gotPath, gotHost, gotScheme string
	handler := Normalize()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotHost, gotScheme = r.URL.Path, r.Host, r.URL.Scheme
	}))

	req := httptest.NewRequest(http.MethodGet, "/api//projects/1/", nil)
	req.Header.Set("X-Forwarded-Host", "hub.ramo.test")
	req.Header.Set("X-Forwarded-Proto", "https")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "/api/projects/1/", gotPath)
	assert.Equal(t, "hub.ramo.test", gotHost)
	assert.Equal(t, "https", gotScheme)
}

func TestRecovery(t *testing.T) {
	handler := Recovery(&config.Config{Environment: "production"}, logger.Nop{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), utils.CodeInternal)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	handler := MaxBodySize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, readErr = r.Body.Read(buf)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, readErr, &tooLarge)
}
