package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/storage"
	"ramo-hub-backend/pkg/utils"
)

const testSecret = "router-test-secret"

type testServer struct {
	app       *App
	handler   http.Handler
	blobs     *storage.MemoryStore
	jwt       *utils.JWTService
	projectID int64
	taskID    int64
	classID   int64
	financeID int64
}

// envelope mirrors utils.APIResponse with a raw payload
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
	Meta    *utils.Meta     `json:"meta"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewSQLDatabase(database.DriverSQLite, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	seed := func(table database.Table, values database.Values) int64 {
		row, err := db.Insert(ctx, table, values)
		require.NoError(t, err)
		id, _ := row.Int64("id")
		return id
	}
	seed(database.TableChapters, database.Values{"id": 1, "name": "Ramo", "acronym": "RAMO"})
	seed(database.TableChapters, database.Values{"id": 2, "name": "Computer Society", "acronym": "CS"})
	seed(database.TableProfiles, database.Values{"id": "p-admin", "full_name": "Ana Admin"})
	seed(database.TableProfiles, database.Values{"id": "p-owner", "full_name": "Otto Dono"})
	seed(database.TableProfiles, database.Values{"id": "p-member", "full_name": "Maria Membro"})
	seed(database.TableProfileChapters, database.Values{"profile_id": "p-admin", "chapter_id": 1, "permission_slug": "admin"})
	seed(database.TableProfileChapters, database.Values{"profile_id": "p-owner", "chapter_id": 2, "permission_slug": "member"})
	seed(database.TableProfileChapters, database.Values{"profile_id": "p-member", "chapter_id": 2, "permission_slug": "member"})

	projectID := seed(database.TableProjects, database.Values{
		"name":       "Robô",
		"start_date": models.NewNullTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		"end_date":   models.NewNullTime(time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)),
		"links":      []models.Link{
			{Label: "a", URL: "https://a.example"},
			{Label: "b", URL: "https://b.example"},
			{Label: "c", URL: "https://c.example"},
		},
	})
	seed(database.TableProjectChapters, database.Values{"project_id": projectID, "chapter_id": 2})
	seed(database.TableProjectMembers, database.Values{"project_id": projectID, "profile_id": "p-owner", "is_owner": true})
	seed(database.TableProjectMembers, database.Values{"project_id": projectID, "profile_id": "p-member", "is_owner": false})
	taskID := seed(database.TableTasks, database.Values{
		"title": "Soldar", "project_id": projectID,
		"deadline": models.NewNullTime(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
	})
	seed(database.TableEvents, database.Values{
		"title": "Workshop de Arduino", "chapter_id": 2,
		"start_at": models.NewNullTime(time.Date(2024, 6, 10, 22, 30, 0, 0, time.UTC)),
	})
	classID := seed(database.TableClassifieds, database.Values{
		"title": "Ajuda com PCB", "responsible_id": "p-member",
		"created_at": time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC),
	})
	financeID := seed(database.TableFinances, database.Values{
		"type": "exit", "amount": 120.5, "description": "Componentes", "chapter_id": 2, "created_by": "p-admin",
		"date": models.NewNullTime(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)),
	})

	cfg := &config.Config{
		Environment:    "test",
		Port:           "0",
		JWTSecret:      testSecret,
		RefreshPolicy:  config.RefreshGeneration,
		RefreshTimeout: 5 * time.Second,
		AllowedOrigins: []string{"*"},
	}
	blobs := storage.NewMemoryStore("https://files.test")
	app := Assemble(cfg, logger.Nop{}, db, blobs)
	_, err = app.Hub.Refresh(ctx, false)
	require.NoError(t, err)

	return &testServer{
		app:       app,
		handler:   NewRouter(app),
		blobs:     blobs,
		jwt:       utils.NewJWTService(testSecret),
		projectID: projectID,
		taskID:    taskID,
		classID:   classID,
		financeID: financeID,
	}
}

func (s *testServer) token(t *testing.T, profileID string) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(models.User{ID: profileID, Email: profileID + "@ramo.test"}, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends body as JSON when it is not already a reader
func (s *testServer) do(t *testing.T, method, path, profileID string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if profileID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, profileID))
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) path(format string, id int64) string {
	return strings.Replace(format, "{id}", strconv.FormatInt(id, 10), 1)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "healthy", data["db_status"])
	assert.Equal(t, float64(1), data["generation"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ramohub_refreshes_total")
	assert.Contains(t, rec.Body.String(), "ramohub_snapshot_generation 1")
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/snapshot", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, utils.CodeUnauthorized, env.Error.Code)

	expired, err := s.jwt.GenerateAccessToken(models.User{ID: "p-admin"}, -time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec, _ = s.serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := utils.NewJWTService("other-secret").GenerateAccessToken(models.User{ID: "p-admin"}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec, _ = s.serve(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetSnapshot(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/snapshot", "p-member", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Snapshot-Generation"))
	require.NotNil(t, env.Meta)
	assert.Equal(t, uint64(1), env.Meta.Generation)

	var snap struct {
		FetchErrors map[string]string `json:"fetchErrors"`
		Projects    []struct {
			Name             string  `json:"name"`
			ResponsibleNames string  `json:"responsibleNames"`
			StartDate        *string `json:"startDate"`
			EndDate          *string `json:"endDate"`
		} `json:"projects"`
		Tasks []struct {
			Title    string  `json:"title"`
			Deadline *string `json:"deadline"`
		} `json:"tasks"`
		Events []struct {
			Title   string  `json:"title"`
			StartAt *string `json:"startAt"`
		} `json:"events"`
		Classifieds []struct {
			CreatedAt *string `json:"createdAt"`
		} `json:"classifieds"`
		Chapters []json.RawMessage `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Empty(t, snap.FetchErrors)
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "Robô", snap.Projects[0].Name)
	assert.Equal(t, "Otto Dono", snap.Projects[0].ResponsibleNames)
	require.NotNil(t, snap.Projects[0].StartDate)
	assert.Equal(t, "2024-02-01T00:00:00Z", *snap.Projects[0].StartDate)
	require.NotNil(t, snap.Projects[0].EndDate)
	assert.Equal(t, "2024-12-20T00:00:00Z", *snap.Projects[0].EndDate)
	require.Len(t, snap.Tasks, 1)
	require.NotNil(t, snap.Tasks[0].Deadline)
	assert.Equal(t, "2024-05-01T00:00:00Z", *snap.Tasks[0].Deadline)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Workshop de Arduino", snap.Events[0].Title)
	require.NotNil(t, snap.Events[0].StartAt)
	assert.Equal(t, "2024-06-10T22:30:00Z", *snap.Events[0].StartAt)
	require.Len(t, snap.Classifieds, 1)
	require.NotNil(t, snap.Classifieds[0].CreatedAt)
	assert.Equal(t, "2024-03-09T14:30:00Z", *snap.Classifieds[0].CreatedAt)
	assert.Len(t, snap.Chapters, 2)
}

func TestSnapshotStatusAndRefresh(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/snapshot/status", "p-member", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, false, status["loading"])
	assert.Equal(t, float64(1), status["generation"])

	rec, env = s.do(t, http.MethodPost, "/api/snapshot/refresh?quiet=true", "p-member", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(2), env.Meta.Generation)

	rec, _ = s.do(t, http.MethodPost, "/api/snapshot/refresh?quiet=maybe", "p-member", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/me", "p-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Profile struct {
			FullName string `json:"fullName"`
		} `json:"profile"`
		IsGlobalAdmin    bool `json:"isGlobalAdmin"`
		CanCreateProject bool `json:"canCreateProject"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "Ana Admin", me.Profile.FullName)
	assert.True(t, me.IsGlobalAdmin)
	assert.True(t, me.CanCreateProject)

	rec, _ = s.do(t, http.MethodGet, "/api/me", "p-ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPermissionEndpoints(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		path    string
		profile string
		status  int
		canEdit bool
	}{
		{"owner edits project", s.path("/api/permissions/projects/{id}", s.projectID), "p-owner", http.StatusOK, true},
		{"team member does not", s.path("/api/permissions/projects/{id}", s.projectID), "p-member", http.StatusOK, false},
		{"global admin is elevated", s.path("/api/permissions/projects/{id}", s.projectID), "p-admin", http.StatusOK, true},
		{"team member not assigned to task", s.path("/api/permissions/tasks/{id}", s.taskID), "p-member", http.StatusOK, false},
		{"owner edits task", s.path("/api/permissions/tasks/{id}", s.taskID), "p-owner", http.StatusOK, true},
		{"unknown project", "/api/permissions/projects/999", "p-owner", http.StatusNotFound, false},
		{"malformed id", "/api/permissions/projects/abc", "p-owner", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, tt.profile, nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			var perms struct {
				CanEdit bool `json:"canEdit"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &perms))
			assert.Equal(t, tt.canEdit, perms.CanEdit)
		})
	}
}

func TestUpdateProject_DeniedIsForbidden(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPatch, s.path("/api/projects/{id}", s.projectID), "p-member", map[string]string{"name": "Novo"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, utils.CodePermissionDenied, env.Error.Code)
	assert.NotEmpty(t, env.Error.Message)
	assert.Equal(t, uint64(1), s.app.Hub.Current().Generation, "no refresh after a denial")
}

func TestUpdateProject_WritesThenRefreshes(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPatch, s.path("/api/projects/{id}", s.projectID), "p-owner", map[string]interface{}{"name": "Robô 2", "progress": 30})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snap := s.app.Hub.Current()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, "Robô 2", snap.Project(s.projectID).Name)
	assert.Equal(t, 30, snap.Project(s.projectID).Progress)
}

func TestCreateProject_ValidationDetails(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/projects", "p-admin", map[string]interface{}{"name": " ", "progress": 150})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)

	details, ok := env.Error.Details.([]interface{})
	require.True(t, ok, "details is the field list")
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.(map[string]interface{})["field"].(string))
	}
	assert.ElementsMatch(t, []string{"name", "progress"}, fields)
}

func TestCreateProject_RequestShape(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.token(t, "p-admin"))
	rec, _ := s.serve(t, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/projects", "p-admin", map[string]interface{}{"name": "X", "unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.CodeBadRequest, env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/api/projects", "p-admin", map[string]interface{}{"name": "Satélite"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotNil(t, s.app.Hub.Current().Project(created.ID))
}

func TestRemoveProjectLink(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodDelete, s.path("/api/projects/{id}/links/1", s.projectID), "p-owner", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	links := s.app.Hub.Current().Project(s.projectID).Links
	require.Len(t, links, 2)
	assert.Equal(t, "a", links[0].Label)
	assert.Equal(t, "c", links[1].Label)

	rec, env := s.do(t, http.MethodDelete, s.path("/api/projects/{id}/links/7", s.projectID), "p-owner", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)
}

func TestTaskRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPut, s.path("/api/tasks/{id}/assignees", s.taskID), "p-owner", map[string][]string{"profileIds": {"p-member"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task := s.app.Hub.Current().Task(s.taskID)
	require.Len(t, task.Assignees, 1)
	assert.Equal(t, "p-member", task.Assignees[0].ID)

	rec, _ = s.do(t, http.MethodDelete, s.path("/api/tasks/{id}", s.taskID), "p-owner", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, s.app.Hub.Current().Task(s.taskID))

	rec, env := s.do(t, http.MethodDelete, s.path("/api/tasks/{id}", s.taskID), "p-owner", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, utils.CodeNotFound, env.Error.Code)
}

func TestClassifiedOffer(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, s.path("/api/classifieds/{id}/offers", s.classID), "p-owner", map[string]string{"message": "Posso ajudar"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, s.app.Hub.Current().Classified(s.classID).Offers, "Posso ajudar")
}

func TestFinances(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/finances?chapter_id=2", "p-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Count   int                `json:"count"`
		Balance map[string]float64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, map[string]float64{"BRL": -120.5}, list.Balance)

	rec, _ = s.do(t, http.MethodGet, "/api/finances?chapter_id=two", "p-admin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadInvoice(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "nota.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, s.path("/api/finances/{id}/invoice", s.financeID), &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, "p-admin"))
	rec, env := s.serve(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		InvoiceURL string `json:"invoiceUrl"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	key := strings.TrimPrefix(out.InvoiceURL, "https://files.test/")
	data, _, ok := s.blobs.Object(key)
	require.True(t, ok, out.InvoiceURL)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, utils.CodeNotFound, env.Error.Code)
}
