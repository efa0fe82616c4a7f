package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/geotask/internal/logging"
	"github.com/nhle/geotask/internal/model"
	"github.com/nhle/geotask/internal/server"
	"github.com/nhle/geotask/internal/testutil"
)

type harness struct {
	t       *testing.T
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := server.New(testutil.NewTestStore(t), logging.Discard())
	return &harness{t: t, handler: srv.Router()}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) register(email string) server.AuthResponse {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/register", "", map[string]string{
		"email": email, "password": "correct-horse",
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp server.AuthResponse
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	auth := h.register("Ada@Example.com")
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "ada@example.com", auth.User.Email)

	rec := h.do(http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/register", "", map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/register", "", map[string]string{
		"email": "bob@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"unknown", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, "/api/v1/lists", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestMeAndLogout(t *testing.T) {
	h := newHarness(t)
	auth := h.register("ada@example.com")

	rec := h.do(http.MethodGet, "/api/v1/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.User.ID, decode[model.User](t, rec).ID)

	rec = h.do(http.MethodPost, "/api/v1/logout", auth.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/me", auth.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTaskSubtaskRoundTrip(t *testing.T) {
	h := newHarness(t)
	tok := h.register("ada@example.com").Token

	rec := h.do(http.MethodPost, "/api/v1/lists", tok, model.NewList{Name: "Groceries"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	list := decode[model.List](t, rec)
	assert.Equal(t, "Groceries", list.Name)

	rec = h.do(http.MethodPost, "/api/v1/tasks", tok, model.NewTask{ListID: list.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[model.Task](t, rec)
	assert.Empty(t, task.Name)

	name := "Milk"
	rec = h.do(http.MethodPatch, "/api/v1/tasks/"+task.ID, tok, model.TaskPatch{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Milk", decode[model.Task](t, rec).Name)

	rec = h.do(http.MethodPost, "/api/v1/subtasks", tok, model.NewSubtask{TaskID: task.ID, Name: "Oat"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/tasks/"+task.ID+"/subtasks", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Subtask](t, rec), 1)

	loc := model.GeoRegion{Latitude: 55.67, Longitude: 12.56}
	rec = h.do(http.MethodPatch, "/api/v1/lists/"+list.ID, tok, model.ListPatch{Location: &loc})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.List](t, rec)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 55.67, got.Location.Latitude, 1e-9)

	rec = h.do(http.MethodDelete, "/api/v1/lists/"+list.ID, tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/tasks/"+task.ID, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationStatus(t *testing.T) {
	h := newHarness(t)
	tok := h.register("ada@example.com").Token

	rec := h.do(http.MethodPost, "/api/v1/lists", tok, model.NewList{Name: "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/lists/missing", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOtherUsersRowsAreForbidden(t *testing.T) {
	h := newHarness(t)
	ada := h.register("ada@example.com").Token
	bob := h.register("bob@example.com").Token

	rec := h.do(http.MethodPost, "/api/v1/lists", ada, model.NewList{Name: "Private"})
	require.Equal(t, http.StatusCreated, rec.Code)
	list := decode[model.List](t, rec)

	rec = h.do(http.MethodGet, "/api/v1/lists/"+list.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodDelete, "/api/v1/lists/"+list.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/lists", bob, model.NewList{Name: "Sneaky", OwnerID: "someone-else"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/lists", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.List](t, rec))
}
