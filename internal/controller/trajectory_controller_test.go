package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/pkg/serverutils"
	"ideawalker-core/internal/repository/implementation"
	"ideawalker-core/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrajectoryApp(t *testing.T) *fiber.App {
	t.Helper()
	store := implementation.NewEventStore(t.TempDir(), logger.NewNopLogger())
	repo := implementation.NewTrajectoryRepository(store, logger.NewNopLogger())
	svc := service.NewWritingService(repo, nil, logger.NewNopLogger())

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewTrajectoryController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestTrajectoryEndpoints(t *testing.T) {
	app := newTrajectoryApp(t)

	code, env := call(t, app, http.MethodPost, "/api/trajectories",
		`{"id":"tese","purpose":"Argumentar","audience":"Banca","coreClaim":"Diversidade sustenta resiliência"}`)
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = call(t, app, http.MethodPost, "/api/trajectories/tese/segments", `{"title":"Intro","content":"A diversidade importa."}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var seg struct {
		SegmentId string `json:"segmentId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &seg))
	assert.Equal(t, "tese-seg-1", seg.SegmentId)

	code, env = call(t, app, http.MethodPost, "/api/trajectories/tese/segments/tese-seg-1/revisions",
		`{"content":"A diversidade funcional importa.","operation":"expand","rationale":"precisar o termo"}`)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = call(t, app, http.MethodPost, "/api/trajectories/tese/stage", `{"stage":"Outline"}`)
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, app, http.MethodGet, "/api/trajectories/tese", "")
	require.Equal(t, http.StatusOK, code)
	var state struct {
		Stage   string `json:"stage"`
		Version int    `json:"version"`
		History []struct {
			Rationale string `json:"rationale"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, "Outline", state.Stage)
	assert.Equal(t, 4, state.Version)
	require.Len(t, state.History, 1)
	assert.Equal(t, "precisar o termo", state.History[0].Rationale)
}

func TestTrajectoryEndpointErrors(t *testing.T) {
	app := newTrajectoryApp(t)
	code, _ := call(t, app, http.MethodPost, "/api/trajectories", `{"id":"tese","purpose":"p","audience":"a"}`)
	require.Equal(t, http.StatusCreated, code)
	code, _ = call(t, app, http.MethodPost, "/api/trajectories/tese/segments", `{"title":"Intro","content":"x"}`)
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing audience", http.MethodPost, "/api/trajectories", `{"purpose":"p"}`, http.StatusBadRequest},
		{"duplicate id", http.MethodPost, "/api/trajectories", `{"id":"tese","purpose":"p","audience":"a"}`, http.StatusConflict},
		{"unknown trajectory", http.MethodGet, "/api/trajectories/nada", "", http.StatusNotFound},
		{"blank rationale", http.MethodPost, "/api/trajectories/tese/segments/tese-seg-1/revisions", `{"content":"y","operation":"clarify","rationale":"   "}`, http.StatusBadRequest},
		{"unknown segment", http.MethodPost, "/api/trajectories/tese/segments/zz/revisions", `{"content":"y","operation":"clarify","rationale":"r"}`, http.StatusNotFound},
		{"skipped stage", http.MethodPost, "/api/trajectories/tese/stage", `{"stage":"Final"}`, http.StatusConflict},
		{"bad confidence", http.MethodPost, "/api/trajectories/tese/segments/tese-seg-1/evidence", `{"type":"doi","refId":"10.1/x","confidence":2}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code, env.Message)
			assert.False(t, env.Success)
		})
	}
}
