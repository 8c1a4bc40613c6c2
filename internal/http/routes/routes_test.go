package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortssprint/shortssprint/internal/auth"
	"github.com/shortssprint/shortssprint/internal/config"
	"github.com/shortssprint/shortssprint/internal/drive"
	"github.com/shortssprint/shortssprint/internal/jobs"
	"github.com/shortssprint/shortssprint/internal/sheets"
	"github.com/shortssprint/shortssprint/internal/video"
)

const sheetFixture = `/*O_o*/
google.visualization.Query.setResponse({
	"status": "ok",
	"table": {
		"cols": [
			{"id": "A", "label": "Sr no."},
			{"id": "B", "label": "Title"},
			{"id": "C", "label": "Content Type"},
			{"id": "D", "label": "Sub category"},
			{"id": "E", "label": "Subject"},
			{"id": "F", "label": "Edit"}
		],
		"rows": [
			{"c": [{"v": "1"}, {"v": "Percentages"}, {"v": "Concept"}, {"v": "Arithmetic"}, {"v": "Maths"}, {"v": null}]},
			{"c": [{"v": "2"}, {"v": "Vocabulary"}, {"v": "Revision"}, {"v": "Words"}, {"v": "English"}, {"v": "re-edit"}]}
		]
	}
});`

const credsFixture = `/*O_o*/
google.visualization.Query.setResponse({
	"status": "ok",
	"table": {
		"cols": [
			{"id": "A", "label": "Username"},
			{"id": "B", "label": "Email"},
			{"id": "C", "label": "Password"}
		],
		"rows": [
			{"c": [{"v": "alice"}, {"v": "alice@adda247.com"}, {"v": "%s"}]}
		]
	}
});`

type serverFixture struct {
	srv      *Server
	registry *jobs.Registry
	runner   *jobs.Runner
}

func newTestServer(t *testing.T, withRunner bool) *serverFixture {
	t.Helper()

	hash, err := auth.HashPassword("hunter2!!")
	require.NoError(t, err)

	gviz := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("gid") == "9" {
			fmt.Fprintf(w, credsFixture, hash)
			return
		}
		fmt.Fprint(w, sheetFixture)
	}))
	t.Cleanup(gviz.Close)

	log := zerolog.Nop()
	reader := sheets.NewReader(sheets.ReaderOptions{
		SheetID:        "sheet",
		MainGID:        0,
		CredentialsGID: 9,
		SheetTTL:       time.Minute,
		CredentialsTTL: time.Minute,
		FiltersTTL:     time.Minute,
		BaseURL:        gviz.URL,
	}, log)

	store, err := video.NewStore(t.TempDir(), log)
	require.NoError(t, err)

	registry := jobs.NewRegistry(3)
	var runner *jobs.Runner
	if withRunner {
		runner = jobs.NewRunner(registry, 1, func(ctx context.Context, task jobs.Task) (any, error) {
			return map[string]string{"filename": "fake.mp4"}, nil
		}, log)
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		runner.Start(ctx)
		t.Cleanup(runner.Stop)
	}

	cfg := config.Config{
		AllowedOrigins: []string{"http://localhost:5173"},
		Auth: config.AuthConfig{
			AllowedDomains: []string{"adda247.com", "addaeducation.com", "studyiq.com"},
		},
	}

	s := New(ServerOptions{
		Reader:   reader,
		Store:    store,
		Uploader: drive.NewUploader(nil, "", log),
		Registry: registry,
		Runner:   runner,
		Tokens:   auth.NewTokenIssuer("test-secret", time.Hour),
		Google:   auth.NewGoogleVerifier("client-id", cfg.Auth.AllowedDomains),
		Cfg:      cfg,
		Log:      log,
	})
	return &serverFixture{srv: s, registry: registry, runner: runner}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthz(t *testing.T) {
	f := newTestServer(t, false)
	rec, _ := doJSON(t, f.srv.Router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHomeEnvelope(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "shorts-sprint-api", body["service"])
}

func TestDataExcludesReedit(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"], "re-edit rows must be hidden")
}

func TestFilters(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	filters := body["filters"].(map[string]any)
	assert.Equal(t, []any{"Concept"}, filters["types"])
}

func TestCategoriesAndExams(t *testing.T) {
	f := newTestServer(t, false)

	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := body["categories"].(map[string]any)
	assert.Contains(t, cats, "Exam Pattern")
	assert.Contains(t, cats, "Motivational Shorts")

	rec, body = doJSON(t, f.srv.Router, http.MethodGet, "/api/exams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exams := body["exams"].(map[string]any)
	assert.Contains(t, exams, "Bank Pre")
	assert.Contains(t, exams, "Agriculture")
}

func TestMetricsCountsRequests(t *testing.T) {
	f := newTestServer(t, false)
	doJSON(t, f.srv.Router, http.MethodGet, "/api/categories", nil)

	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	requests := body["requests"].(map[string]any)
	assert.GreaterOrEqual(t, requests["total"].(float64), float64(1))
}

func TestDownloadRequiresURL(t *testing.T) {
	f := newTestServer(t, true)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/download-youtube", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestDownloadRejectsBadURL(t *testing.T) {
	f := newTestServer(t, true)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/download-youtube",
		map[string]any{"url": "https://vimeo.com/1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestDownloadAsyncAccepted(t *testing.T) {
	f := newTestServer(t, true)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/download-youtube",
		map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ", "content_type": "Concept"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := body["download_id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "/api/download-youtube/status/"+id, body["status_url"])
}

func TestDownloadAsyncWithoutRunner(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/download-youtube",
		map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "async=false")
}

func TestDownloadCapacity(t *testing.T) {
	f := newTestServer(t, false)
	// Fill the registry directly; without a runner the jobs stay queued.
	for i := 0; i < 3; i++ {
		_, err := f.registry.Add("https://youtu.be/dQw4w9WgXcQ", "")
		require.NoError(t, err)
	}

	_, err := f.registry.Add("https://youtu.be/dQw4w9WgXcQ", "")
	require.Error(t, err)
}

func TestDownloadStatusUnknown(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/download-youtube/status/deadbeef", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestDownloadCleanup(t *testing.T) {
	f := newTestServer(t, false)
	job, err := f.registry.Add("https://youtu.be/dQw4w9WgXcQ", "")
	require.NoError(t, err)
	f.registry.Complete(job.ID, nil)

	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/download-youtube/cleanup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["removed"])
}

func TestVideosEmpty(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/videos/list", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])
}

func TestVideoInfoNotFound(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/video-info/missing.mp4", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestLoginSuccess(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/auth/login",
		map[string]any{"username": "alice", "password": "hunter2!!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@adda247.com", user["email"])
}

func TestLoginWrongPassword(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/auth/login",
		map[string]any{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_failure", body["error"])
}

func TestSignupRejectsForeignDomain(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/auth/signup",
		map[string]any{"username": "eve", "email": "eve@disallowed.com", "password": "longenough"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_failure", body["error"])
}

func TestSignupRejectsDuplicate(t *testing.T) {
	f := newTestServer(t, false)
	rec, _ := doJSON(t, f.srv.Router, http.MethodPost, "/api/auth/signup",
		map[string]any{"username": "alice", "email": "alice2@adda247.com", "password": "longenough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllowedDomains(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/auth/allowed-domains", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"adda247.com", "addaeducation.com", "studyiq.com"}, body["domains"])
}

func TestVerifyToken(t *testing.T) {
	f := newTestServer(t, false)

	token, err := f.srv.Tokens.Issue(auth.Identity{Username: "alice", Email: "alice@adda247.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
}

func TestVerifyTokenInvalid(t *testing.T) {
	f := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestMeWithToken(t *testing.T) {
	f := newTestServer(t, false)
	token, err := f.srv.Tokens.Issue(auth.Identity{Username: "alice", Email: "alice@adda247.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
}

func TestTicketValidation(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/api/ticket",
		map[string]any{"Ticket ID": "TKT-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "missing required fields")
}

func TestCacheClear(t *testing.T) {
	f := newTestServer(t, false)
	rec, body := doJSON(t, f.srv.Router, http.MethodPost, "/cache/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}
