package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"site-content-store/internal/auth"
	"site-content-store/internal/db/dbtest"
	"site-content-store/internal/locale"
	"site-content-store/internal/metrics"
	"site-content-store/internal/story"
	"site-content-store/internal/views"
	"site-content-store/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	counter *views.Counter
	issuer  *auth.Issuer
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	table, err := locale.NewTable([]string{"en", "nl"}, "en", map[string]string{"en": "/flags/gb.svg"})
	require.NoError(t, err)
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)

	backend := NewSQLBackend(dbtest.New(t))
	issuer := auth.NewIssuer("test-secret", time.Hour)
	m := metrics.New()
	counter := views.NewCounter(
		worker.NewWorkerPool(2, 10, nil),
		story.NewService(backend.Stories, table),
		time.Second, nil, m,
	)
	t.Cleanup(counter.Shutdown)

	router := NewRouter(Options{
		Environment: "development",
		Locales:     table,
		Backend:     backend,
		Auth:        auth.NewHandler(issuer, hash, nil),
		Issuer:      issuer,
		Views:       counter,
		Metrics:     m,
	})
	return &testServer{router: router, counter: counter, issuer: issuer, metrics: m}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do("POST", "/admin/login", "", `{"password":"hunter22"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response["access_token"]
}

func TestStoryFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do("POST", "/admin/stories", token,
		`{"slug":"guide","locale":"en","variant":{"title":"Guide","content":{"root":{"children":[]}},"date":"2024-01-01T00:00:00Z"}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do("PUT", "/admin/stories/guide/variants/nl", token,
		`{"title":"Gids","content":{"root":{"children":[]}},"date":"2024-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do("GET", "/stories/guide?locale=nl", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view story.StoryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Gids", view.Title)
	assert.Equal(t, int64(0), view.Views)

	// drain the queued increment
	s.counter.Shutdown()

	w = s.do("GET", "/stories/guide?locale=en", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Guide", view.Title)
	assert.Equal(t, int64(1), view.Views)

	w = s.do("GET", "/static-paths/stories", "", "")
	assert.JSONEq(t, `{"slugs":["guide"],"locales":["en","nl"]}`, w.Body.String())
}

func TestDocumentFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do("PUT", "/admin/documents/home-letter", token, `{"locale":"nl","content":{"root":{"children":[{"text":"Hallo"}]}}}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do("GET", "/api/content?documentId=home-letter&locale=nl", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"paragraph":{"root":{"children":[{"text":"Hallo"}]}}}`, w.Body.String())

	// no default variant yet, so English readers get the empty tree
	w = s.do("GET", "/api/content?documentId=home-letter&locale=en", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"paragraph":{"root":{"type":"root","children":[]}}}`, w.Body.String())
}

func TestEventFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	body := `{"eventSlug":"benelux","title":"ERP Masterclass","date":"2024-05-01T09:00:00Z","requiredRegistrations":8,"language":"nl","shownLanguages":["nl"]}`
	require.Equal(t, http.StatusCreated, s.do("POST", "/admin/events", token, body).Code)
	assert.Equal(t, http.StatusConflict, s.do("POST", "/admin/events", token, body).Code)

	w := s.do("GET", "/events?locale=en", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = s.do("GET", "/events/benelux", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"requiredRegistrations":8`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do("POST", "/admin/stories", "", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do("PUT", "/admin/documents/x", "garbage", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do("POST", "/admin/login", "", `{"password":"wrong"}`).Code)
}

func TestLocales(t *testing.T) {
	s := newTestServer(t)

	w := s.do("GET", "/locales", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"default":"en","locales":[{"code":"en","icon":"/flags/gb.svg"},{"code":"nl","icon":"/flags/nl.svg"}]}`, w.Body.String())
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do("GET", "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do("GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "content_store_http_requests_total")
}
