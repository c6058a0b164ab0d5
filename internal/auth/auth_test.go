package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"site-content-store/internal/logging"
	"site-content-store/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateAdminToken()
	require.NoError(t, err)
	assert.NoError(t, issuer.VerifyAdminToken(token))
}

func TestIssuer_RejectsForeignSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Hour).GenerateAdminToken()
	require.NoError(t, err)

	assert.Error(t, NewIssuer("two", time.Hour).VerifyAdminToken(token))
}

func TestIssuer_RejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := issuer.GenerateAdminToken()
	require.NoError(t, err)

	issuer.now = time.Now
	assert.Error(t, issuer.VerifyAdminToken(token))
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(logging.Discard()))
	router.POST("/admin/login", handler.Login)
	return router
}

func login(router *gin.Engine, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(FormLogin{Password: password})
	req := httptest.NewRequest("POST", "/admin/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin_Success(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	issuer := NewIssuer("test-secret", time.Hour)
	router := setupRouter(NewHandler(issuer, hash, logging.Discard()))

	w := login(router, "hunter22")

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NoError(t, issuer.VerifyAdminToken(response["access_token"]))
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	router := setupRouter(NewHandler(NewIssuer("s", time.Hour), hash, logging.Discard()))

	assert.Equal(t, http.StatusUnauthorized, login(router, "nope").Code)
}

func TestLogin_MissingPassword(t *testing.T) {
	router := setupRouter(NewHandler(NewIssuer("s", time.Hour), "", logging.Discard()))

	req := httptest.NewRequest("POST", "/admin/login", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLogin_Disabled(t *testing.T) {
	router := setupRouter(NewHandler(NewIssuer("s", time.Hour), "", logging.Discard()))

	assert.Equal(t, http.StatusUnauthorized, login(router, "anything").Code)
}

func TestAdminAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewIssuer("test-secret", time.Hour)
	guard := &middleware.AdminAuth{Verifier: issuer}

	router := gin.New()
	router.Use(middleware.ErrorHandler(logging.Discard()))
	router.GET("/admin/ping", guard.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	token, err := issuer.GenerateAdminToken()
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer garbage", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
