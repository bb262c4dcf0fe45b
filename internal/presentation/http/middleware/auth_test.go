package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/dukabook/ledger-api/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *utils.JWTManager, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	// The pointer target is filled in per request.
	captured := &session.Session{}
	handler := func(c *gin.Context) {
		val, _ := c.Get("session")
		if sess, ok := val.(*session.Session); ok {
			*captured = *sess
		}
		c.Status(http.StatusOK)
	}

	router := gin.New()
	router.GET("/protected", AuthMiddleware(jwtManager), handler)
	router.GET("/capture", AuthMiddleware(jwtManager), handler)
	return router, jwtManager, captured
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareBuildsSessionFromClaims(t *testing.T) {
	router, jwtManager, sess := newAuthRouter(t)
	userID := uuid.New()

	token, err := jwtManager.GenerateAccessToken(userID, "mary@duka.example", "admin")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/capture", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, sess.UserID)
	assert.Equal(t, "mary@duka.example", sess.Email)
	assert.Equal(t, enum.RoleAdmin, sess.Role)
	assert.Equal(t, enum.ModeOnline, sess.Mode, "mode defaults to online")
}

func TestAuthMiddlewareHonoursOfflineDeclaration(t *testing.T) {
	router, jwtManager, sess := newAuthRouter(t)

	token, err := jwtManager.GenerateAccessToken(uuid.New(), "staff@duka.example", "staff")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/capture", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Connectivity-Mode", "Offline")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, enum.ModeOffline, sess.Mode)
}

func TestAuthMiddlewareAcceptsTokenQueryParam(t *testing.T) {
	router, jwtManager, sess := newAuthRouter(t)
	userID := uuid.New()

	token, err := jwtManager.GenerateAccessToken(userID, "ws@duka.example", "staff")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/capture?token="+token, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, sess.UserID)
}
