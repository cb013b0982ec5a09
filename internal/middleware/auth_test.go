package middleware

import (
	"encoding/gob"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/iptvhub/internal/model"
)

const testSecret = "test-secret"

func init() {
	gob.Register(model.SessionUser{})
}

func authRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte(testSecret))))
	r.GET("/login", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserKey, model.SessionUser{ID: 9, Role: model.RoleUser})
		_ = s.Save()
		c.Status(http.StatusOK)
	})
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": GetUserID(c)})
	})
	r.GET("/me", handlers...)
	return r
}

func TestRequireAuth_RejectsAnonymous(t *testing.T) {
	r := authRouter(RequireAuth(testSecret))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRequireAuth_AcceptsBearerToken(t *testing.T) {
	r := authRouter(RequireAuth(testSecret))
	token, err := GenerateToken(3, "u3", "a@b.c", model.RoleUser, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":3}`, w.Body.String())
}

func TestRequireAuth_RejectsForeignSignature(t *testing.T) {
	r := authRouter(RequireAuth(testSecret))
	token, err := GenerateToken(3, "u3", "", model.RoleAdmin, "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_AcceptsSession(t *testing.T) {
	r := authRouter(RequireAuth(testSecret))

	login := httptest.NewRecorder()
	r.ServeHTTP(login, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":9}`, w.Body.String())
}

func TestOptionalAuth_AllowsAnonymous(t *testing.T) {
	r := authRouter(OptionalAuth(testSecret))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":0}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter(RequireAuth(testSecret), RequireAdmin())

	userToken, _ := GenerateToken(1, "u1", "", model.RoleUser, testSecret, time.Hour)
	adminToken, _ := GenerateToken(2, "u2", "", model.RoleAdmin, testSecret, time.Hour)

	for token, want := range map[string]int{userToken: http.StatusForbidden, adminToken: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

func TestShouldRefresh(t *testing.T) {
	now := time.Now()
	fresh := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	stale := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-50 * time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
	}}
	assert.False(t, shouldRefresh(fresh))
	assert.True(t, shouldRefresh(stale))
	assert.False(t, shouldRefresh(&Claims{}))
}
