package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/user/iptvhub/internal/config"
	"github.com/user/iptvhub/internal/handler"
	"github.com/user/iptvhub/internal/middleware"
	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/repository"
)

const (
	appSecret      = "test-app-secret"
	identitySecret = "test-identity-secret"
	ownerOpenID    = "owner-open-id"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

type testServer struct {
	engine *gin.Engine
	repos  *repository.Repositories
}

func newTestServer(t *testing.T, withDB bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var db *gorm.DB
	if withDB {
		var err error
		db, err = gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		require.NoError(t, err)
		require.NoError(t, repository.Migrate(db))
		t.Cleanup(func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		})
	}

	cfg := &config.Config{
		Env:                 "test",
		AppSecret:           appSecret,
		OwnerOpenID:         ownerOpenID,
		IdentityTokenSecret: identitySecret,
		JWTExpiry:           time.Hour,
		UpstreamHost:        "http://upstream.example",
		UpstreamUsername:    "alice",
		UpstreamPassword:    "s3cret",
		UpstreamTimeout:     5 * time.Second,
		RequestTimeout:      5 * time.Second,
		RateLimitRPS:        1000,
		RateLimitBurst:      1000,
	}
	repos := repository.NewRepositories(db, zap.NewNop(), cfg.OwnerOpenID)
	h := handler.NewHandler(repos, cfg, zap.NewNop())
	return &testServer{engine: NewEngine(h, zap.NewNop()), repos: repos}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

// login 登记用户并签发应用 Token
func (s *testServer) login(t *testing.T, openID string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.repos.User.Upsert(ctx, model.UserUpsert{OpenID: openID}))
	user := s.repos.User.FindByOpenID(ctx, openID)
	require.NotNil(t, user)
	token, err := middleware.GenerateToken(user.ID, user.OpenID, "", user.Role, appSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	year := 2023
	require.NoError(t, s.repos.DB.Create(&model.Category{ID: 1, Name: "Movies", Type: model.CategoryMovie}).Error)
	require.NoError(t, s.repos.Movie.Upsert(ctx, &model.Movie{
		ID: 100, ExternalID: "9001", Title: "Oppenheimer", CategoryID: 1, Year: &year,
	}))
	require.NoError(t, s.repos.Series.Upsert(ctx, &model.Series{ID: 7, ExternalID: "77", Title: "Dark", CategoryID: 1}))
}

func TestHealth(t *testing.T) {
	w, _ := newTestServer(t, true).do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w, _ = newTestServer(t, false).do(t, http.MethodGet, "/health", nil, "")
	assert.JSONEq(t, `{"status":"degraded"}`, w.Body.String())
}

func TestMovies_ListByCategoryMasksStream(t *testing.T) {
	s := newTestServer(t, true)
	s.seedCatalog(t)

	w, env := s.do(t, http.MethodGet, "/api/movies?categoryId=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var movies []model.Movie
	require.NoError(t, json.Unmarshal(env.Data, &movies))
	require.Len(t, movies, 1)
	assert.Equal(t, "Oppenheimer", movies[0].Title)
	assert.Equal(t, "/api/stream/movie/100.mp4", movies[0].StreamURL)
	assert.NotContains(t, w.Body.String(), "s3cret")
}

func TestMovies_Validation(t *testing.T) {
	s := newTestServer(t, true)

	w, _ := s.do(t, http.MethodGet, "/api/movies", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/categories", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"type"`)
}

func TestMovies_NotFoundHasNullData(t *testing.T) {
	w, env := newTestServer(t, true).do(t, http.MethodGet, "/api/movies/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "null", string(env.Data))
	assert.False(t, env.Success)
}

func TestCatalog_DegradedReturnsEmpty(t *testing.T) {
	w, env := newTestServer(t, false).do(t, http.MethodGet, "/api/movies?categoryId=1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(env.Data))
}

func TestGlobalSearch_EmptyGroups(t *testing.T) {
	s := newTestServer(t, true)
	s.seedCatalog(t)

	w, env := s.do(t, http.MethodGet, "/api/search?query=oppen", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Channels json.RawMessage `json:"channels"`
		Movies   []model.Movie   `json:"movies"`
		Series   json.RawMessage `json:"series"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "[]", string(res.Channels))
	assert.Equal(t, "[]", string(res.Series))
	require.Len(t, res.Movies, 1)
	assert.Equal(t, 100, res.Movies[0].ID)
}

func TestUserRoutes_RequireAuth(t *testing.T) {
	s := newTestServer(t, true)
	for _, path := range []string{"/api/watchlist", "/api/history", "/api/favorites"} {
		w, env := s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.False(t, env.Success, path)
	}
	w, _ := s.do(t, http.MethodGet, "/api/watchlist", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWatchlist_IsolatedPerUser(t *testing.T) {
	s := newTestServer(t, true)
	s.seedCatalog(t)
	alice := s.login(t, "alice-open-id")
	bob := s.login(t, "bob-open-id")

	w, _ := s.do(t, http.MethodPost, "/api/watchlist", gin.H{"contentType": "movie", "contentId": 100}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	// 重复添加不报错
	w, _ = s.do(t, http.MethodPost, "/api/watchlist", gin.H{"contentType": "movie", "contentId": 100}, alice)
	require.Equal(t, http.StatusOK, w.Code)

	_, env := s.do(t, http.MethodGet, "/api/watchlist", nil, alice)
	var items []model.WatchlistItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, model.NewContentRef(model.KindMovie, 100), items[0].Content)
	assert.Contains(t, string(env.Data), `"content":{"contentType":"movie","contentId":100}`)

	_, env = s.do(t, http.MethodGet, "/api/watchlist", nil, bob)
	assert.Equal(t, "[]", string(env.Data))

	w, _ = s.do(t, http.MethodDelete, "/api/watchlist/movie/100", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = s.do(t, http.MethodGet, "/api/watchlist", nil, alice)
	assert.Equal(t, "[]", string(env.Data))
}

func TestWatchlist_RejectsWrongKind(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t, "alice-open-id")

	w, _ := s.do(t, http.MethodPost, "/api/watchlist", gin.H{"contentType": "channel", "contentId": 1}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/watchlist", gin.H{"contentType": "radio", "contentId": 1}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "contentType")
}

func TestWatchlist_WriteWithoutStore(t *testing.T) {
	s := newTestServer(t, false)
	token, err := middleware.GenerateToken(1, "alice-open-id", "", model.RoleUser, appSecret, time.Hour)
	require.NoError(t, err)

	w, _ := s.do(t, http.MethodPost, "/api/watchlist", gin.H{"contentType": "movie", "contentId": 100}, token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHistory_ProgressFlow(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t, "alice-open-id")

	w, _ := s.do(t, http.MethodPost, "/api/history", gin.H{"contentType": "movie", "contentId": 100, "progress": 30}, token)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodPut, "/api/history/progress", gin.H{"contentType": "movie", "contentId": 100, "progress": 600}, token)
	require.Equal(t, http.StatusOK, w.Code)

	_, env := s.do(t, http.MethodGet, "/api/history", nil, token)
	var entries []model.HistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 600, entries[0].Progress)

	w, _ = s.do(t, http.MethodPut, "/api/history/progress", gin.H{"contentType": "movie", "contentId": 100, "progress": -1}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/history", gin.H{"contentType": "series", "contentId": 7}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavorites_Status(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t, "alice-open-id")

	_, env := s.do(t, http.MethodGet, "/api/favorites/series/7", nil, token)
	assert.Contains(t, string(env.Data), "false")

	w, _ := s.do(t, http.MethodPost, "/api/favorites", gin.H{"contentType": "series", "contentId": 7}, token)
	require.Equal(t, http.StatusOK, w.Code)

	_, env = s.do(t, http.MethodGet, "/api/favorites/series/7", nil, token)
	assert.Contains(t, string(env.Data), "true")

	w, _ = s.do(t, http.MethodPost, "/api/favorites", gin.H{"contentType": "episode", "contentId": 1}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func identityToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(identitySecret))
	require.NoError(t, err)
	return token
}

func TestAuthCallback_OwnerBecomesAdmin(t *testing.T) {
	s := newTestServer(t, true)

	w, env := s.do(t, http.MethodPost, "/api/auth/callback", gin.H{
		"token": identityToken(t, jwt.MapClaims{"sub": ownerOpenID, "name": "Owner", "exp": time.Now().Add(time.Hour).Unix()}),
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, model.RoleAdmin, res.User.Role)
	require.NotNil(t, res.User.Name)
	assert.Equal(t, "Owner", *res.User.Name)
	assert.NotEmpty(t, res.Token)

	_, env = s.do(t, http.MethodGet, "/api/auth/me", nil, res.Token)
	var me model.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, ownerOpenID, me.OpenID)
}

func TestAuthCallback_RejectsForgedToken(t *testing.T) {
	s := newTestServer(t, true)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": ownerOpenID}).SignedString([]byte("wrong"))
	require.NoError(t, err)

	w, _ := s.do(t, http.MethodPost, "/api/auth/callback", gin.H{"token": forged}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/callback", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe_Anonymous(t *testing.T) {
	w, env := newTestServer(t, true).do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(env.Data))
}

func TestAdminImport_RequiresAdmin(t *testing.T) {
	s := newTestServer(t, true)
	body := gin.H{"playlistUrl": "http://127.0.0.1:1/none.m3u"}

	w, _ := s.do(t, http.MethodPost, "/api/admin/import/playlist", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/admin/import/playlist", body, s.login(t, "alice-open-id"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/admin/import/playlist", gin.H{"playlistUrl": "file:///etc/passwd"}, s.login(t, ownerOpenID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
