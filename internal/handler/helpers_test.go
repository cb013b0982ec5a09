package handler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/user/iptvhub/internal/config"
	"github.com/user/iptvhub/internal/repository"
)

func newTestHandler(t *testing.T, upstreamHost string) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		UpstreamHost:     upstreamHost,
		UpstreamUsername: "alice",
		UpstreamPassword: "s3cret",
		UpstreamTimeout:  5 * time.Second,
		RequestTimeout:   5 * time.Second,
	}
	return NewHandler(repository.NewRepositories(db, zap.NewNop(), ""), cfg, zap.NewNop())
}
