package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/user/iptvhub/internal/model"
)

// InitDB 初始化数据库连接，databaseURL 为空时返回 nil，仓库进入降级模式
func InitDB(databaseURL string, logger *zap.Logger) (*gorm.DB, error) {
	if databaseURL == "" {
		logger.Warn("未配置 DATABASE_URL，数据库不可用")
		return nil, nil
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("初始化 gorm 失败: %w", err)
	}
	return db, nil
}

// Migrate 建表并补充复合唯一索引
func Migrate(db *gorm.DB) error {
	if db == nil {
		return ErrStoreUnavailable
	}
	err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Channel{},
		&model.EpgEntry{},
		&model.Movie{},
		&model.Series{},
		&model.Episode{},
		&model.WatchlistItem{},
		&model.HistoryEntry{},
		&model.Favorite{},
	)
	if err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}

	// 嵌入字段无法按表声明索引名，这里手动建
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_user_watchlist_item ON user_watchlist (user_id, content_type, content_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_user_favorites_item ON user_favorites (user_id, content_type, content_id)",
		"CREATE INDEX IF NOT EXISTS idx_user_history_item ON user_history (user_id, content_type, content_id)",
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("创建索引失败: %w", err)
		}
	}
	return nil
}

// Repositories 仓库集合
type Repositories struct {
	DB        *gorm.DB
	User      *UserRepository
	Category  *CategoryRepository
	Channel   *ChannelRepository
	Epg       *EpgRepository
	Movie     *MovieRepository
	Series    *SeriesRepository
	Episode   *EpisodeRepository
	Watchlist *WatchlistRepository
	History   *HistoryRepository
	Favorite  *FavoriteRepository
}

// NewRepositories 创建仓库集合，db 可以为 nil
func NewRepositories(db *gorm.DB, logger *zap.Logger, ownerOpenID string) *Repositories {
	s := &store{db: db, log: logger.Named("repository")}
	return &Repositories{
		DB:        db,
		User:      NewUserRepository(s, ownerOpenID),
		Category:  NewCategoryRepository(s),
		Channel:   NewChannelRepository(s),
		Epg:       NewEpgRepository(s),
		Movie:     NewMovieRepository(s),
		Series:    NewSeriesRepository(s),
		Episode:   NewEpisodeRepository(s),
		Watchlist: NewWatchlistRepository(s),
		History:   NewHistoryRepository(s),
		Favorite:  NewFavoriteRepository(s),
	}
}

// Available 数据库是否已配置
func (r *Repositories) Available() bool {
	return r.DB != nil
}
