package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/user/iptvhub/internal/metrics"
	"github.com/user/iptvhub/internal/model"
)

// ErrStoreUnavailable 未配置数据库时写操作返回
var ErrStoreUnavailable = errors.New("数据库不可用")

// store 共享的数据库句柄。读操作失败只记日志并降级为空结果，写操作返回错误
type store struct {
	db  *gorm.DB
	log *zap.Logger
}

func (s *store) reader(ctx context.Context, op string) (*gorm.DB, bool) {
	if s.db == nil {
		s.log.Warn("数据库不可用，返回空结果", zap.String("op", op))
		metrics.StoreReadFailuresTotal.WithLabelValues(op, "unavailable").Inc()
		return nil, false
	}
	return s.db.WithContext(ctx), true
}

func (s *store) readFailed(op string, err error) {
	s.log.Error("查询失败", zap.String("op", op), zap.Error(err))
	metrics.StoreReadFailuresTotal.WithLabelValues(op, "query").Inc()
}

func (s *store) writer(ctx context.Context) (*gorm.DB, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}
	return s.db.WithContext(ctx), nil
}

// findAll 查询列表，任何失败都返回非 nil 的空切片
func findAll[T any](ctx context.Context, s *store, op string, scope func(*gorm.DB) *gorm.DB) []T {
	rows := make([]T, 0)
	db, ok := s.reader(ctx, op)
	if !ok {
		return rows
	}
	if err := scope(db).Find(&rows).Error; err != nil {
		s.readFailed(op, err)
		return make([]T, 0)
	}
	return rows
}

// findOne 按条件取一行，不存在或失败时返回 nil
func findOne[T any](ctx context.Context, s *store, op string, scope func(*gorm.DB) *gorm.DB) *T {
	db, ok := s.reader(ctx, op)
	if !ok {
		return nil
	}
	var row T
	err := scope(db).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		s.readFailed(op, err)
		return nil
	}
	return &row
}

func byID(id int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containing 子串匹配，通配符按字面处理
func containing(column, q string) func(*gorm.DB) *gorm.DB {
	pattern := "%" + likeEscaper.Replace(q) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+` LIKE ? ESCAPE '\'`, pattern).Order("id ASC")
	}
}

// ownedRef 用户列表中按 (用户, 类型, ID) 定位一行
func ownedRef(userID int, ref model.ContentRef) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND content_type = ? AND content_id = ?", userID, ref.Kind, ref.ID)
	}
}
