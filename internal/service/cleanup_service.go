package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/repository"
)

// CleanupService 定时清理过期的观看历史
type CleanupService struct {
	repos     *repository.Repositories
	retention time.Duration
	interval  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewCleanupService 创建清理服务，retention <= 0 时不清理
func NewCleanupService(repos *repository.Repositories, retention time.Duration, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		repos:     repos,
		retention: retention,
		interval:  24 * time.Hour,
		log:       logger.Named("cleanup"),
		now:       time.Now,
	}
}

// Start 启动时先运行一次，之后每天一次，ctx 取消后退出
func (s *CleanupService) Start(ctx context.Context) {
	if s.retention <= 0 {
		s.log.Info("未设置历史保留期，跳过定时清理")
		return
	}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce 执行一次清理，返回删除条数
func (s *CleanupService) RunOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	affected, err := s.repos.History.DeleteOlderThan(ctx, cutoff)
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		s.log.Debug("数据库不可用，跳过清理")
	case err != nil:
		s.log.Error("清理观看历史失败", zap.Error(err))
	case affected > 0:
		s.log.Info("已清理过期观看历史", zap.Int64("rows", affected), zap.Time("cutoff", cutoff))
	}
	return affected
}
