package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/user/iptvhub/internal/model"
)

type HistoryRepository struct {
	s *store
}

func NewHistoryRepository(s *store) *HistoryRepository {
	return &HistoryRepository{s: s}
}

// List 获取用户观看历史，最近的在前
func (r *HistoryRepository) List(ctx context.Context, userID int) []model.HistoryEntry {
	return findAll[model.HistoryEntry](ctx, r.s, "history.list", func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID).Order("watched_at DESC, id DESC")
	})
}

// Add 追加一条观看记录，progress 为 nil 时记 0
func (r *HistoryRepository) Add(ctx context.Context, userID int, ref model.ContentRef, progress *int) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	entry := &model.HistoryEntry{
		UserID:    userID,
		Content:   ref,
		WatchedAt: time.Now(),
	}
	if progress != nil {
		entry.Progress = *progress
	}
	return db.Create(entry).Error
}

// UpsertProgress 更新播放进度，没有记录时新建
// 先读后写，同一内容的并发调用可能丢失其中一次更新
func (r *HistoryRepository) UpsertProgress(ctx context.Context, userID int, ref model.ContentRef, progress int) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		var existing []model.HistoryEntry
		if err := ownedRef(userID, ref)(tx).Order("id ASC").Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			return tx.Model(&model.HistoryEntry{}).
				Where("id = ?", existing[0].ID).
				Updates(map[string]interface{}{"progress": progress, "watched_at": now}).Error
		}
		return tx.Create(&model.HistoryEntry{
			UserID:    userID,
			Content:   ref,
			WatchedAt: now,
			Progress:  progress,
		}).Error
	})
}

// DeleteOlderThan 删除 cutoff 之前的观看记录，返回删除条数
func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := r.s.writer(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Where("watched_at < ?", cutoff).Delete(&model.HistoryEntry{})
	return result.RowsAffected, result.Error
}
