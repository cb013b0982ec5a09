package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/iptvhub/internal/model"
)

type WatchlistRepository struct {
	s *store
}

func NewWatchlistRepository(s *store) *WatchlistRepository {
	return &WatchlistRepository{s: s}
}

// Add 加入待看，重复添加不报错
func (r *WatchlistRepository) Add(ctx context.Context, userID int, ref model.ContentRef) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	item := &model.WatchlistItem{
		UserID:  userID,
		Content: ref,
		AddedAt: time.Now(),
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(item).Error
}

// Remove 移出待看
func (r *WatchlistRepository) Remove(ctx context.Context, userID int, ref model.ContentRef) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	return ownedRef(userID, ref)(db).Delete(&model.WatchlistItem{}).Error
}

// List 获取用户待看列表
func (r *WatchlistRepository) List(ctx context.Context, userID int) []model.WatchlistItem {
	return findAll[model.WatchlistItem](ctx, r.s, "watchlist.list", func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID).Order("added_at DESC, id DESC")
	})
}
