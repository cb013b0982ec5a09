package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/iptvhub/internal/model"
)

type FavoriteRepository struct {
	s *store
}

func NewFavoriteRepository(s *store) *FavoriteRepository {
	return &FavoriteRepository{s: s}
}

// Add 添加收藏，重复添加不报错
func (r *FavoriteRepository) Add(ctx context.Context, userID int, ref model.ContentRef) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	favorite := &model.Favorite{
		UserID:  userID,
		Content: ref,
		AddedAt: time.Now(),
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error
}

// Remove 取消收藏
func (r *FavoriteRepository) Remove(ctx context.Context, userID int, ref model.ContentRef) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	return ownedRef(userID, ref)(db).Delete(&model.Favorite{}).Error
}

// IsFavorited 检查是否已收藏
func (r *FavoriteRepository) IsFavorited(ctx context.Context, userID int, ref model.ContentRef) bool {
	return findOne[model.Favorite](ctx, r.s, "favorite.exists", ownedRef(userID, ref)) != nil
}

// List 获取用户收藏列表
func (r *FavoriteRepository) List(ctx context.Context, userID int) []model.Favorite {
	return findAll[model.Favorite](ctx, r.s, "favorite.list", func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID).Order("added_at DESC, id DESC")
	})
}
