package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/iptvhub/internal/model"
)

type ChannelRepository struct {
	s *store
}

func NewChannelRepository(s *store) *ChannelRepository {
	return &ChannelRepository{s: s}
}

// ListByCategory 列出分类下的频道
func (r *ChannelRepository) ListByCategory(ctx context.Context, categoryID int) []model.Channel {
	return findAll[model.Channel](ctx, r.s, "channel.list_by_category", func(db *gorm.DB) *gorm.DB {
		return db.Where("category_id = ?", categoryID).Order("id ASC")
	})
}

// FindByID 根据 ID 查找频道
func (r *ChannelRepository) FindByID(ctx context.Context, id int) *model.Channel {
	return findOne[model.Channel](ctx, r.s, "channel.find_by_id", byID(id))
}

// SearchByName 按名称子串搜索
func (r *ChannelRepository) SearchByName(ctx context.Context, q string) []model.Channel {
	return findAll[model.Channel](ctx, r.s, "channel.search", containing("name", q))
}

// Upsert 按 ExternalID 插入或更新
func (r *ChannelRepository) Upsert(ctx context.Context, ch *model.Channel) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category_id", "stream_url", "icon", "quality"}),
	}).Create(ch).Error
}

// FindByExternalID 根据上游 ID 查找频道
func (r *ChannelRepository) FindByExternalID(ctx context.Context, externalID string) *model.Channel {
	return findOne[model.Channel](ctx, r.s, "channel.find_by_external_id", func(db *gorm.DB) *gorm.DB {
		return db.Where("external_id = ?", externalID)
	})
}
