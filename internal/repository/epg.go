package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/user/iptvhub/internal/model"
)

type EpgRepository struct {
	s *store
}

func NewEpgRepository(s *store) *EpgRepository {
	return &EpgRepository{s: s}
}

// ListByChannel 频道的全部节目单，重复条目原样返回
func (r *EpgRepository) ListByChannel(ctx context.Context, channelID int) []model.EpgEntry {
	return findAll[model.EpgEntry](ctx, r.s, "epg.list_by_channel", func(db *gorm.DB) *gorm.DB {
		return db.Where("channel_id = ?", channelID).Order("id ASC")
	})
}

// ReplaceForChannel 替换频道的节目单，导入时避免重复累积
func (r *EpgRepository) ReplaceForChannel(ctx context.Context, channelID int, entries []model.EpgEntry) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", channelID).Delete(&model.EpgEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].ChannelID = channelID
		}
		return tx.Create(&entries).Error
	})
}
