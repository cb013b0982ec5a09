package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/iptvhub/internal/model"
)

type UserRepository struct {
	s           *store
	ownerOpenID string
}

func NewUserRepository(s *store, ownerOpenID string) *UserRepository {
	return &UserRepository{s: s, ownerOpenID: ownerOpenID}
}

// Upsert 按 OpenID 插入或更新，只改调用方提供的字段
func (r *UserRepository) Upsert(ctx context.Context, in model.UserUpsert) error {
	if in.OpenID == "" {
		return errors.New("openId 不能为空")
	}
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	user := model.User{
		OpenID:       in.OpenID,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSignedIn: now,
	}
	updates := map[string]interface{}{}

	setText := func(column string, v *sql.Null[string], dst **string) {
		if v == nil {
			return
		}
		if !v.Valid {
			*dst = nil
			updates[column] = nil
			return
		}
		value := v.V
		*dst = &value
		updates[column] = value
	}
	setText("name", in.Name, &user.Name)
	setText("email", in.Email, &user.Email)
	setText("login_method", in.LoginMethod, &user.LoginMethod)

	if in.LastSignedIn != nil {
		user.LastSignedIn = *in.LastSignedIn
		updates["last_signed_in"] = *in.LastSignedIn
	}

	switch {
	case in.Role != nil:
		user.Role = *in.Role
		updates["role"] = *in.Role
	case r.ownerOpenID != "" && in.OpenID == r.ownerOpenID:
		user.Role = model.RoleAdmin
		updates["role"] = model.RoleAdmin
	}

	if len(updates) == 0 {
		updates["last_signed_in"] = now
	}
	updates["updated_at"] = now

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "open_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&user).Error
}

// FindByOpenID 根据外部身份查找用户
func (r *UserRepository) FindByOpenID(ctx context.Context, openID string) *model.User {
	return findOne[model.User](ctx, r.s, "user.find_by_open_id", func(db *gorm.DB) *gorm.DB {
		return db.Where("open_id = ?", openID)
	})
}

// FindByID 根据 ID 查找用户
func (r *UserRepository) FindByID(ctx context.Context, id int) *model.User {
	return findOne[model.User](ctx, r.s, "user.find_by_id", byID(id))
}
