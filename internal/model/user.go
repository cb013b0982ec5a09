package model

import (
	"database/sql"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户，身份来自外部登录，OpenID 唯一
type User struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	OpenID       string    `json:"openId" gorm:"column:open_id;type:varchar(64);uniqueIndex;not null"`
	Name         *string   `json:"name" gorm:"type:text"`
	Email        *string   `json:"email" gorm:"type:varchar(320)"`
	LoginMethod  *string   `json:"loginMethod" gorm:"type:varchar(64)"`
	Role         string    `json:"role" gorm:"type:varchar(16);not null;default:user"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserUpsert 用户写入参数
// 文本字段三态：nil 表示未提供（保持原值），Valid=false 表示清空，Valid=true 表示设置
type UserUpsert struct {
	OpenID       string
	Name         *sql.Null[string]
	Email        *sql.Null[string]
	LoginMethod  *sql.Null[string]
	Role         *string
	LastSignedIn *time.Time
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID     int
	OpenID string
	Email  string
	Role   string
}

// WatchlistItem 待看，行 ID 与内容引用分开，避免混用
type WatchlistItem struct {
	ID      int        `json:"id" gorm:"primaryKey"`
	UserID  int        `json:"userId" gorm:"not null;index"`
	Content ContentRef `json:"content" gorm:"embedded"`
	AddedAt time.Time  `json:"addedAt" gorm:"autoCreateTime"`
}

func (WatchlistItem) TableName() string {
	return "user_watchlist"
}

// HistoryEntry 观看历史，Progress 单位为秒
type HistoryEntry struct {
	ID        int        `json:"id" gorm:"primaryKey"`
	UserID    int        `json:"userId" gorm:"not null;index"`
	Content   ContentRef `json:"content" gorm:"embedded"`
	WatchedAt time.Time  `json:"watchedAt" gorm:"not null;index"`
	Progress  int        `json:"progress" gorm:"not null;default:0"`
}

func (HistoryEntry) TableName() string {
	return "user_history"
}

// Favorite 收藏
type Favorite struct {
	ID      int        `json:"id" gorm:"primaryKey"`
	UserID  int        `json:"userId" gorm:"not null;index"`
	Content ContentRef `json:"content" gorm:"embedded"`
	AddedAt time.Time  `json:"addedAt" gorm:"autoCreateTime"`
}

func (Favorite) TableName() string {
	return "user_favorites"
}
