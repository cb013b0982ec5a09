package model

import (
	"time"

	"gorm.io/datatypes"
)

// CategoryType 分类类型
type CategoryType string

const (
	CategoryChannel CategoryType = "channel"
	CategoryMovie   CategoryType = "movie"
	CategorySeries  CategoryType = "series"
)

// Genres 类型标签，按 JSON 数组存储
type Genres = datatypes.JSONSlice[string]

// Category 分类
type Category struct {
	ID        int          `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	Type      CategoryType `json:"type" gorm:"type:varchar(16);not null;index"`
	CreatedAt time.Time    `json:"createdAt" gorm:"autoCreateTime"`
}

// Channel 直播频道，StreamURL 在库里是上游模板，对外只返回代理地址
type Channel struct {
	ID         int       `json:"id" gorm:"primaryKey"`
	ExternalID string    `json:"externalId" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	CategoryID int       `json:"categoryId" gorm:"index;not null"`
	StreamURL  string    `json:"streamUrl" gorm:"type:text;not null"`
	Icon       string    `json:"icon" gorm:"type:text"`
	Quality    string    `json:"quality" gorm:"type:varchar(32)"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// EpgEntry 节目单条目
// StartTime/EndTime 是上游给的短时间串（如 "20:00"），不含日期和时区，原样保存
type EpgEntry struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	ChannelID   int       `json:"channelId" gorm:"index;not null"`
	StartTime   string    `json:"startTime" gorm:"type:varchar(32);not null"`
	EndTime     string    `json:"endTime" gorm:"type:varchar(32);not null"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (EpgEntry) TableName() string {
	return "epg_entries"
}

// Movie 点播电影，IMDbRating 为评分乘 10（7.8 存 78）
type Movie struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	ExternalID  string    `json:"externalId" gorm:"type:varchar(255);uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Year        *int      `json:"year"`
	Genres      Genres    `json:"genres"`
	Duration    string    `json:"duration" gorm:"type:varchar(32)"`
	IMDbRating  *int      `json:"imdbRating" gorm:"column:imdb_rating"`
	Description string    `json:"description" gorm:"type:text"`
	PosterURL   string    `json:"posterUrl" gorm:"type:text"`
	CategoryID  int       `json:"categoryId" gorm:"index;not null"`
	StreamURL   string    `json:"streamUrl" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// Series 剧集，本身没有播放地址
type Series struct {
	ID            int       `json:"id" gorm:"primaryKey"`
	ExternalID    string    `json:"externalId" gorm:"type:varchar(255);uniqueIndex;not null"`
	Title         string    `json:"title" gorm:"type:varchar(255);not null"`
	Genres        Genres    `json:"genres"`
	IMDbRating    *int      `json:"imdbRating" gorm:"column:imdb_rating"`
	Description   string    `json:"description" gorm:"type:text"`
	PosterURL     string    `json:"posterUrl" gorm:"type:text"`
	CategoryID    int       `json:"categoryId" gorm:"index;not null"`
	TotalSeasons  int       `json:"totalSeasons" gorm:"default:1"`
	TotalEpisodes int       `json:"totalEpisodes" gorm:"default:0"`
	CreatedAt     time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (Series) TableName() string {
	return "series"
}

// Episode 剧集分集，同一季同一集允许重复
type Episode struct {
	ID         int       `json:"id" gorm:"primaryKey"`
	ExternalID string    `json:"externalId" gorm:"type:varchar(255);uniqueIndex;not null"`
	SeriesID   int       `json:"seriesId" gorm:"index;not null"`
	Season     int       `json:"season" gorm:"not null"`
	Episode    int       `json:"episode" gorm:"not null"`
	Title      string    `json:"title" gorm:"type:varchar(255)"`
	StreamURL  string    `json:"streamUrl" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
