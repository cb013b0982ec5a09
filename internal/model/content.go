package model

// ContentKind 内容类型
type ContentKind string

const (
	KindChannel ContentKind = "channel"
	KindMovie   ContentKind = "movie"
	KindSeries  ContentKind = "series"
	KindEpisode ContentKind = "episode"
)

// ContentRef 带类型的内容引用，类型与 ID 必须成对使用
type ContentRef struct {
	Kind ContentKind `json:"contentType" gorm:"column:content_type;type:varchar(16);not null"`
	ID   int         `json:"contentId" gorm:"column:content_id;not null"`
}

// NewContentRef 构造内容引用
func NewContentRef(kind ContentKind, id int) ContentRef {
	return ContentRef{Kind: kind, ID: id}
}

// ListKind 用户列表
type ListKind string

const (
	ListWatchlist ListKind = "watchlist"
	ListHistory   ListKind = "history"
	ListFavorites ListKind = "favorites"
)

var listKinds = map[ListKind][]ContentKind{
	ListWatchlist: {KindMovie, KindSeries},
	ListHistory:   {KindChannel, KindMovie, KindEpisode},
	ListFavorites: {KindChannel, KindMovie, KindSeries},
}

// Allows 列表是否接受该内容类型
func (l ListKind) Allows(kind ContentKind) bool {
	for _, k := range listKinds[l] {
		if k == kind {
			return true
		}
	}
	return false
}

// AllowedKinds 列表接受的内容类型
func (l ListKind) AllowedKinds() []ContentKind {
	return append([]ContentKind(nil), listKinds[l]...)
}
