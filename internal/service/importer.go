package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jamesnetherton/m3u"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/metrics"
	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/repository"
	"github.com/user/iptvhub/internal/utils"
)

const defaultGroup = "Uncategorized"

// ImportReport 导入统计
type ImportReport struct {
	Sources  int `json:"sources"`
	Failed   int `json:"failed"`
	Channels int `json:"channels"`
	Epg      int `json:"epg"`
	Movies   int `json:"movies"`
	Series   int `json:"series"`
	Episodes int `json:"episodes"`
}

func (r *ImportReport) add(o ImportReport) {
	r.Channels += o.Channels
	r.Epg += o.Epg
	r.Movies += o.Movies
	r.Series += o.Series
	r.Episodes += o.Episodes
}

// Importer 把 M3U 播放列表和 JSON 种子数据写入目录
type Importer struct {
	repos    *repository.Repositories
	client   *utils.HTTPClient
	upstream UpstreamConfig
	log      *zap.Logger
}

// NewImporter 创建导入器
func NewImporter(repos *repository.Repositories, client *utils.HTTPClient, upstream UpstreamConfig, logger *zap.Logger) *Importer {
	return &Importer{repos: repos, client: client, upstream: upstream, log: logger.Named("importer")}
}

// Run 依次导入所有来源，单个来源失败只记录并跳过
func (i *Importer) Run(ctx context.Context, playlists, seeds []string) ImportReport {
	var report ImportReport
	for _, src := range playlists {
		report.Sources++
		n, err := i.ImportPlaylist(ctx, src)
		if err != nil {
			report.Failed++
			i.log.Error("导入播放列表失败，跳过", zap.String("source", src), zap.Error(err))
			continue
		}
		report.Channels += n
	}
	for _, src := range seeds {
		report.Sources++
		r, err := i.ImportSeed(ctx, src)
		report.add(r)
		if err != nil {
			report.Failed++
			i.log.Error("导入种子数据失败，跳过", zap.String("source", src), zap.Error(err))
		}
	}
	return report
}

// ImportPlaylist 导入 M3U 播放列表，group-title 作为频道分类
func (i *Importer) ImportPlaylist(ctx context.Context, source string) (int, error) {
	playlist, err := i.loadPlaylist(ctx, source)
	if err != nil {
		return 0, err
	}

	categories := map[string]int{}
	imported := 0
	for _, track := range playlist.Tracks {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		ch, group := i.channelFromTrack(track)
		if ch == nil {
			continue
		}

		catID, ok := categories[group]
		if !ok {
			cat, err := i.repos.Category.Ensure(ctx, group, model.CategoryChannel)
			if err != nil {
				return imported, fmt.Errorf("创建分类 %q 失败: %w", group, err)
			}
			catID = cat.ID
			categories[group] = catID
		}
		ch.CategoryID = catID

		if err := i.repos.Channel.Upsert(ctx, ch); err != nil {
			return imported, fmt.Errorf("写入频道 %q 失败: %w", ch.ExternalID, err)
		}
		imported++
	}

	metrics.ImportedItemsTotal.WithLabelValues("channel").Add(float64(imported))
	i.log.Info("播放列表导入完成", zap.String("source", source), zap.Int("channels", imported))
	return imported, nil
}

// loadPlaylist 远程列表先下载到临时文件再解析，下载受 ctx 控制
func (i *Importer) loadPlaylist(ctx context.Context, source string) (m3u.Playlist, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return m3u.Parse(source)
	}

	tmp, err := os.CreateTemp("", "playlist-*.m3u")
	if err != nil {
		return m3u.Playlist{}, err
	}
	defer os.Remove(tmp.Name())

	_, err = i.client.Download(ctx, source, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return m3u.Playlist{}, fmt.Errorf("下载播放列表失败: %w", err)
	}
	return m3u.Parse(tmp.Name())
}

func (i *Importer) channelFromTrack(track m3u.Track) (*model.Channel, string) {
	tags := make(map[string]string, len(track.Tags))
	for _, tag := range track.Tags {
		tags[tag.Name] = strings.TrimSpace(tag.Value)
	}

	name := strings.TrimSpace(track.Name)
	if v := tags["tvg-name"]; v != "" {
		name = v
	}
	uri := strings.TrimSpace(track.URI)
	if name == "" || uri == "" {
		return nil, ""
	}

	template := i.templateFromURI(uri)
	externalID := tags["tvg-id"]
	if externalID == "" {
		externalID = fallbackExternalID(template)
	}
	group := tags["group-title"]
	if group == "" {
		group = defaultGroup
	}

	return &model.Channel{
		ExternalID: externalID,
		Name:       name,
		StreamURL:  template,
		Icon:       tags["tvg-logo"],
		Quality:    qualityFromName(name),
	}, group
}

// templateFromURI 把地址里的上游凭据换成占位符，库里不保存明文凭据
// 支持路径形式 /user/pass/ 和查询参数 username=&password=
func (i *Importer) templateFromURI(uri string) string {
	user, pass := i.upstream.Username, i.upstream.Password
	if user == "" || pass == "" {
		return uri
	}
	uri = strings.Replace(uri, "/"+user+"/"+pass+"/", "/{username}/{password}/", 1)

	base, query, ok := strings.Cut(uri, "?")
	if !ok {
		return uri
	}
	params := strings.Split(query, "&")
	for k, p := range params {
		switch p {
		case "username=" + url.QueryEscape(user):
			params[k] = "username={username}"
		case "password=" + url.QueryEscape(pass):
			params[k] = "password={password}"
		}
	}
	return base + "?" + strings.Join(params, "&")
}

// fallbackExternalID 没有 tvg-id 时按地址模板生成稳定 ID，地址本身不对外暴露
func fallbackExternalID(template string) string {
	sum := sha256.Sum256([]byte(template))
	return "m3u-" + hex.EncodeToString(sum[:8])
}

// qualityFromName 从频道名里的 4K/FHD/HD 等标记推断画质
func qualityFromName(name string) string {
	fields := strings.FieldsFunc(strings.ToUpper(name), func(r rune) bool {
		return r == ' ' || r == '|' || r == '(' || r == ')' || r == '[' || r == ']' || r == '-'
	})
	for _, q := range []string{"4K", "UHD", "FHD", "HD", "SD"} {
		for _, f := range fields {
			if f == q {
				return q
			}
		}
	}
	return ""
}

// SeedFile JSON 种子数据，分类通过 key 引用
type SeedFile struct {
	Categories []SeedCategory `json:"categories"`
	Channels   []SeedChannel  `json:"channels"`
	Movies     []SeedMovie    `json:"movies"`
	Series     []SeedSeries   `json:"series"`
}

type SeedCategory struct {
	Key  string             `json:"key"`
	Name string             `json:"name"`
	Type model.CategoryType `json:"type"`
}

type SeedChannel struct {
	ExternalID string           `json:"externalId"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	StreamURL  string           `json:"streamUrl"`
	Icon       string           `json:"icon"`
	Quality    string           `json:"quality"`
	Epg        []model.EpgEntry `json:"epg"`
}

type SeedMovie struct {
	ExternalID  string   `json:"externalId"`
	Title       string   `json:"title"`
	Year        *int     `json:"year"`
	Genres      []string `json:"genres"`
	Duration    string   `json:"duration"`
	IMDbRating  *int     `json:"imdbRating"`
	Description string   `json:"description"`
	PosterURL   string   `json:"posterUrl"`
	Category    string   `json:"category"`
	StreamURL   string   `json:"streamUrl"`
}

type SeedSeries struct {
	ExternalID    string          `json:"externalId"`
	Title         string          `json:"title"`
	Genres        []string        `json:"genres"`
	IMDbRating    *int            `json:"imdbRating"`
	Description   string          `json:"description"`
	PosterURL     string          `json:"posterUrl"`
	Category      string          `json:"category"`
	TotalSeasons  int             `json:"totalSeasons"`
	TotalEpisodes int             `json:"totalEpisodes"`
	Episodes      []model.Episode `json:"episodes"`
}

// ImportSeed 导入 JSON 种子文件，已写入的部分保留在返回的统计中
func (i *Importer) ImportSeed(ctx context.Context, path string) (ImportReport, error) {
	var report ImportReport

	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("读取种子文件失败: %w", err)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return report, fmt.Errorf("解析种子文件失败: %w", err)
	}

	categories := map[string]int{}
	for _, c := range seed.Categories {
		cat, err := i.repos.Category.Ensure(ctx, c.Name, c.Type)
		if err != nil {
			return report, fmt.Errorf("创建分类 %q 失败: %w", c.Name, err)
		}
		categories[c.Key] = cat.ID
	}
	categoryID := func(key string) (int, error) {
		id, ok := categories[key]
		if !ok {
			return 0, fmt.Errorf("未知分类 %q", key)
		}
		return id, nil
	}

	for _, sc := range seed.Channels {
		catID, err := categoryID(sc.Category)
		if err != nil {
			return report, err
		}
		ch := &model.Channel{
			ExternalID: sc.ExternalID,
			Name:       sc.Name,
			CategoryID: catID,
			StreamURL:  i.templateFromURI(sc.StreamURL),
			Icon:       sc.Icon,
			Quality:    sc.Quality,
		}
		if err := i.repos.Channel.Upsert(ctx, ch); err != nil {
			return report, fmt.Errorf("写入频道 %q 失败: %w", sc.ExternalID, err)
		}
		report.Channels++

		if len(sc.Epg) == 0 {
			continue
		}
		stored := i.repos.Channel.FindByExternalID(ctx, sc.ExternalID)
		if stored == nil {
			return report, fmt.Errorf("频道 %q 写入后未找到", sc.ExternalID)
		}
		if err := i.repos.Epg.ReplaceForChannel(ctx, stored.ID, sc.Epg); err != nil {
			return report, fmt.Errorf("写入节目单失败: %w", err)
		}
		report.Epg += len(sc.Epg)
	}

	for _, sm := range seed.Movies {
		catID, err := categoryID(sm.Category)
		if err != nil {
			return report, err
		}
		m := &model.Movie{
			ExternalID:  sm.ExternalID,
			Title:       sm.Title,
			Year:        sm.Year,
			Genres:      model.Genres(sm.Genres),
			Duration:    sm.Duration,
			IMDbRating:  sm.IMDbRating,
			Description: sm.Description,
			PosterURL:   sm.PosterURL,
			CategoryID:  catID,
			StreamURL:   i.templateFromURI(sm.StreamURL),
		}
		if err := i.repos.Movie.Upsert(ctx, m); err != nil {
			return report, fmt.Errorf("写入电影 %q 失败: %w", sm.ExternalID, err)
		}
		report.Movies++
	}

	for _, ss := range seed.Series {
		catID, err := categoryID(ss.Category)
		if err != nil {
			return report, err
		}
		s := &model.Series{
			ExternalID:    ss.ExternalID,
			Title:         ss.Title,
			Genres:        model.Genres(ss.Genres),
			IMDbRating:    ss.IMDbRating,
			Description:   ss.Description,
			PosterURL:     ss.PosterURL,
			CategoryID:    catID,
			TotalSeasons:  ss.TotalSeasons,
			TotalEpisodes: ss.TotalEpisodes,
		}
		if err := i.repos.Series.Upsert(ctx, s); err != nil {
			return report, fmt.Errorf("写入剧集 %q 失败: %w", ss.ExternalID, err)
		}
		report.Series++

		if len(ss.Episodes) == 0 {
			continue
		}
		stored := i.repos.Series.FindByExternalID(ctx, ss.ExternalID)
		if stored == nil {
			return report, fmt.Errorf("剧集 %q 写入后未找到", ss.ExternalID)
		}
		for _, ep := range ss.Episodes {
			ep.ID = 0
			ep.SeriesID = stored.ID
			ep.StreamURL = i.templateFromURI(ep.StreamURL)
			if err := i.repos.Episode.Upsert(ctx, &ep); err != nil {
				return report, fmt.Errorf("写入分集 %q 失败: %w", ep.ExternalID, err)
			}
			report.Episodes++
		}
	}

	metrics.ImportedItemsTotal.WithLabelValues("channel").Add(float64(report.Channels))
	metrics.ImportedItemsTotal.WithLabelValues("movie").Add(float64(report.Movies))
	metrics.ImportedItemsTotal.WithLabelValues("series").Add(float64(report.Series))
	metrics.ImportedItemsTotal.WithLabelValues("episode").Add(float64(report.Episodes))
	i.log.Info("种子数据导入完成", zap.String("source", path),
		zap.Int("channels", report.Channels),
		zap.Int("movies", report.Movies),
		zap.Int("series", report.Series),
		zap.Int("episodes", report.Episodes))
	return report, nil
}
