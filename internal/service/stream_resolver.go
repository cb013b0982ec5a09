package service

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// StreamKind 播放地址的内容种类
type StreamKind string

const (
	StreamLive   StreamKind = "live"
	StreamMovie  StreamKind = "movie"
	StreamSeries StreamKind = "series"
)

// StreamPathPrefix 对外的代理路径前缀
const StreamPathPrefix = "/api/stream/"

// streamExtensions 每种内容的容器扩展名，直播走 MPEG-TS
var streamExtensions = map[StreamKind]string{
	StreamLive:   "ts",
	StreamMovie:  "mp4",
	StreamSeries: "mp4",
}

var (
	ErrInvalidStreamPath     = errors.New("无效的播放路径")
	ErrUpstreamNotConfigured = errors.New("上游地址未配置")
	ErrMissingUpstreamRef    = errors.New("缺少上游内容标识")
)

// UpstreamConfig 上游 IPTV 服务
type UpstreamConfig struct {
	Host     string
	Username string
	Password string
}

// StreamResolver 生成对外播放地址，并在代理内部还原上游地址
type StreamResolver struct {
	upstream UpstreamConfig
}

// NewStreamResolver 创建解析器
func NewStreamResolver(upstream UpstreamConfig) *StreamResolver {
	return &StreamResolver{upstream: upstream}
}

// extension 内容种类对应的扩展名，所有路径都经这里查表
func extension(kind StreamKind) (string, bool) {
	ext, ok := streamExtensions[kind]
	return ext, ok
}

// Resolve 生成同源代理地址，结果不含上游凭据
func (r *StreamResolver) Resolve(kind StreamKind, contentID int) string {
	ext, ok := extension(kind)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s%s/%d.%s", StreamPathPrefix, kind, contentID, ext)
}

// ParsePath 解析代理路径中的种类和文件名，扩展名必须与种类一致
func (r *StreamResolver) ParsePath(kind, file string) (StreamKind, int, error) {
	k := StreamKind(kind)
	ext, ok := extension(k)
	if !ok {
		return "", 0, ErrInvalidStreamPath
	}
	name, found := strings.CutSuffix(file, "."+ext)
	if !found {
		return "", 0, ErrInvalidStreamPath
	}
	id, err := strconv.Atoi(name)
	if err != nil || id <= 0 {
		return "", 0, ErrInvalidStreamPath
	}
	return k, id, nil
}

// UpstreamURL 还原上游地址
// 库里存的是完整地址模板时替换 {username}/{password}，否则按 host/kind/user/pass/id.ext 拼接
func (r *StreamResolver) UpstreamURL(kind StreamKind, template, externalID string) (string, error) {
	ext, ok := extension(kind)
	if !ok {
		return "", ErrInvalidStreamPath
	}

	if strings.HasPrefix(template, "http://") || strings.HasPrefix(template, "https://") {
		return strings.NewReplacer(
			"{username}", url.PathEscape(r.upstream.Username),
			"{password}", url.PathEscape(r.upstream.Password),
		).Replace(template), nil
	}

	if r.upstream.Host == "" {
		return "", ErrUpstreamNotConfigured
	}
	if externalID == "" {
		return "", ErrMissingUpstreamRef
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s.%s",
		strings.TrimRight(r.upstream.Host, "/"),
		kind,
		url.PathEscape(r.upstream.Username),
		url.PathEscape(r.upstream.Password),
		url.PathEscape(externalID),
		ext,
	), nil
}
