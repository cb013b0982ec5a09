package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/metrics"
	"github.com/user/iptvhub/internal/service"
	"github.com/user/iptvhub/internal/utils"
)

// statusProviderRateLimited 部分 IPTV 服务商用 458 表示连接数超限
const statusProviderRateLimited = 458

var forwardedRequestHeaders = []string{"Range", "If-Range", "User-Agent", "Accept"}

var forwardedResponseHeaders = []string{"Content-Range", "Accept-Ranges", "Last-Modified", "ETag", "Cache-Control"}

// Stream 播放代理：还原上游地址并注入凭据，把响应原样转给播放器
func (h *Handler) Stream(c *gin.Context) {
	kind, id, err := h.Resolver.ParsePath(c.Param("kind"), c.Param("file"))
	if err != nil {
		utils.NotFound(c, "播放地址无效")
		return
	}

	ctx := c.Request.Context()
	template, externalID, found := h.streamSource(ctx, kind, id)
	if !found {
		utils.NotFound(c, "内容不存在")
		return
	}

	canonical, err := h.Resolver.UpstreamURL(kind, template, externalID)
	if err != nil {
		h.log.Error("无法生成上游地址", zap.String("kind", string(kind)), zap.Int("id", id), zap.Error(err))
		metrics.UpstreamErrorsTotal.WithLabelValues(string(kind), "config").Inc()
		utils.Error(c, http.StatusBadGateway, "上游不可用")
		return
	}

	key := fmt.Sprintf("%s:%d", kind, id)
	if remaining, active := h.cooldown.Active(key); active {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
		utils.ServiceUnavailable(c, "上游限流中，请稍后再试")
		return
	}

	resp, err := h.openUpstream(ctx, key, canonical, c.Request.Header)
	if err != nil {
		if ctx.Err() != nil {
			c.Abort()
			return
		}
		h.log.Warn("上游请求失败", zap.String("kind", string(kind)), zap.Int("id", id), zap.Error(redactURL(err)))
		metrics.UpstreamErrorsTotal.WithLabelValues(string(kind), "transport").Inc()
		utils.Error(c, http.StatusBadGateway, "上游不可用")
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == statusProviderRateLimited:
		h.cooldown.Mark(key)
		metrics.UpstreamErrorsTotal.WithLabelValues(string(kind), "rate_limited").Inc()
		utils.ServiceUnavailable(c, "上游限流中，请稍后再试")
		return
	case resp.StatusCode >= http.StatusInternalServerError:
		metrics.UpstreamErrorsTotal.WithLabelValues(string(kind), "status").Inc()
		utils.Error(c, http.StatusBadGateway, "上游不可用")
		return
	}

	extra := make(map[string]string, len(forwardedResponseHeaders))
	for _, k := range forwardedResponseHeaders {
		if v := resp.Header.Get(k); v != "" {
			extra[k] = v
		}
	}
	body := &countingReader{r: resp.Body}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"), body, extra)
	metrics.StreamBytesTotal.WithLabelValues(string(kind)).Add(float64(body.n))
}

// streamSource 按内部 ID 取库里的地址模板和上游 ID
func (h *Handler) streamSource(ctx context.Context, kind service.StreamKind, id int) (string, string, bool) {
	switch kind {
	case service.StreamLive:
		if ch := h.Repos.Channel.FindByID(ctx, id); ch != nil {
			return ch.StreamURL, ch.ExternalID, true
		}
	case service.StreamMovie:
		if m := h.Repos.Movie.FindByID(ctx, id); m != nil {
			return m.StreamURL, m.ExternalID, true
		}
	case service.StreamSeries:
		if e := h.Repos.Episode.FindByID(ctx, id); e != nil {
			return e.StreamURL, e.ExternalID, true
		}
	}
	return "", "", false
}

// openUpstream 优先使用记住的跳转地址，失败后回退到标准地址
func (h *Handler) openUpstream(ctx context.Context, key, canonical string, in http.Header) (*http.Response, error) {
	header := http.Header{}
	for _, k := range forwardedRequestHeaders {
		if v := in.Get(k); v != "" {
			header.Set(k, v)
		}
	}

	if remembered, ok := h.redirects.Get(key); ok && remembered != canonical {
		resp, err := h.upstream.Get(ctx, remembered, header)
		if err == nil && resp.StatusCode < http.StatusBadRequest {
			return resp, nil
		}
		if err == nil {
			resp.Body.Close()
		}
		h.redirects.Delete(key)
	}

	resp, err := h.upstream.Get(ctx, canonical, header)
	if err != nil {
		return nil, err
	}
	if final := resp.Request.URL.String(); final != canonical {
		h.redirects.Set(key, final)
	}
	return resp, nil
}

// redactURL 去掉错误信息里带凭据的上游地址
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
