package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ExtensionTable(t *testing.T) {
	r := NewStreamResolver(testUpstream)

	tests := []struct {
		kind StreamKind
		id   int
		want string
	}{
		{StreamLive, 42, "/api/stream/live/42.ts"},
		{StreamMovie, 100, "/api/stream/movie/100.mp4"},
		{StreamSeries, 7, "/api/stream/series/7.mp4"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := r.Resolve(tt.kind, tt.id)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, r.Resolve(tt.kind, tt.id))
			assert.NotContains(t, got, testUpstream.Username)
			assert.NotContains(t, got, testUpstream.Password)
		})
	}

	assert.Empty(t, r.Resolve(StreamKind("radio"), 1))
}

func TestParsePath(t *testing.T) {
	r := NewStreamResolver(testUpstream)

	kind, id, err := r.ParsePath("live", "42.ts")
	require.NoError(t, err)
	assert.Equal(t, StreamLive, kind)
	assert.Equal(t, 42, id)

	for _, tc := range [][2]string{
		{"live", "42.mp4"},
		{"movie", "abc.mp4"},
		{"movie", "-1.mp4"},
		{"radio", "1.ts"},
		{"series", "3"},
	} {
		_, _, err := r.ParsePath(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidStreamPath, "%s/%s", tc[0], tc[1])
	}
}

func TestUpstreamURL_Convention(t *testing.T) {
	r := NewStreamResolver(testUpstream)

	got, err := r.UpstreamURL(StreamMovie, "", "9001")
	require.NoError(t, err)
	assert.Equal(t, "http://provider.example:8080/movie/alice/s3cret/9001.mp4", got)

	got, err = r.UpstreamURL(StreamLive, "", "822101")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "/live/alice/s3cret/822101.ts"))
}

func TestUpstreamURL_Template(t *testing.T) {
	r := NewStreamResolver(testUpstream)

	got, err := r.UpstreamURL(StreamLive, "http://cdn.example/live/{username}/{password}/1.m3u8", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example/live/alice/s3cret/1.m3u8", got)
}

func TestUpstreamURL_Errors(t *testing.T) {
	_, err := NewStreamResolver(UpstreamConfig{}).UpstreamURL(StreamMovie, "", "1")
	assert.ErrorIs(t, err, ErrUpstreamNotConfigured)

	_, err = NewStreamResolver(testUpstream).UpstreamURL(StreamMovie, "", "")
	assert.ErrorIs(t, err, ErrMissingUpstreamRef)

	_, err = NewStreamResolver(testUpstream).UpstreamURL(StreamKind("radio"), "", "1")
	assert.ErrorIs(t, err, ErrInvalidStreamPath)
}
