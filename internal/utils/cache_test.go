package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldown(t *testing.T) {
	c := NewCooldown(50 * time.Millisecond)

	_, active := c.Active("movie:1")
	assert.False(t, active)

	c.Mark("movie:1")
	remaining, active := c.Active("movie:1")
	assert.True(t, active)
	assert.Greater(t, remaining, time.Duration(0))

	time.Sleep(80 * time.Millisecond)
	_, active = c.Active("movie:1")
	assert.False(t, active)
}

func TestTTLCache(t *testing.T) {
	c := NewTTLCache[string](2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	_, ok := c.Get("a")
	assert.False(t, ok, "最旧的条目应被淘汰")
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	c.Delete("c")
	assert.Equal(t, 1, c.Len())

	expired := NewTTLCache[int](4, -time.Second)
	expired.Set("x", 1)
	_, ok = expired.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, expired.Len())
}
