package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cooldown 记录暂时不可访问的 key，到期自动解除
type Cooldown struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewCooldown 创建冷却表
func NewCooldown(ttl time.Duration) *Cooldown {
	return &Cooldown{c: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Mark 标记 key 进入冷却
func (c *Cooldown) Mark(key string) {
	c.c.Set(key, time.Now().Add(c.ttl), cache.DefaultExpiration)
}

// Active 是否仍在冷却，返回剩余时间
func (c *Cooldown) Active(key string) (time.Duration, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return 0, false
	}
	until, _ := v.(time.Time)
	remaining := time.Until(until)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// TTLCache 带过期时间的 LRU 缓存
type TTLCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewTTLCache size 是最大缓存条数，ttl 是数据有效期
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	// lru.New 是线程安全的，只在 size <= 0 时报错
	c, _ := lru.New[string, CacheItem[T]](size)
	return &TTLCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入或覆盖
func (c *TTLCache[T]) Set(key string, value T) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	})
}

// Get 读取，过期的条目顺便删除
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

func (c *TTLCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

func (c *TTLCache[T]) Len() int {
	return c.storage.Len()
}
