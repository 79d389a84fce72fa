package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// HashIP 对 IP 地址进行哈希处理，避免明文 IP 作为缓存键
func HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}

// AttemptLimiter 基于 go-cache 的失败次数计数器，窗口内超过上限即拒绝
type AttemptLimiter struct {
	store  *cache.Cache
	max    int
	window time.Duration
}

// NewAttemptLimiter 创建计数器，max <= 0 表示不限流
func NewAttemptLimiter(max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		store:  cache.New(window, 2*window),
		max:    max,
		window: window,
	}
}

// Blocked 是否已达到上限
func (l *AttemptLimiter) Blocked(key string) bool {
	if l.max <= 0 {
		return false
	}
	v, ok := l.store.Get(key)
	if !ok {
		return false
	}
	return v.(int) >= l.max
}

// Fail 记录一次失败，窗口从第一次失败开始计算
func (l *AttemptLimiter) Fail(key string) {
	if l.max <= 0 {
		return
	}
	if err := l.store.Add(key, 1, l.window); err == nil {
		return
	}
	// 已存在则自增，保留原过期时间
	_ = l.store.Increment(key, 1)
}

// Reset 登录成功后清零
func (l *AttemptLimiter) Reset(key string) {
	l.store.Delete(key)
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// TTLCache 带单条过期时间的 LRU 缓存
type TTLCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
}

// NewTTLCache size 是最大缓存条数
func NewTTLCache[T any](size int) *TTLCache[T] {
	// lru.New 是线程安全的，只有 size <= 0 时才会返回错误
	c, _ := lru.New[string, CacheItem[T]](size)
	return &TTLCache[T]{storage: c}
}

// Set 写入并指定过期时刻
func (c *TTLCache[T]) Set(key string, value T, expiredAt time.Time) {
	c.storage.Add(key, CacheItem[T]{Value: value, ExpiredAt: expiredAt})
}

// Get 读取（带过期检查）
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

// Len 当前条数
func (c *TTLCache[T]) Len() int {
	return c.storage.Len()
}

// PurgeExpired 清理已过期的条目，返回清理数量
func (c *TTLCache[T]) PurgeExpired(now time.Time) int {
	removed := 0
	for _, key := range c.storage.Keys() {
		item, ok := c.storage.Peek(key)
		if ok && now.After(item.ExpiredAt) {
			c.storage.Remove(key)
			removed++
		}
	}
	return removed
}
