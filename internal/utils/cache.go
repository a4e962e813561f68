package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例（海报代理等小对象）
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache() {
	// 默认过期时间5分钟，清理间隔10分钟
	Cache = cache.New(5*time.Minute, 10*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	if Cache == nil {
		return nil, false
	}
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	if Cache == nil {
		return
	}
	Cache.Set(key, value, duration)
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// SearchCache 搜索结果缓存封装
type SearchCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
	now     func() time.Time
}

// NewSearchCache 初始化，size 是最大缓存条数（如 1000），ttl 是数据有效期（如 1小时）
func NewSearchCache[T any](size int, ttl time.Duration) *SearchCache[T] {
	if size <= 0 {
		size = 1
	}
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &SearchCache[T]{
		storage: c,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set 写入（LRU 中 Add 会自动处理 Update）
func (c *SearchCache[T]) Set(key string, value T) {
	item := CacheItem[T]{
		Value:     value,
		ExpiredAt: c.now().Add(c.ttl),
	}
	c.storage.Add(key, item)
}

// Get 读取，过期即删除
func (c *SearchCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if c.now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

// GetWithExpiry 读取并返回是否过期，过期数据不删除，用于"先返回旧数据"策略
func (c *SearchCache[T]) GetWithExpiry(key string) (value T, expired bool, ok bool) {
	item, ok := c.storage.Get(key)
	if !ok {
		return value, false, false
	}
	return item.Value, c.now().After(item.ExpiredAt), true
}

// Delete 删除
func (c *SearchCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Clear 清空
func (c *SearchCache[T]) Clear() {
	c.storage.Purge()
}

// Len 当前条数
func (c *SearchCache[T]) Len() int {
	return c.storage.Len()
}
