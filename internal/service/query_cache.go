package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/moviesearch/internal/model"
	"github.com/user/moviesearch/internal/utils"
	"golang.org/x/sync/singleflight"
)

// ErrQueryDisabled 查询词为空时不发请求
var ErrQueryDisabled = errors.New("query is empty")

// QueryStatus 查询状态
type QueryStatus string

const (
	StatusPending QueryStatus = "pending"
	StatusSuccess QueryStatus = "success"
	StatusError   QueryStatus = "error"
)

// QueryResult 某个 key 当前可展示的结果
type QueryResult struct {
	Key       model.QueryKey
	Status    QueryStatus
	Data      *model.SearchPage
	Err       error
	FetchID   uint64 // 每次完成的请求唯一
	UpdatedAt time.Time

	// IsFetching 后台仍有请求在进行（包括过期数据的刷新）
	IsFetching bool
	// IsPlaceholder Data 来自上一个 key，当前 key 的请求尚未完成
	IsPlaceholder bool
}

func (r QueryResult) IsPending() bool { return r.Status == StatusPending }
func (r QueryResult) IsSuccess() bool { return r.Status == StatusSuccess }
func (r QueryResult) IsError() bool   { return r.Status == StatusError }

// CacheStats 缓存统计
type CacheStats struct {
	Entries  int   `json:"entries"`
	InFlight int   `json:"in_flight"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Fetches  int64 `json:"fetches"`
}

type cacheEntry struct {
	Data      *model.SearchPage
	Err       error
	FetchID   uint64
	UpdatedAt time.Time
}

// QueryCache 以 (query, page) 为 key 的 stale-while-revalidate 缓存
type QueryCache struct {
	searcher MovieSearcher
	timeout  time.Duration

	mu      sync.Mutex
	entries *utils.SearchCache[cacheEntry]
	// inflight 记录每个 key 当前请求的代号，只有代号匹配的响应才能写入
	inflight map[string]uint64
	gen      uint64
	seq      uint64

	// singleflight 合并同一个 key 的上游请求，Load 通过 DoChan 等待同一个请求
	group singleflight.Group
	wg    sync.WaitGroup

	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
}

// NewQueryCache 创建查询缓存
func NewQueryCache(searcher MovieSearcher, size int, ttl, timeout time.Duration) *QueryCache {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QueryCache{
		searcher: searcher,
		timeout:  timeout,
		entries:  utils.NewSearchCache[cacheEntry](size, ttl),
		inflight: make(map[string]uint64),
	}
}

// Observe 返回 key 当前状态，必要时在后台发起请求。
// placeholder 为上一次展示数据的 key，当前 key 没有数据时用它的数据占位。
func (c *QueryCache) Observe(key, placeholder model.QueryKey) QueryResult {
	if !key.Enabled() {
		return QueryResult{Key: key, Status: StatusPending}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, fetching := c.inflight[key.String()]

	if entry, expired, ok := c.entries.GetWithExpiry(key.String()); ok {
		c.hits.Add(1)
		// 失败结果不会自动重试，只有 ResetError 之后才会重新请求
		if expired && !fetching && entry.Err == nil {
			c.startLocked(key)
			fetching = true
		}
		result := entry.result(key)
		result.IsFetching = fetching
		return result
	}

	c.misses.Add(1)
	if !fetching {
		c.startLocked(key)
	}

	result := QueryResult{Key: key, Status: StatusPending, IsFetching: true}
	if placeholder != key && placeholder.Enabled() {
		if prev, _, ok := c.entries.GetWithExpiry(placeholder.String()); ok && prev.Err == nil && prev.Data != nil {
			result.Status = StatusSuccess
			result.Data = prev.Data
			result.FetchID = prev.FetchID
			result.UpdatedAt = prev.UpdatedAt
			result.IsPlaceholder = true
		}
	}
	return result
}

// Load 同步获取 key 的结果：新鲜缓存直接返回，否则加入（或发起）请求并等待
func (c *QueryCache) Load(ctx context.Context, key model.QueryKey) (QueryResult, error) {
	if !key.Enabled() {
		return QueryResult{Key: key, Status: StatusPending}, ErrQueryDisabled
	}

	k := key.String()
	c.mu.Lock()
	if entry, expired, ok := c.entries.GetWithExpiry(k); ok && !expired && entry.Err == nil {
		c.mu.Unlock()
		c.hits.Add(1)
		return entry.result(key), nil
	}
	c.misses.Add(1)
	gen, ok := c.inflight[k]
	if !ok {
		gen = c.startLocked(key)
	}
	// 请求写入缓存前需要 c.mu，所以这里共享的是仍在进行的同一个请求
	ch := c.group.DoChan(k, c.fetchFunc(key, gen))
	c.mu.Unlock()

	select {
	case res := <-ch:
		entry, _ := res.Val.(cacheEntry)
		if res.Err != nil {
			entry.Err = res.Err
		}
		return entry.result(key), entry.Err
	case <-ctx.Done():
		return QueryResult{Key: key, Status: StatusPending, IsFetching: true}, ctx.Err()
	}
}

// ResetError 丢弃 key 的失败结果，下次 Observe 会重新请求
func (c *QueryCache) ResetError(key model.QueryKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, _, ok := c.entries.GetWithExpiry(key.String()); ok && entry.Err != nil {
		c.entries.Delete(key.String())
	}
}

// Peek 读取 key 已缓存的成功数据（包括过期数据），不发起请求
func (c *QueryCache) Peek(key model.QueryKey) (*model.SearchPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, _, ok := c.entries.GetWithExpiry(key.String())
	if !ok || entry.Err != nil || entry.Data == nil {
		return nil, false
	}
	return entry.Data, true
}

// Invalidate 删除 key，正在进行的请求结果会被丢弃
func (c *QueryCache) Invalidate(key model.QueryKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	c.entries.Delete(k)
	delete(c.inflight, k)
	c.group.Forget(k)
}

// Clear 清空缓存
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Clear()
	for k := range c.inflight {
		c.group.Forget(k)
	}
	c.inflight = make(map[string]uint64)
}

// Stats 统计信息
func (c *QueryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Entries:  c.entries.Len(),
		InFlight: len(c.inflight),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
	}
}

// Wait 等待所有后台请求结束
func (c *QueryCache) Wait() {
	c.wg.Wait()
}

// startLocked 发起后台请求并返回它的代号，调用方需持有 c.mu
func (c *QueryCache) startLocked(key model.QueryKey) uint64 {
	k := key.String()
	c.gen++
	gen := c.gen
	c.inflight[k] = gen

	ch := c.group.DoChan(k, c.fetchFunc(key, gen))
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-ch

		// 共享了一个更早的请求时，该请求不会清理这里的代号
		c.mu.Lock()
		if c.inflight[k] == gen {
			delete(c.inflight, k)
		}
		c.mu.Unlock()
	}()
	return gen
}

// fetchFunc 请求上游并写入缓存，所有等待者拿到同一个条目
func (c *QueryCache) fetchFunc(key model.QueryKey, gen uint64) func() (interface{}, error) {
	return func() (interface{}, error) {
		c.fetches.Add(1)

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		data, err := c.searcher.Search(ctx, key.Query, key.Page)

		k := key.String()
		c.mu.Lock()
		defer c.mu.Unlock()

		c.seq++
		entry := cacheEntry{
			Data:      data,
			Err:       err,
			FetchID:   c.seq,
			UpdatedAt: time.Now(),
		}
		if err != nil {
			entry.Data = nil
		}

		// 只有仍是该 key 最新的请求才允许写入，被取代的响应直接丢弃
		if c.inflight[k] != gen {
			log.Printf("[QueryCache] 丢弃过期响应: %s", k)
			return entry, nil
		}
		delete(c.inflight, k)
		c.entries.Set(k, entry)
		return entry, nil
	}
}

func (e cacheEntry) result(key model.QueryKey) QueryResult {
	r := QueryResult{
		Key:       key,
		Status:    StatusSuccess,
		Data:      e.Data,
		Err:       e.Err,
		FetchID:   e.FetchID,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Err != nil {
		r.Status = StatusError
		r.Data = nil
	}
	return r
}
