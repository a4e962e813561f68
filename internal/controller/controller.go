// Package controller 界面状态机：query、page、selected 三个状态及其转换
package controller

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/user/moviesearch/internal/model"
	"github.com/user/moviesearch/internal/service"
)

var (
	// ErrEmptyQuery 提交了空查询（校验错误，状态不变）
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrMovieNotDelivered 选中的电影不在当前已展示的结果中
	ErrMovieNotDelivered = errors.New("movie not found in current results")
)

const (
	MsgEmptyQuery = "Please enter your search query."
	MsgNoMovies   = "No movies found for your search query."
	MsgFetchError = "Failed to fetch movies."
)

// EffectKind 副作用类型
type EffectKind string

const (
	EffectWarning EffectKind = "warning"
	EffectInfo    EffectKind = "info"
)

// Effect 状态转换产生的提示
type Effect struct {
	Kind    EffectKind
	Message string
}

// SubmitSearch 提交搜索：空查询只给出警告；否则重置到第 1 页并清除选中
func SubmitSearch(s model.UIState, q string) (model.UIState, []Effect) {
	if strings.TrimSpace(q) == "" {
		return s, []Effect{{Kind: EffectWarning, Message: MsgEmptyQuery}}
	}
	s.Query = q
	s.Page = 1
	s.Selected = nil
	s.SelectedFrom = model.QueryKey{}
	return s, nil
}

// SelectMovie 打开详情
func SelectMovie(s model.UIState, m model.Movie) (model.UIState, []Effect) {
	s.Selected = &m
	return s, nil
}

// CloseDetail 关闭详情
func CloseDetail(s model.UIState) (model.UIState, []Effect) {
	s.Selected = nil
	s.SelectedFrom = model.QueryKey{}
	return s, nil
}

// ChangePage 翻页，n 从 1 开始；不校验 total_pages
func ChangePage(s model.UIState, n int) (model.UIState, []Effect) {
	if n < 1 {
		n = 1
	}
	s.Page = n
	return s, nil
}

// PageFromIndex 分页控件的下标从 0 开始
func PageFromIndex(selected int) int {
	return selected + 1
}

// Enabled 只有查询词非空时才请求
func Enabled(s model.UIState) bool {
	return s.Key().Enabled()
}

// ObserveResult 处理一次查询结果：记录最近展示的 key，
// 每个成功的空结果只提示一次 "无结果"
func ObserveResult(s model.UIState, r service.QueryResult) (model.UIState, []Effect) {
	if !r.IsSuccess() || r.IsPlaceholder || r.Data == nil {
		return s, nil
	}

	s.LastKey = r.Key
	if len(r.Data.Results) > 0 || r.FetchID == s.NotifiedFetchID {
		return s, nil
	}
	s.NotifiedFetchID = r.FetchID
	return s, []Effect{{Kind: EffectInfo, Message: MsgNoMovies}}
}

// Controller 把状态转换和查询缓存组合起来供 handler 使用
type Controller struct {
	cache *service.QueryCache
}

// New 创建 Controller
func New(cache *service.QueryCache) *Controller {
	return &Controller{cache: cache}
}

// Submit 提交搜索；失败的旧结果会被清掉以便重新请求
func (c *Controller) Submit(s model.UIState, q string) (model.UIState, []Effect, error) {
	next, effects := SubmitSearch(s, q)
	if len(effects) > 0 {
		return s, effects, ErrEmptyQuery
	}
	c.cache.ResetError(next.Key())
	return next, nil, nil
}

// Current 观察当前 key 的结果并应用到状态上
func (c *Controller) Current(s model.UIState) (model.UIState, service.QueryResult, []Effect) {
	result := c.cache.Observe(s.Key(), s.LastKey)
	next, effects := ObserveResult(s, result)
	return next, result, effects
}

// SelectMovieByID 只能选中当前 key 已返回的电影
func (c *Controller) SelectMovieByID(s model.UIState, id int) (model.UIState, error) {
	result := c.cache.Observe(s.Key(), s.LastKey)
	if !result.IsSuccess() {
		return s, ErrMovieNotDelivered
	}
	movie, ok := result.Data.FindMovie(id)
	if !ok {
		return s, ErrMovieNotDelivered
	}
	next, _ := SelectMovie(s, movie)
	next.SelectedFrom = s.Key()
	if result.IsPlaceholder {
		next.SelectedFrom = s.LastKey
	}
	return next, nil
}

// Restore 从 Session 还原界面状态；选中的电影从缓存的结果页中找回，
// 结果页已不在缓存中时取消选中
func (c *Controller) Restore(ss model.SessionState) model.UIState {
	s := model.UIState{
		Query:           ss.Query,
		Page:            ss.Page,
		LastKey:         ss.LastKey,
		NotifiedFetchID: ss.NotifiedFetchID,
	}
	if s.Page < 1 {
		s.Page = 1
	}
	if ss.SelectedID == 0 {
		return s
	}

	if data, ok := c.cache.Peek(ss.SelectedFrom); ok {
		if movie, ok := data.FindMovie(ss.SelectedID); ok {
			s.Selected = &movie
			s.SelectedFrom = ss.SelectedFrom
			return s
		}
	}
	log.Printf("[Controller] 选中的电影 %d 已不在缓存中 (%s)，取消选中", ss.SelectedID, ss.SelectedFrom)
	return s
}

// Load 同步查询，供 JSON API 使用
func (c *Controller) Load(ctx context.Context, key model.QueryKey) (service.QueryResult, error) {
	return c.cache.Load(ctx, key)
}
