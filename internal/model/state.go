package model

import (
	"fmt"
	"strings"
)

// QueryKey 查询缓存键 (query, page)
type QueryKey struct {
	Query string
	Page  int
}

// String 确定性的缓存键
func (k QueryKey) String() string {
	return fmt.Sprintf("movies|%s|%d", k.Query, k.Page)
}

// Enabled 查询词去空白后非空才发请求
func (k QueryKey) Enabled() bool {
	return strings.TrimSpace(k.Query) != ""
}

// UIState 界面状态，以 SessionState 的形式存放在 Session 中
type UIState struct {
	Query    string
	Page     int
	Selected *Movie
	// SelectedFrom 选中电影所在结果页的键
	SelectedFrom QueryKey

	// LastKey 最近一次成功展示数据的键，用作翻页时的占位数据
	LastKey QueryKey
	// NotifiedFetchID 已提示过 "无结果" 的 fetch，避免重复提示
	NotifiedFetchID uint64
}

// NewUIState 初始状态：空查询、第 1 页、无选中
func NewUIState() UIState {
	return UIState{Page: 1}
}

// Key 由 query 和 page 派生的查询键
func (s UIState) Key() QueryKey {
	return QueryKey{Query: s.Query, Page: s.Page}
}

// SessionState 写入 Cookie 的状态。Cookie 有 4KB 上限，选中的电影只保存 ID，
// 读取时再从查询缓存中还原
type SessionState struct {
	Query           string
	Page            int
	SelectedID      int
	SelectedFrom    QueryKey
	LastKey         QueryKey
	NotifiedFetchID uint64
}

// Session 转换为写入 Cookie 的状态
func (s UIState) Session() SessionState {
	ss := SessionState{
		Query:           s.Query,
		Page:            s.Page,
		LastKey:         s.LastKey,
		NotifiedFetchID: s.NotifiedFetchID,
	}
	if s.Selected != nil {
		ss.SelectedID = s.Selected.ID
		ss.SelectedFrom = s.SelectedFrom
	}
	return ss
}
