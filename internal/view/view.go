package view

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/user/moviesearch/internal/controller"
	"github.com/user/moviesearch/internal/model"
	"github.com/user/moviesearch/internal/service"
)

const (
	pageRangeDisplayed   = 5
	marginPagesDisplayed = 1
)

// Toast 页面顶部提示
type Toast struct {
	Kind    string
	Message string
}

// PageItem 分页控件中的一项，Break 为省略号
type PageItem struct {
	Index  int // 从 0 开始
	Label  string
	Active bool
	Break  bool
}

// Pagination 分页控件
type Pagination struct {
	PageCount   int
	ActiveIndex int
	Items       []PageItem
	HasPrev     bool
	HasNext     bool
	PrevIndex   int
	NextIndex   int
}

// Tile 结果网格中的一张卡片
type Tile struct {
	ID        int
	Title     string
	PosterURL string
}

// Detail 详情弹窗
type Detail struct {
	ID          int
	Title       string
	Overview    string
	ReleaseDate string
	Rating      string
	BackdropURL string
}

// Page 渲染所需的全部数据
type Page struct {
	Query string

	ShowLoader     bool
	ShowError      bool
	ErrorMessage   string
	ShowGrid       bool
	ShowPagination bool
	// Polling 结果还没到（或正在刷新），片段需要继续轮询
	Polling bool

	Tiles      []Tile
	Pagination Pagination
	Modal      *Detail
	Toasts     []Toast
}

// Images 海报地址生成
type Images interface {
	PosterURL(path string) string
	BackdropURL(path string) string
}

// Build 由界面状态和查询结果推导出展示数据，不含任何业务逻辑
func Build(s model.UIState, r service.QueryResult, effects []controller.Effect, images Images) Page {
	p := Page{Query: s.Query}

	enabled := controller.Enabled(s)
	p.ShowLoader = r.IsPending() && enabled
	p.Polling = enabled && (r.IsPending() || r.IsPlaceholder || r.IsFetching)

	if r.IsError() {
		p.ShowError = true
		p.ErrorMessage = controller.MsgFetchError
	}

	if r.IsSuccess() && r.Data != nil && len(r.Data.Results) > 0 {
		p.ShowGrid = true
		p.Tiles = make([]Tile, 0, len(r.Data.Results))
		for _, m := range r.Data.Results {
			tile := Tile{ID: m.ID, Title: m.Title}
			if m.HasPoster() {
				tile.PosterURL = images.PosterURL(*m.PosterPath)
			}
			p.Tiles = append(p.Tiles, tile)
		}

		if r.Data.TotalPages > 1 {
			p.ShowPagination = true
			p.Pagination = BuildPagination(r.Data.TotalPages, s.Page-1)
		}
	}

	if s.Selected != nil {
		p.Modal = buildDetail(*s.Selected, images)
	}

	for _, e := range effects {
		p.Toasts = append(p.Toasts, Toast{Kind: string(e.Kind), Message: e.Message})
	}
	return p
}

func buildDetail(m model.Movie, images Images) *Detail {
	d := &Detail{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		Rating:      fmt.Sprintf("%.1f/10", m.VoteAverage),
	}
	if m.HasBackdrop() {
		d.BackdropURL = images.BackdropURL(*m.BackdropPath)
	}
	return d
}

// BuildPagination 与 react-paginate 相同的窗口规则：中间 5 页，两端各 1 页，其余折叠
func BuildPagination(pageCount, selected int) Pagination {
	if selected < 0 {
		selected = 0
	}
	pg := Pagination{
		PageCount:   pageCount,
		ActiveIndex: selected,
		HasPrev:     selected > 0,
		HasNext:     selected < pageCount-1,
		PrevIndex:   selected - 1,
		NextIndex:   selected + 1,
	}

	item := func(i int) PageItem {
		return PageItem{Index: i, Label: fmt.Sprint(i + 1), Active: i == selected}
	}

	if pageCount <= pageRangeDisplayed {
		for i := 0; i < pageCount; i++ {
			pg.Items = append(pg.Items, item(i))
		}
		return pg
	}

	// 窗口两侧各 pageRangeDisplayed/2 页，允许半页，与 react-paginate 的浮点比较一致
	half := float64(pageRangeDisplayed) / 2
	left, right := half, float64(pageRangeDisplayed)-half
	if float64(selected) > float64(pageCount)-half {
		right = float64(pageCount - selected)
		left = float64(pageRangeDisplayed) - right
	} else if float64(selected) < half {
		left = float64(selected)
		right = float64(pageRangeDisplayed) - left
	}
	if selected == 0 && pageRangeDisplayed > 1 {
		right--
	}

	for i := 0; i < pageCount; i++ {
		inMargin := i < marginPagesDisplayed || i >= pageCount-marginPagesDisplayed
		inWindow := float64(i) >= float64(selected)-left && float64(i) <= float64(selected)+right
		if inMargin || inWindow {
			pg.Items = append(pg.Items, item(i))
			continue
		}
		if n := len(pg.Items); n > 0 && !pg.Items[n-1].Break {
			pg.Items = append(pg.Items, PageItem{Index: i, Label: "...", Break: true})
		}
	}
	return pg
}

// TMDBImages 通过本站代理访问 TMDB 图片
type TMDBImages struct {
	ProxyPath string
}

func (i TMDBImages) PosterURL(path string) string {
	return i.url(path, "w500")
}

func (i TMDBImages) BackdropURL(path string) string {
	return i.url(path, "original")
}

func (i TMDBImages) url(path, size string) string {
	q := url.Values{}
	q.Set("path", "/"+strings.TrimLeft(path, "/"))
	q.Set("size", size)
	return i.ProxyPath + "?" + q.Encode()
}
