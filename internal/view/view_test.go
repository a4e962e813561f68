package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moviesearch/internal/controller"
	"github.com/user/moviesearch/internal/model"
	"github.com/user/moviesearch/internal/service"
)

var images = TMDBImages{ProxyPath: "/api/poster"}

func strPtr(s string) *string { return &s }

func batmanResult(totalPages int) service.QueryResult {
	return service.QueryResult{
		Key:    model.QueryKey{Query: "batman", Page: 1},
		Status: service.StatusSuccess,
		Data: &model.SearchPage{
			Page: 1,
			Results: []model.Movie{
				{ID: 1, Title: "Batman", PosterPath: strPtr("/b.jpg")},
			},
			TotalPages:   totalPages,
			TotalResults: 50,
		},
		FetchID: 1,
	}
}

func labels(items []PageItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestBuildBatmanFirstPage(t *testing.T) {
	s := model.UIState{Query: "batman", Page: 1}
	p := Build(s, batmanResult(3), nil, images)

	assert.True(t, p.ShowGrid)
	require.Len(t, p.Tiles, 1)
	assert.Equal(t, "Batman", p.Tiles[0].Title)
	assert.Equal(t, "/api/poster?path=%2Fb.jpg&size=w500", p.Tiles[0].PosterURL)

	assert.True(t, p.ShowPagination)
	assert.Equal(t, 3, p.Pagination.PageCount)
	assert.Equal(t, 0, p.Pagination.ActiveIndex)
	assert.Equal(t, []string{"1", "2", "3"}, labels(p.Pagination.Items))
	assert.True(t, p.Pagination.Items[0].Active)

	assert.False(t, p.ShowLoader)
	assert.False(t, p.ShowError)
	assert.False(t, p.Polling)
	assert.Nil(t, p.Modal)
}

func TestBuildPaginationOnlyForMultiplePages(t *testing.T) {
	for _, total := range []int{0, 1, 2, 7} {
		s := model.UIState{Query: "batman", Page: 1}
		p := Build(s, batmanResult(total), nil, images)
		assert.Equal(t, total > 1, p.ShowPagination, "total_pages=%d", total)
	}
}

func TestBuildActiveIndexFollowsPage(t *testing.T) {
	for page := 1; page <= 12; page++ {
		s := model.UIState{Query: "batman", Page: page}
		p := Build(s, batmanResult(12), nil, images)
		assert.Equal(t, page-1, p.Pagination.ActiveIndex)
		for _, it := range p.Pagination.Items {
			if it.Active {
				assert.Equal(t, page-1, it.Index)
			}
		}
	}
}

func TestBuildEmptyResults(t *testing.T) {
	s := model.UIState{Query: "zzzzqqqq", Page: 1}
	r := service.QueryResult{
		Key:     s.Key(),
		Status:  service.StatusSuccess,
		Data:    &model.SearchPage{Page: 1, Results: []model.Movie{}},
		FetchID: 2,
	}
	effects := []controller.Effect{{Kind: controller.EffectInfo, Message: controller.MsgNoMovies}}

	p := Build(s, r, effects, images)
	assert.False(t, p.ShowGrid)
	assert.False(t, p.ShowPagination)
	assert.Empty(t, p.Tiles)
	require.Len(t, p.Toasts, 1)
	assert.Equal(t, "info", p.Toasts[0].Kind)
	assert.Equal(t, controller.MsgNoMovies, p.Toasts[0].Message)
}

func TestBuildError(t *testing.T) {
	s := model.UIState{Query: "batman", Page: 1}
	r := service.QueryResult{Key: s.Key(), Status: service.StatusError, Err: service.ErrFetchMovies}

	p := Build(s, r, nil, images)
	assert.True(t, p.ShowError)
	assert.Equal(t, "Failed to fetch movies.", p.ErrorMessage)
	assert.False(t, p.ShowGrid)
	assert.False(t, p.ShowPagination)
	assert.False(t, p.ShowLoader)
}

func TestBuildLoader(t *testing.T) {
	pending := service.QueryResult{Status: service.StatusPending}

	p := Build(model.UIState{Query: "batman", Page: 1}, pending, nil, images)
	assert.True(t, p.ShowLoader)
	assert.True(t, p.Polling)

	p = Build(model.NewUIState(), pending, nil, images)
	assert.False(t, p.ShowLoader, "no loader for an empty query")
	assert.False(t, p.Polling)
}

func TestBuildPlaceholderKeepsGrid(t *testing.T) {
	r := batmanResult(3)
	r.IsPlaceholder = true
	r.IsFetching = true

	p := Build(model.UIState{Query: "batman", Page: 2}, r, nil, images)
	assert.True(t, p.ShowGrid)
	assert.False(t, p.ShowLoader)
	assert.True(t, p.Polling)
	assert.Equal(t, 1, p.Pagination.ActiveIndex)
}

func TestBuildModal(t *testing.T) {
	m := model.Movie{
		ID: 1, Title: "Batman", Overview: "Dark knight",
		BackdropPath: strPtr("/bd.jpg"), VoteAverage: 7.3, ReleaseDate: "1989-06-23",
	}
	s := model.UIState{Query: "batman", Page: 1, Selected: &m}

	p := Build(s, batmanResult(3), nil, images)
	require.NotNil(t, p.Modal)
	assert.Equal(t, "Batman", p.Modal.Title)
	assert.Equal(t, "Dark knight", p.Modal.Overview)
	assert.Equal(t, "1989-06-23", p.Modal.ReleaseDate)
	assert.Equal(t, "7.3/10", p.Modal.Rating)
	assert.Equal(t, "/api/poster?path=%2Fbd.jpg&size=original", p.Modal.BackdropURL)

	m.BackdropPath = nil
	p = Build(s, batmanResult(3), nil, images)
	assert.Empty(t, p.Modal.BackdropURL)
}

func TestBuildPaginationWindow(t *testing.T) {
	tests := []struct {
		selected int
		want     []string
	}{
		{0, []string{"1", "2", "3", "4", "5", "...", "10"}},
		{1, []string{"1", "2", "3", "4", "5", "6", "...", "10"}},
		{5, []string{"1", "...", "4", "5", "6", "7", "8", "...", "10"}},
		{6, []string{"1", "...", "5", "6", "7", "8", "9", "10"}},
		{7, []string{"1", "...", "6", "7", "8", "9", "10"}},
		{9, []string{"1", "...", "6", "7", "8", "9", "10"}},
	}

	for _, tt := range tests {
		pg := BuildPagination(10, tt.selected)
		assert.Equal(t, tt.want, labels(pg.Items), "selected=%d", tt.selected)
		assert.Equal(t, tt.selected > 0, pg.HasPrev)
		assert.Equal(t, tt.selected < 9, pg.HasNext)
	}
}

func TestBuildPaginationCentersFivePages(t *testing.T) {
	pg := BuildPagination(20, 10)
	assert.Equal(t, []string{"1", "...", "9", "10", "11", "12", "13", "...", "20"}, labels(pg.Items))
	assert.Equal(t, "11", pg.Items[4].Label)
	assert.True(t, pg.Items[4].Active)
}

func TestBuildPollsWhileRefreshingStaleData(t *testing.T) {
	r := batmanResult(3)
	r.IsFetching = true

	p := Build(model.UIState{Query: "batman", Page: 1}, r, nil, images)
	assert.True(t, p.ShowGrid, "stale data stays on screen")
	assert.False(t, p.ShowLoader)
	assert.True(t, p.Polling)

	r.IsFetching = false
	p = Build(model.UIState{Query: "batman", Page: 1}, r, nil, images)
	assert.False(t, p.Polling)
}
