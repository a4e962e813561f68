package model

// Movie TMDB 搜索结果中的电影
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`   // null 表示无海报
	BackdropPath *string `json:"backdrop_path"` // null 表示无背景图
	VoteAverage  float64 `json:"vote_average"`
	ReleaseDate  string  `json:"release_date"`
}

// HasPoster 是否有海报
func (m Movie) HasPoster() bool {
	return m.PosterPath != nil && *m.PosterPath != ""
}

// HasBackdrop 是否有背景图
func (m Movie) HasBackdrop() bool {
	return m.BackdropPath != nil && *m.BackdropPath != ""
}

// SearchPage 一页搜索结果，按上游返回的相关度排序
type SearchPage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalResults int     `json:"total_results"`
	TotalPages   int     `json:"total_pages"`
}

// FindMovie 在当前页中按 ID 查找
func (p *SearchPage) FindMovie(id int) (Movie, bool) {
	if p == nil {
		return Movie{}, false
	}
	for _, m := range p.Results {
		if m.ID == id {
			return m, true
		}
	}
	return Movie{}, false
}
