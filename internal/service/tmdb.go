package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/user/moviesearch/internal/config"
	"github.com/user/moviesearch/internal/model"
	"github.com/user/moviesearch/internal/utils"
)

// ErrFetchMovies 所有网络/状态码/解析失败统一对外暴露的错误
var ErrFetchMovies = errors.New("failed to fetch movies")

// MovieSearcher 电影搜索客户端
type MovieSearcher interface {
	Search(ctx context.Context, query string, page int) (*model.SearchPage, error)
}

// TMDBService TMDB 搜索客户端
type TMDBService struct {
	baseURL *url.URL
	token   string
	client  *utils.HTTPClient
}

// NewTMDBService 创建 TMDB 客户端，凭证通过配置注入
func NewTMDBService(cfg *config.Config) (*TMDBService, error) {
	if cfg == nil || cfg.TMDBToken == "" {
		return nil, config.ErrMissingToken
	}
	base, err := url.Parse(strings.TrimRight(cfg.TMDBBaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb base url: %w", err)
	}
	return &TMDBService{
		baseURL: base,
		token:   cfg.TMDBToken,
		client:  utils.NewHTTPClient(cfg.TMDBTimeout),
	}, nil
}

// Search 调用 /search/movie，结果原样返回
func (s *TMDBService) Search(ctx context.Context, query string, page int) (*model.SearchPage, error) {
	if page < 1 {
		log.Printf("[TMDB] 非法页码: %d", page)
		return nil, ErrFetchMovies
	}

	result, err := s.search(ctx, query, page)
	if err != nil {
		log.Printf("[TMDB] 搜索失败 (query=%q, page=%d): %v", query, page, err)
		return nil, ErrFetchMovies
	}
	return result, nil
}

func (s *TMDBService) search(ctx context.Context, query string, page int) (*model.SearchPage, error) {
	endpoint := s.baseURL.JoinPath("search", "movie")
	q := endpoint.Query()
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)
	header.Set("Accept", "application/json")

	var result model.SearchPage
	if err := s.client.GetJSON(ctx, endpoint.String(), header, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
