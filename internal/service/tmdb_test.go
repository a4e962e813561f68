package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moviesearch/internal/config"
)

const batmanPage = `{
	"page": 1,
	"results": [
		{"id": 1, "title": "Batman", "overview": "Dark knight", "poster_path": "/b.jpg",
		 "backdrop_path": null, "vote_average": 7.2, "release_date": "1989-06-23"}
	],
	"total_results": 50,
	"total_pages": 3
}`

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		TMDBToken:   "secret-token",
		TMDBBaseURL: baseURL,
		TMDBTimeout: 2 * time.Second,
	}
}

func TestNewTMDBServiceRequiresToken(t *testing.T) {
	_, err := NewTMDBService(&config.Config{TMDBBaseURL: "https://api.themoviedb.org/3"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingToken))

	_, err = NewTMDBService(nil)
	assert.True(t, errors.Is(err, config.ErrMissingToken))
}

func TestTMDBSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		assert.Equal(t, "batman", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(batmanPage))
	}))
	defer server.Close()

	svc, err := NewTMDBService(testConfig(server.URL + "/3/"))
	require.NoError(t, err)

	page, err := svc.Search(context.Background(), "batman", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)

	movie := page.Results[0]
	assert.Equal(t, 1, movie.ID)
	assert.Equal(t, "Batman", movie.Title)
	assert.True(t, movie.HasPoster())
	assert.False(t, movie.HasBackdrop())
	assert.Nil(t, movie.BackdropPath)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 50, page.TotalResults)
}

func TestTMDBSearchFailuresCollapse(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-success status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"page": "one"`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			svc, err := NewTMDBService(testConfig(server.URL))
			require.NoError(t, err)

			page, err := svc.Search(context.Background(), "batman", 1)
			assert.Nil(t, page)
			assert.Equal(t, ErrFetchMovies, err)
		})
	}
}

func TestTMDBSearchTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	svc, err := NewTMDBService(testConfig(url))
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "batman", 1)
	assert.Equal(t, ErrFetchMovies, err)
	assert.Equal(t, "failed to fetch movies", err.Error())
}

func TestTMDBSearchRejectsInvalidPage(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	svc, err := NewTMDBService(testConfig(server.URL))
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "batman", 0)
	assert.Equal(t, ErrFetchMovies, err)
	assert.False(t, called)
}
