package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(&config.TMDBConfig{
		APIKey:             "test-key",
		BaseURL:            server.URL,
		MinRequestInterval: "1ms",
		Timeout:            "2s",
	}, nil, logger.Nop())
	require.NoError(t, err)
	return client, &hits
}

func TestNewClient_InvalidDurations(t *testing.T) {
	_, err := NewClient(&config.TMDBConfig{Timeout: "soon"}, nil, logger.Nop())
	assert.Error(t, err)

	_, err = NewClient(&config.TMDBConfig{MinRequestInterval: "-5ms"}, nil, logger.Nop())
	assert.Error(t, err)

	c, err := NewClient(nil, nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 5*time.Minute, c.cacheTTL)
}

func TestClient_SearchMovies_SendsParamsAndCaches(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Inception", r.URL.Query().Get("query"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		w.Write([]byte(`{"page":1,"results":[{"id":27205,"title":"Inception","vote_average":8.4,"genre_ids":[28,878]}]}`))
	})

	ctx := context.Background()
	page, err := client.SearchMovies(ctx, "Inception", 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 27205, page.Results[0].ID)

	again, err := client.SearchMovies(ctx, "Inception", 1)
	require.NoError(t, err)
	assert.Equal(t, page.Results[0].Title, again.Results[0].Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestClient_Discover_MinRatingAddsVoteCount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/discover/movie", r.URL.Path)
		assert.Equal(t, "28", q.Get("with_genres"))
		assert.Equal(t, "2010", q.Get("primary_release_year"))
		assert.Equal(t, "7", q.Get("vote_average.gte"))
		assert.Equal(t, "100", q.Get("vote_count.gte"))
		assert.Equal(t, "vote_average.desc", q.Get("sort_by"))
		w.Write([]byte(`{"results":[]}`))
	})

	_, err := client.Discover(context.Background(), DiscoverParams{
		GenreID: 28, Year: 2010, MinRating: 7, SortBy: "vote_average.desc",
	})
	require.NoError(t, err)
}

func TestClient_Discover_DefaultsWithoutFilters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "popularity.desc", q.Get("sort_by"))
		assert.Empty(t, q.Get("vote_count.gte"))
		assert.Empty(t, q.Get("with_genres"))
		w.Write([]byte(`{"results":[]}`))
	})

	_, err := client.Discover(context.Background(), DiscoverParams{})
	require.NoError(t, err)
}

func TestClient_SearchByActor_SortsByPopularity(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/person":
			w.Write([]byte(`{"results":[{"id":6193,"name":"Leonardo DiCaprio"}]}`))
		case "/person/6193/movie_credits":
			w.Write([]byte(`{"id":6193,"cast":[
				{"id":1,"title":"Low","popularity":1.5},
				{"id":2,"title":"High","popularity":90},
				{"id":3,"title":"Mid","popularity":40}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	movies, err := client.SearchByActor(context.Background(), "Leonardo DiCaprio", 2)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "High", movies[0].Title)
	assert.Equal(t, "Mid", movies[1].Title)
}

func TestClient_SearchByActor_UnknownPerson(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	movies, err := client.SearchByActor(context.Background(), "Nobody", 20)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestClient_Genres_LookupAndFormat(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genre/movie/list", r.URL.Path)
		w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`))
	})

	ctx := context.Background()
	id, ok := client.GenreID(ctx, "science fiction")
	require.True(t, ok)
	assert.Equal(t, 878, id)

	name, ok := client.GenreName(ctx, 28)
	require.True(t, ok)
	assert.Equal(t, "Action", name)

	_, ok = client.GenreID(ctx, "Western")
	assert.False(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	m := client.FormatMovie(MovieResult{ID: 27205, Title: "Inception", GenreIDs: []int{28, 878}})
	assert.Equal(t, "Action,Science Fiction", m.Genres)

	detail := client.FormatMovie(MovieResult{ID: 155, Title: "The Dark Knight", Genres: []Genre{{ID: 80, Name: "Crime"}}, Runtime: 152})
	assert.Equal(t, "Crime", detail.Genres)
	assert.Equal(t, 152, detail.Runtime)
}

func TestClient_Trending_WindowFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trending/movie/week", r.URL.Path)
		w.Write([]byte(`{"results":[{"id":1,"title":"A"}]}`))
	})

	page, err := client.Trending(context.Background(), "month")
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)
}

func TestClient_Failures_WrapUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/movie/1" {
			w.Write([]byte(`{not json`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := context.Background()
	_, err := client.Popular(ctx, 1)
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = client.MovieDetails(ctx, 1)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestClient_CircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		_, err := client.TopRated(ctx, i)
		require.Error(t, err)
	}
	assert.Equal(t, int32(10), atomic.LoadInt32(hits))

	_, err := client.TopRated(ctx, 11)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(10), atomic.LoadInt32(hits))
}

func TestClient_NotFoundKeepsBreakerClosed(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		_, err := client.MovieDetails(ctx, i)
		require.ErrorIs(t, err, ErrNotFound)
		assert.False(t, errors.Is(err, ErrUnavailable))
	}
	assert.Equal(t, int32(12), atomic.LoadInt32(hits))
	assert.Equal(t, "closed", client.BreakerState())
}

func TestClient_ContextCancelled(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Upcoming(ctx, 1)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	cache.Set(ctx, "k", []byte("v"), time.Minute)

	v, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(time.Minute)
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}

func TestMemoryCache_SetSweepsExpiredEntries(t *testing.T) {
	cache := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	cache.lastSweep = now

	ctx := context.Background()
	for i := 0; i < 10000; i++ {
		cache.Set(ctx, fmt.Sprintf("query-%d", i), []byte("v"), time.Minute)
	}
	assert.Equal(t, 10000, cache.Len())

	now = now.Add(time.Hour)
	cache.Set(ctx, "fresh", []byte("v"), 10*time.Minute)
	assert.Equal(t, 1, cache.Len())

	// growth past the threshold sweeps without waiting for the interval
	for i := 0; i < memorySweepSize-2; i++ {
		cache.Set(ctx, fmt.Sprintf("short-%d", i), []byte("v"), time.Second)
	}
	now = now.Add(2 * time.Second)
	cache.Set(ctx, "trigger", []byte("v"), 10*time.Minute)
	assert.Equal(t, 2, cache.Len())

	_, ok := cache.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestRedisCache_UnreachableIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	cache := NewRedisCache(client, "", logger.Nop())
	ctx := context.Background()
	cache.Set(ctx, "k", []byte("v"), time.Minute)
	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCacheKey_SortsParams(t *testing.T) {
	a := cacheKey("/discover/movie", map[string][]string{"sort_by": {"x"}, "page": {"1"}})
	b := cacheKey("/discover/movie", map[string][]string{"page": {"1"}, "sort_by": {"x"}})
	assert.Equal(t, a, b)
	assert.Equal(t, "/genre/movie/list", cacheKey("/genre/movie/list", nil))
}
