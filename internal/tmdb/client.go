package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/internal/textutil"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

	breakerName = "tmdb-api"
	language    = "en-US"
	region      = "US"

	// rating filters ignore movies with fewer votes than this
	minRatedVotes = 100
)

var (
	// ErrUnavailable wraps every network, status and decode failure
	ErrUnavailable = errors.New("metadata provider unavailable")
	// ErrNotFound is a 404 from the provider. It does not count against the breaker.
	ErrNotFound = errors.New("not found at metadata provider")
)

// Client talks to the TMDb v3 API. Requests are answered from the response
// cache when possible, otherwise rate limited and sent through a circuit
// breaker. Failures are never retried.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	limiter      *rate.Limiter
	cb           *gobreaker.CircuitBreaker[[]byte]
	cache        ResponseCache
	cacheTTL     time.Duration
	logger       *logger.Logger

	genresMu sync.RWMutex
	genres   []Genre
}

// NewClient creates a provider client. A nil cache selects an in-memory one.
func NewClient(cfg *config.TMDBConfig, cache ResponseCache, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = &config.TMDBConfig{}
	}

	timeout, err := durationOr(cfg.Timeout, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB timeout '%s': %v", cfg.Timeout, err)
	}
	interval, err := durationOr(cfg.MinRequestInterval, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB request interval '%s': %v", cfg.MinRequestInterval, err)
	}
	ttl, err := durationOr(cfg.ResponseCacheTTL, 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB cache TTL '%s': %v", cfg.ResponseCacheTTL, err)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	imageBaseURL := cfg.ImageBaseURL
	if imageBaseURL == "" {
		imageBaseURL = DefaultImageBaseURL
	}
	if cache == nil {
		cache = NewMemoryCache()
	}

	log = log.WithComponent("tmdb-client")
	if cfg.APIKey == "" {
		log.Warn("TMDB_API_KEY is empty, provider requests will be rejected upstream")
	}

	c := &Client{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		cache:        cache,
		cacheTTL:     ttl,
		logger:       log,
	}
	c.cb = newBreaker(log)
	return c, nil
}

func durationOr(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// newBreaker opens after a 60% failure rate over at least 10 requests and
// probes again after two minutes
func newBreaker(log *logger.Logger) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// cacheKey is the endpoint plus its sorted query parameters
func cacheKey(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

// get fetches endpoint into out. operation labels the metrics.
func (c *Client) get(ctx context.Context, operation, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	key := cacheKey(endpoint, params)

	if body, ok := c.cache.Get(ctx, key); ok {
		if err := json.Unmarshal(body, out); err == nil {
			metrics.ProviderRequests.WithLabelValues(operation, "cache_hit").Inc()
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.ProviderRequests.WithLabelValues(operation, "failure").Inc()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx, endpoint, params)
	})
	if errors.Is(err, ErrNotFound) {
		metrics.ProviderRequests.WithLabelValues(operation, "not_found").Inc()
		return err
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProviderRequests.WithLabelValues(operation, "rejected").Inc()
		} else {
			metrics.ProviderRequests.WithLabelValues(operation, "failure").Inc()
		}
		c.logger.Errorf(err, "TMDb request %s failed", endpoint)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		metrics.ProviderRequests.WithLabelValues(operation, "failure").Inc()
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, endpoint, err)
	}

	c.cache.Set(ctx, key, body, c.cacheTTL)
	metrics.ProviderRequests.WithLabelValues(operation, "success").Inc()
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("provider error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"language": {language},
	}
}

// SearchMovies searches movies by title
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*MoviePage, error) {
	params := pageParams(page)
	params.Set("query", query)

	var out MoviePage
	if err := c.get(ctx, "search_movie", "/search/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovieDetails returns one movie with credits, videos and keywords appended
func (c *Client) MovieDetails(ctx context.Context, movieID int) (*MovieResult, error) {
	params := url.Values{
		"append_to_response": {"credits,videos,keywords"},
		"language":           {language},
	}

	var out MovieResult
	if err := c.get(ctx, "movie_details", fmt.Sprintf("/movie/%d", movieID), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WatchProviders returns streaming availability for every region
func (c *Client) WatchProviders(ctx context.Context, movieID int) (*WatchProviders, error) {
	var out WatchProviders
	if err := c.get(ctx, "watch_providers", fmt.Sprintf("/movie/%d/watch/providers", movieID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Discover lists movies matching the given filters
func (c *Client) Discover(ctx context.Context, p DiscoverParams) (*MoviePage, error) {
	params := pageParams(p.Page)
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)

	if p.GenreID > 0 {
		params.Set("with_genres", strconv.Itoa(p.GenreID))
	}
	if p.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(p.Year))
	}
	minVotes := p.MinVotes
	if p.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(p.MinRating, 'f', -1, 64))
		if minVotes == 0 {
			minVotes = minRatedVotes
		}
	}
	if minVotes > 0 {
		params.Set("vote_count.gte", strconv.Itoa(minVotes))
	}

	var out MoviePage
	if err := c.get(ctx, "discover", "/discover/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SimilarMovies(ctx context.Context, movieID, page int) (*MoviePage, error) {
	var out MoviePage
	if err := c.get(ctx, "similar", fmt.Sprintf("/movie/%d/similar", movieID), pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trending lists trending movies for window "day" or "week"; anything else
// is treated as "week"
func (c *Client) Trending(ctx context.Context, window string) (*MoviePage, error) {
	if window != "day" {
		window = "week"
	}
	params := url.Values{"language": {language}}

	var out MoviePage
	if err := c.get(ctx, "trending", "/trending/movie/"+window, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchPerson(ctx context.Context, name string) (*PersonPage, error) {
	params := url.Values{
		"query":    {name},
		"language": {language},
	}

	var out PersonPage
	if err := c.get(ctx, "search_person", "/search/person", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PersonMovieCredits(ctx context.Context, personID int) (*MovieCredits, error) {
	params := url.Values{"language": {language}}

	var out MovieCredits
	if err := c.get(ctx, "person_credits", fmt.Sprintf("/person/%d/movie_credits", personID), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchByActor returns the best matching person's cast credits, most popular
// first. An unknown name yields no movies and no error.
func (c *Client) SearchByActor(ctx context.Context, name string, limit int) ([]MovieResult, error) {
	people, err := c.SearchPerson(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(people.Results) == 0 {
		return nil, nil
	}

	credits, err := c.PersonMovieCredits(ctx, people.Results[0].ID)
	if err != nil {
		return nil, err
	}

	movies := append([]MovieResult(nil), credits.Cast...)
	sort.SliceStable(movies, func(i, j int) bool {
		return movies[i].Popularity > movies[j].Popularity
	})
	if limit > 0 && len(movies) > limit {
		movies = movies[:limit]
	}
	return movies, nil
}

// Genres returns the provider genre list, fetched once per process
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	c.genresMu.RLock()
	cached := c.genres
	c.genresMu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var out genreList
	if err := c.get(ctx, "genres", "/genre/movie/list", url.Values{"language": {language}}, &out); err != nil {
		return nil, err
	}

	c.genresMu.Lock()
	c.genres = out.Genres
	c.genresMu.Unlock()
	return out.Genres, nil
}

// GenreID resolves a genre name case-insensitively
func (c *Client) GenreID(ctx context.Context, name string) (int, bool) {
	genres, err := c.Genres(ctx)
	if err != nil {
		return 0, false
	}
	for _, g := range genres {
		if strings.EqualFold(g.Name, name) {
			return g.ID, true
		}
	}
	return 0, false
}

func (c *Client) GenreName(ctx context.Context, id int) (string, bool) {
	genres, err := c.Genres(ctx)
	if err != nil {
		return "", false
	}
	for _, g := range genres {
		if g.ID == id {
			return g.Name, true
		}
	}
	return "", false
}

func (c *Client) Popular(ctx context.Context, page int) (*MoviePage, error) {
	var out MoviePage
	if err := c.get(ctx, "popular", "/movie/popular", pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TopRated(ctx context.Context, page int) (*MoviePage, error) {
	var out MoviePage
	if err := c.get(ctx, "top_rated", "/movie/top_rated", pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NowPlaying lists movies in US theaters
func (c *Client) NowPlaying(ctx context.Context, page int) (*MoviePage, error) {
	params := pageParams(page)
	params.Set("region", region)

	var out MoviePage
	if err := c.get(ctx, "now_playing", "/movie/now_playing", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Upcoming(ctx context.Context, page int) (*MoviePage, error) {
	params := pageParams(page)
	params.Set("region", region)

	var out MoviePage
	if err := c.get(ctx, "upcoming", "/movie/upcoming", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommendations returns the provider's own recommendations for a movie
func (c *Client) Recommendations(ctx context.Context, movieID, page int) (*MoviePage, error) {
	var out MoviePage
	if err := c.get(ctx, "recommendations", fmt.Sprintf("/movie/%d/recommendations", movieID), pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FormatMovie converts a provider record into the cached movie shape. Genre
// names come from detail responses; list responses are resolved through the
// genre list when it has already been loaded.
func (c *Client) FormatMovie(r MovieResult) movie.Movie {
	names := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		names = append(names, g.Name)
	}
	if len(names) == 0 && len(r.GenreIDs) > 0 {
		c.genresMu.RLock()
		for _, id := range r.GenreIDs {
			for _, g := range c.genres {
				if g.ID == id {
					names = append(names, g.Name)
					break
				}
			}
		}
		c.genresMu.RUnlock()
	}

	return movie.Movie{
		ID:           r.ID,
		Title:        r.Title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		ReleaseDate:  r.ReleaseDate,
		VoteAverage:  r.VoteAverage,
		VoteCount:    r.VoteCount,
		Popularity:   r.Popularity,
		Genres:       textutil.JoinList(names),
		Runtime:      r.Runtime,
	}
}

// FormatMovies converts a result list, preserving order
func (c *Client) FormatMovies(results []MovieResult) []movie.Movie {
	out := make([]movie.Movie, 0, len(results))
	for _, r := range results {
		out = append(out, c.FormatMovie(r))
	}
	return out
}

// PosterURL joins a poster path with the configured image base
func (c *Client) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return c.imageBaseURL + path
}

// BreakerState reports the circuit breaker state for health checks
func (c *Client) BreakerState() string {
	return c.cb.State().String()
}
