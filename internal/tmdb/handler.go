package tmdb

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/internal/utils"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	maxPage       = 500
	detailCast    = 10
	detailStreams = 5
	youtubeWatch  = "https://www.youtube.com/watch?v="
)

var discoverSorts = map[string]bool{
	"popularity.desc":   true,
	"vote_average.desc": true,
	"release_date.desc": true,
	"revenue.desc":      true,
}

// Catalog is the slice of the client the browse endpoints read from
type Catalog interface {
	Trending(ctx context.Context, window string) (*MoviePage, error)
	Popular(ctx context.Context, page int) (*MoviePage, error)
	TopRated(ctx context.Context, page int) (*MoviePage, error)
	NowPlaying(ctx context.Context, page int) (*MoviePage, error)
	Upcoming(ctx context.Context, page int) (*MoviePage, error)
	Discover(ctx context.Context, p DiscoverParams) (*MoviePage, error)
	SearchMovies(ctx context.Context, query string, page int) (*MoviePage, error)
	MovieDetails(ctx context.Context, movieID int) (*MovieResult, error)
	WatchProviders(ctx context.Context, movieID int) (*WatchProviders, error)
	Recommendations(ctx context.Context, movieID, page int) (*MoviePage, error)
	Genres(ctx context.Context) ([]Genre, error)
	GenreID(ctx context.Context, name string) (int, bool)
	GenreName(ctx context.Context, id int) (string, bool)
	FormatMovie(r MovieResult) movie.Movie
	FormatMovies(results []MovieResult) []movie.Movie
}

// MovieCache stores movies whose details were looked up
type MovieCache interface {
	Cache(m *movie.Movie) error
}

// Platform is a streaming service offering a movie
type Platform struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// MovieDetail is a movie with its people, trailer and streaming platforms
type MovieDetail struct {
	*movie.Response
	Director  string     `json:"director,omitempty"`
	Cast      []string   `json:"cast"`
	Trailer   string     `json:"trailer,omitempty"`
	Platforms []Platform `json:"platforms"`
}

// Handler serves the public movie catalogue
type Handler struct {
	catalog Catalog
	movies  MovieCache
	logger  *logger.Logger
	now     func() time.Time
}

// NewHandler creates a catalogue handler. movies may be nil.
func NewHandler(catalog Catalog, movies MovieCache, log *logger.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		movies:  movies,
		logger:  log.WithComponent("catalog-handler"),
		now:     time.Now,
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Movie not found"})
		return
	}
	h.logger.Errorf(err, "Catalogue request %s failed", c.Request.URL.Path)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Movie provider unavailable"})
}

func pageQuery(c *gin.Context) int {
	return utils.ParseLimit(c.Query("page"), 1, maxPage)
}

func movieIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("movieId"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid movie ID"})
		return 0, false
	}
	return id, true
}

// render resolves genre ids against the genre list before formatting
func (h *Handler) render(ctx context.Context, results []MovieResult) []*movie.Response {
	if len(results) > 0 {
		if _, err := h.catalog.Genres(ctx); err != nil {
			h.logger.Debugf("Genre list unavailable: %v", err)
		}
	}
	return movie.ToResponses(h.catalog.FormatMovies(results))
}

func (h *Handler) list(c *gin.Context, fetch func(ctx context.Context, page int) (*MoviePage, error)) {
	ctx := c.Request.Context()
	result, err := fetch(ctx, pageQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": h.render(ctx, result.Results)})
}

func (h *Handler) Popular(c *gin.Context)    { h.list(c, h.catalog.Popular) }
func (h *Handler) TopRated(c *gin.Context)   { h.list(c, h.catalog.TopRated) }
func (h *Handler) NowPlaying(c *gin.Context) { h.list(c, h.catalog.NowPlaying) }

// Upcoming drops movies already released in the provider's upcoming window
func (h *Handler) Upcoming(c *gin.Context) {
	ctx := c.Request.Context()
	result, err := h.catalog.Upcoming(ctx, pageQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	today := h.now().Format("2006-01-02")
	future := make([]MovieResult, 0, len(result.Results))
	for _, r := range result.Results {
		if r.ReleaseDate > today {
			future = append(future, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"movies": h.render(ctx, future)})
}

func (h *Handler) Trending(c *gin.Context) {
	window := c.DefaultQuery("time_window", "week")
	if window != "day" {
		window = "week"
	}
	ctx := c.Request.Context()
	result, err := h.catalog.Trending(ctx, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": h.render(ctx, result.Results), "time_window": window})
}

// ByYear lists well voted movies released in the given year
func (h *Handler) ByYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1870 || year > h.now().Year()+5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	sortBy := c.DefaultQuery("sort_by", "vote_average.desc")
	if !discoverSorts[sortBy] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by"})
		return
	}

	ctx := c.Request.Context()
	result, err := h.catalog.Discover(ctx, DiscoverParams{
		Year:     year,
		SortBy:   sortBy,
		MinVotes: minRatedVotes,
		Page:     pageQuery(c),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": h.render(ctx, result.Results), "year": year})
}

// Search runs a title search when query is set, a filtered discover when
// any filter is set and the popular list otherwise
func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	p := pageQuery(c)
	query := strings.TrimSpace(c.Query("query"))

	var params DiscoverParams
	filtered := false
	if name := strings.TrimSpace(c.Query("genre")); name != "" {
		id, ok := h.catalog.GenreID(ctx, name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown genre"})
			return
		}
		params.GenreID, filtered = id, true
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
			return
		}
		params.Year, filtered = year, true
	}
	if raw := c.Query("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_rating"})
			return
		}
		params.MinRating, filtered = rating, true
	}

	var (
		result *MoviePage
		err    error
	)
	switch {
	case query != "":
		result, err = h.catalog.SearchMovies(ctx, query, p)
	case filtered:
		params.Page = p
		result, err = h.catalog.Discover(ctx, params)
	default:
		result, err = h.catalog.Popular(ctx, p)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	totalPages := result.TotalPages
	if totalPages == 0 {
		totalPages = 1
	}
	c.JSON(http.StatusOK, gin.H{
		"movies":        h.render(ctx, result.Results),
		"total_results": result.TotalResults,
		"page":          p,
		"total_pages":   totalPages,
	})
}

func (h *Handler) Genres(c *gin.Context) {
	genres, err := h.catalog.Genres(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

// GenreMovies lists popular movies of one genre
func (h *Handler) GenreMovies(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("genreId"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid genre ID"})
		return
	}
	ctx := c.Request.Context()
	name, ok := h.catalog.GenreName(ctx, id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Genre not found"})
		return
	}

	result, err := h.catalog.Discover(ctx, DiscoverParams{GenreID: id, Page: pageQuery(c)})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genre": name, "movies": h.render(ctx, result.Results)})
}

// Details returns one movie with director, cast, trailer and US streaming
// platforms. The movie is cached for training and profile stats.
func (h *Handler) Details(c *gin.Context) {
	id, ok := movieIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	details, err := h.catalog.MovieDetails(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	m := h.catalog.FormatMovie(*details)
	if h.movies != nil {
		if err := h.movies.Cache(&m); err != nil {
			h.logger.Warnf("Failed to cache movie %d: %v", id, err)
		}
	}

	detail := MovieDetail{
		Response:  m.ToResponse(),
		Cast:      []string{},
		Platforms: []Platform{},
	}
	if details.Credits != nil {
		for _, person := range details.Credits.Cast {
			if len(detail.Cast) == detailCast {
				break
			}
			detail.Cast = append(detail.Cast, person.Name)
		}
		for _, person := range details.Credits.Crew {
			if person.Job == "Director" {
				detail.Director = person.Name
				break
			}
		}
	}
	if details.Videos != nil {
		for _, v := range details.Videos.Results {
			if v.Type == "Trailer" && v.Site == "YouTube" {
				detail.Trailer = youtubeWatch + v.Key
				break
			}
		}
	}

	// platforms are optional, a provider miss still returns the movie
	if providers, err := h.catalog.WatchProviders(ctx, id); err == nil {
		if us, ok := providers.Results[region]; ok {
			for _, p := range us.Flatrate {
				if len(detail.Platforms) == detailStreams {
					break
				}
				detail.Platforms = append(detail.Platforms, Platform{Name: p.ProviderName, Link: us.Link})
			}
		}
	} else {
		h.logger.Debugf("No watch providers for movie %d: %v", id, err)
	}

	c.JSON(http.StatusOK, detail)
}

// Providers returns streaming availability for one region
func (h *Handler) Providers(c *gin.Context) {
	id, ok := movieIDParam(c)
	if !ok {
		return
	}
	code := strings.ToUpper(c.DefaultQuery("region", region))
	if len(code) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid region"})
		return
	}

	providers, err := h.catalog.WatchProviders(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	available, ok := providers.Results[code]
	if !ok {
		c.JSON(http.StatusOK, gin.H{"movie_id": id, "region": code, "providers": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie_id": id, "region": code, "providers": available})
}

// Related returns the provider's own recommendations for a movie
func (h *Handler) Related(c *gin.Context) {
	id, ok := movieIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	result, err := h.catalog.Recommendations(ctx, id, pageQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie_id": id, "movies": h.render(ctx, result.Results)})
}

// RegisterRoutes registers the catalogue routes. They are public.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, _ gin.HandlerFunc) {
	router.GET("/search", h.Search)
	router.GET("/trending", h.Trending)
	router.GET("/genres", h.Genres)
	router.GET("/genres/:genreId/movies", h.GenreMovies)

	movies := router.Group("/movies")
	{
		movies.GET("/popular", h.Popular)
		movies.GET("/top-rated", h.TopRated)
		movies.GET("/now-playing", h.NowPlaying)
		movies.GET("/upcoming", h.Upcoming)
		movies.GET("/by-year/:year", h.ByYear)
	}

	details := router.Group("/movie/:movieId")
	{
		details.GET("", h.Details)
		details.GET("/providers", h.Providers)
		details.GET("/recommendations", h.Related)
	}
}
