package tmdb

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matrixDetails = `{"id":603,"title":"The Matrix","overview":"A hacker learns the truth",
	"release_date":"1999-03-31","vote_average":8.2,"runtime":136,
	"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}],
	"credits":{"cast":[{"name":"Keanu Reeves"},{"name":"Laurence Fishburne"}],
		"crew":[{"name":"Bill Pope","job":"Director of Photography"},{"name":"Lana Wachowski","job":"Director"}]},
	"videos":{"results":[{"key":"teaser","site":"YouTube","type":"Teaser"},{"key":"m8e-FF8MsqU","site":"YouTube","type":"Trailer"}]}}`

const matrixProviders = `{"id":603,"results":{
	"US":{"link":"https://www.themoviedb.org/movie/603/watch","flatrate":[
		{"provider_name":"Max"},{"provider_name":"Netflix"},{"provider_name":"Hulu"},
		{"provider_name":"Peacock"},{"provider_name":"Paramount+"},{"provider_name":"Tubi"}]},
	"GB":{"link":"https://www.themoviedb.org/movie/603/watch?locale=GB","rent":[{"provider_name":"Apple TV"}]}}}`

type recordingMovies struct {
	mu     sync.Mutex
	cached []int
}

func (r *recordingMovies) Cache(m *movie.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = append(r.cached, m.ID)
	return nil
}

type catalogFixture struct {
	router   *gin.Engine
	movies   *recordingMovies
	mu       sync.Mutex
	discover url.Values
}

func (f *catalogFixture) lastDiscover() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discover
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	gin.SetMode(gin.TestMode)
	f := &catalogFixture{movies: &recordingMovies{}}

	list := `{"page":1,"total_pages":3,"total_results":42,"results":[{"id":603,"title":"The Matrix","genre_ids":[28,878],"release_date":"1999-03-31"}]}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/genre/movie/list":
			w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`))
		case "/movie/popular", "/movie/top_rated", "/movie/now_playing", "/search/movie",
			"/trending/movie/day", "/trending/movie/week", "/movie/603/recommendations":
			w.Write([]byte(list))
		case "/discover/movie":
			f.mu.Lock()
			f.discover = r.URL.Query()
			f.mu.Unlock()
			w.Write([]byte(list))
		case "/movie/upcoming":
			w.Write([]byte(`{"results":[
				{"id":1,"title":"Already Out","release_date":"2025-05-01"},
				{"id":2,"title":"Coming Soon","release_date":"2025-07-01"}]}`))
		case "/movie/603":
			w.Write([]byte(matrixDetails))
		case "/movie/603/watch/providers":
			w.Write([]byte(matrixProviders))
		default:
			http.NotFound(w, r)
		}
	})

	h := NewHandler(client, f.movies, logger.Nop())
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	f.router = gin.New()
	h.RegisterRoutes(f.router.Group("/api/v1"), nil)
	return f
}

func (f *catalogFixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(w, req)
	return w
}

type movieList struct {
	Movies []struct {
		ID     int      `json:"id"`
		Title  string   `json:"title"`
		Genres []string `json:"genres"`
	} `json:"movies"`
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) movieList {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out movieList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandler_Lists(t *testing.T) {
	f := newCatalogFixture(t)

	for _, path := range []string{
		"/api/v1/movies/popular",
		"/api/v1/movies/top-rated",
		"/api/v1/movies/now-playing?page=2",
		"/api/v1/trending?time_window=day",
		"/api/v1/movie/603/recommendations",
	} {
		t.Run(path, func(t *testing.T) {
			out := decodeList(t, f.get(path))
			require.Len(t, out.Movies, 1)
			assert.Equal(t, 603, out.Movies[0].ID)
			assert.Equal(t, []string{"Action", "Science Fiction"}, out.Movies[0].Genres)
		})
	}
}

func TestHandler_UpcomingDropsReleasedMovies(t *testing.T) {
	f := newCatalogFixture(t)

	out := decodeList(t, f.get("/api/v1/movies/upcoming"))
	require.Len(t, out.Movies, 1)
	assert.Equal(t, "Coming Soon", out.Movies[0].Title)
}

func TestHandler_ByYear(t *testing.T) {
	f := newCatalogFixture(t)

	decodeList(t, f.get("/api/v1/movies/by-year/1999"))
	q := f.lastDiscover()
	assert.Equal(t, "1999", q.Get("primary_release_year"))
	assert.Equal(t, "vote_average.desc", q.Get("sort_by"))
	assert.Equal(t, "100", q.Get("vote_count.gte"))
	assert.Empty(t, q.Get("vote_average.gte"))

	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/movies/by-year/abc").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/movies/by-year/1200").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/movies/by-year/1999?sort_by=title").Code)
}

func TestHandler_Search(t *testing.T) {
	f := newCatalogFixture(t)

	w := f.get("/api/v1/search?query=matrix")
	decodeList(t, w)
	assert.Contains(t, w.Body.String(), `"total_results":42`)
	assert.Contains(t, w.Body.String(), `"total_pages":3`)

	decodeList(t, f.get("/api/v1/search?genre=science+fiction&year=1999&min_rating=7"))
	q := f.lastDiscover()
	assert.Equal(t, "878", q.Get("with_genres"))
	assert.Equal(t, "1999", q.Get("primary_release_year"))
	assert.Equal(t, "7", q.Get("vote_average.gte"))

	decodeList(t, f.get("/api/v1/search"))

	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/search?genre=western").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/search?min_rating=11").Code)
}

func TestHandler_Genres(t *testing.T) {
	f := newCatalogFixture(t)

	w := f.get("/api/v1/genres")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Science Fiction"`)

	w = f.get("/api/v1/genres/28/movies")
	decodeList(t, w)
	assert.Contains(t, w.Body.String(), `"genre":"Action"`)
	assert.Equal(t, "28", f.lastDiscover().Get("with_genres"))

	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/genres/99/movies").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/genres/x/movies").Code)
}

func TestHandler_Details(t *testing.T) {
	f := newCatalogFixture(t)

	w := f.get("/api/v1/movie/603")
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		ID        int        `json:"id"`
		Title     string     `json:"title"`
		Genres    []string   `json:"genres"`
		Year      int        `json:"year"`
		Runtime   int        `json:"runtime"`
		Director  string     `json:"director"`
		Cast      []string   `json:"cast"`
		Trailer   string     `json:"trailer"`
		Platforms []Platform `json:"platforms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, 603, detail.ID)
	assert.Equal(t, 1999, detail.Year)
	assert.Equal(t, 136, detail.Runtime)
	assert.Equal(t, []string{"Action", "Science Fiction"}, detail.Genres)
	assert.Equal(t, "Lana Wachowski", detail.Director)
	assert.Equal(t, []string{"Keanu Reeves", "Laurence Fishburne"}, detail.Cast)
	assert.Equal(t, "https://www.youtube.com/watch?v=m8e-FF8MsqU", detail.Trailer)
	require.Len(t, detail.Platforms, 5)
	assert.Equal(t, "Max", detail.Platforms[0].Name)
	assert.Equal(t, "https://www.themoviedb.org/movie/603/watch", detail.Platforms[0].Link)

	assert.Equal(t, []int{603}, f.movies.cached)

	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/movie/404").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/movie/0").Code)
}

func TestHandler_Providers(t *testing.T) {
	f := newCatalogFixture(t)

	w := f.get("/api/v1/movie/603/providers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"region":"US"`)
	assert.Contains(t, w.Body.String(), `"provider_name":"Netflix"`)

	w = f.get("/api/v1/movie/603/providers?region=gb")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"region":"GB"`)
	assert.Contains(t, w.Body.String(), `"provider_name":"Apple TV"`)

	w = f.get("/api/v1/movie/603/providers?region=FR")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"providers":{}`)

	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/movie/603/providers?region=usa").Code)
	assert.Equal(t, http.StatusNotFound, f.get("/api/v1/movie/404/providers").Code)
}

func TestHandler_ProviderOutage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	router := gin.New()
	NewHandler(client, nil, logger.Nop()).RegisterRoutes(router.Group("/api/v1"), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/movies/popular", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
