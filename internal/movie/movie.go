package movie

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/movie-chat-backend/internal/textutil"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultPosterBase   = "https://image.tmdb.org/t/p/w500"
	DefaultBackdropBase = "https://image.tmdb.org/t/p/original"
)

var ErrNotFound = errors.New("movie not found")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Movie is the cached metadata record for one provider movie id
type Movie struct {
	ID           int       `json:"movie_id" gorm:"primaryKey;autoIncrement:false" validate:"gt=0"`
	Title        string    `json:"title" gorm:"not null;size:500" validate:"required"`
	Overview     string    `json:"overview" gorm:"type:text"`
	PosterPath   string    `json:"poster_path,omitempty" gorm:"size:255"`
	BackdropPath string    `json:"backdrop_path,omitempty" gorm:"size:255"`
	ReleaseDate  string    `json:"release_date,omitempty" gorm:"size:10"`
	VoteAverage  float64   `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount    int       `json:"vote_count" validate:"gte=0"`
	Popularity   float64   `json:"popularity" validate:"gte=0"`
	Genres       string    `json:"genres" gorm:"size:500"` // comma joined names
	Runtime      int       `json:"runtime,omitempty" validate:"gte=0"`
	CachedAt     time.Time `json:"cached_at" gorm:"index"`
}

// TableName returns the table name for GORM
func (Movie) TableName() string {
	return "movie_cache"
}

// Validate checks field ranges
func (m *Movie) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid movie %d: %w", m.ID, err)
	}
	return nil
}

// GenreList splits the stored genre names
func (m *Movie) GenreList() []string {
	return textutil.SplitList(m.Genres)
}

// Year parses the leading year of a possibly partial release date, 0 when unknown
func (m *Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

func (m *Movie) PosterURL(base string) string {
	if m.PosterPath == "" {
		return ""
	}
	if base == "" {
		base = DefaultPosterBase
	}
	return base + m.PosterPath
}

func (m *Movie) BackdropURL(base string) string {
	if m.BackdropPath == "" {
		return ""
	}
	if base == "" {
		base = DefaultBackdropBase
	}
	return base + m.BackdropPath
}

// Expired reports whether the row is older than ttl at now
func (m *Movie) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(m.CachedAt) > ttl
}

// Repository defines the interface for movie cache access
type Repository interface {
	// Upsert inserts or replaces the row and refreshes CachedAt
	Upsert(m *Movie) error
	FindByID(id int) (*Movie, error)
	// FindAll ignores expiry
	FindAll() ([]Movie, error)
	DeleteCachedBefore(cutoff time.Time) (int64, error)
}

// Service defines the movie cache operations
type Service interface {
	Cache(m *Movie) error
	// Get returns ErrNotFound for missing and expired rows
	Get(id int) (*Movie, error)
	All() ([]Movie, error)
	PurgeExpired() (int64, error)
}

// Response is the client facing rendering of a movie
type Response struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	Poster      string   `json:"poster,omitempty"`
	Backdrop    string   `json:"backdrop,omitempty"`
	Rating      float64  `json:"rating"`
	Genres      []string `json:"genres"`
	Year        int      `json:"year,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
	VoteCount   int      `json:"vote_count"`
	Popularity  float64  `json:"popularity"`
	ReleaseDate string   `json:"release_date,omitempty"`
}

// ToResponse converts Movie to Response using the default image bases
func (m *Movie) ToResponse() *Response {
	genres := m.GenreList()
	if genres == nil {
		genres = []string{}
	}
	return &Response{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		Poster:      m.PosterURL(""),
		Backdrop:    m.BackdropURL(""),
		Rating:      float64(int(m.VoteAverage*10+0.5)) / 10,
		Genres:      genres,
		Year:        m.Year(),
		Runtime:     m.Runtime,
		VoteCount:   m.VoteCount,
		Popularity:  m.Popularity,
		ReleaseDate: m.ReleaseDate,
	}
}

// ToResponses converts a slice, never returning nil
func ToResponses(movies []Movie) []*Response {
	out := make([]*Response, 0, len(movies))
	for i := range movies {
		out = append(out, movies[i].ToResponse())
	}
	return out
}
