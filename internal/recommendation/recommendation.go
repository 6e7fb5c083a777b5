package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/internal/rating"
	"github.com/dustin/movie-chat-backend/internal/tmdb"
	"github.com/google/uuid"
)

const (
	MethodHybrid  = "hybrid"
	MethodPopular = "popular"
)

var (
	ErrInsufficientData = errors.New("insufficient data to train")
	ErrUserNotFound     = errors.New("user not found")

	errEmptyVocabulary = fmt.Errorf("%w: empty vocabulary", ErrInsufficientData)
)

// MovieStore is the movie cache as seen by the recommenders
type MovieStore interface {
	// All ignores expiry
	All() ([]movie.Movie, error)
	// Get honours expiry
	Get(id int) (*movie.Movie, error)
	Cache(m *movie.Movie) error
}

// RatingSource reads stored ratings
type RatingSource interface {
	FindAll() ([]rating.Rating, error)
	// FindByUser returns the most recently updated first
	FindByUser(userID uuid.UUID) ([]rating.Rating, error)
	CountByUser(userID uuid.UUID) (int64, error)
}

// Provider is the slice of the metadata client used for training and cold start
type Provider interface {
	Popular(ctx context.Context, page int) (*tmdb.MoviePage, error)
	MovieDetails(ctx context.Context, movieID int) (*tmdb.MovieResult, error)
	Trending(ctx context.Context, window string) (*tmdb.MoviePage, error)
	// Genres loads the genre list FormatMovie resolves list genre ids against
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	FormatMovie(r tmdb.MovieResult) movie.Movie
}

// UserChecker reports whether a user id is registered
type UserChecker interface {
	UserExists(id uuid.UUID) (bool, error)
}

// ScoredMovie is a collaborative candidate with its predicted star rating on
// the stored scale
type ScoredMovie struct {
	Movie           movie.Movie `json:"movie"`
	PredictedRating float64     `json:"predicted_rating"`
}

// Service defines the interface for recommendation business logic
type Service interface {
	GetRecommendations(ctx context.Context, userID uuid.UUID, limit int, movieID *int) (*Response, error)
	Train(ctx context.Context) error
	Status() Status
}

// TrainingScheduler queues a background training pass. Requests made while
// one is pending or running are merged.
type TrainingScheduler interface {
	Trigger()
}

// Status describes the trained models
type Status struct {
	ContentTrained       bool `json:"content_trained"`
	ContentMovies        int  `json:"content_movies"`
	CollaborativeTrained bool `json:"collaborative_trained"`
	CollaborativeUsers   int  `json:"collaborative_users"`
}

// Response is the recommendation payload
type Response struct {
	Recommendations []*movie.Response `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Method          string            `json:"method"`
	UserID          uuid.UUID         `json:"user_id"`
	Count           int               `json:"count"`
}

// BuildResponse wraps movies into a Response
func BuildResponse(movies []movie.Movie, userID uuid.UUID, method string) *Response {
	recs := movie.ToResponses(movies)
	return &Response{
		Recommendations: recs,
		GeneratedAt:     time.Now(),
		Method:          method,
		UserID:          userID,
		Count:           len(recs),
	}
}
