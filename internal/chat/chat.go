package chat

import (
	"context"
	"time"

	"github.com/dustin/movie-chat-backend/internal/intent"
	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/internal/tmdb"
	"github.com/google/uuid"
)

const (
	// IntentError marks a message whose processing failed
	IntentError = "error"

	DefaultHistoryLimit = 10
	defaultResultLimit  = 10
	actorSearchLimit    = 20

	apologyReply = "Sorry, I encountered an error. Please try again!"
)

// Message is one stored chat exchange
type Message struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Response  string    `json:"response" gorm:"type:text"`
	Intent    string    `json:"intent" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "chat_history"
}

// Repository defines the interface for chat history access
type Repository interface {
	Save(m *Message) error
	// FindRecent returns up to limit messages, newest first
	FindRecent(userID uuid.UUID, limit int) ([]Message, error)
}

// Provider is the slice of the metadata client the chat flow queries
type Provider interface {
	Trending(ctx context.Context, window string) (*tmdb.MoviePage, error)
	Discover(ctx context.Context, p tmdb.DiscoverParams) (*tmdb.MoviePage, error)
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.MoviePage, error)
	SimilarMovies(ctx context.Context, movieID, page int) (*tmdb.MoviePage, error)
	SearchByActor(ctx context.Context, name string, limit int) ([]tmdb.MovieResult, error)
	Popular(ctx context.Context, page int) (*tmdb.MoviePage, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	GenreID(ctx context.Context, name string) (int, bool)
	FormatMovies(results []tmdb.MovieResult) []movie.Movie
}

// MovieCache stores every movie shown to a user
type MovieCache interface {
	Cache(m *movie.Movie) error
}

// Recommender serves picks for open ended messages
type Recommender interface {
	Recommend(ctx context.Context, userID uuid.UUID, n int, movieID *int) []movie.Movie
	GetRecommendationsForNewUser(ctx context.Context, n int) []movie.Movie
}

// RatingCounter decides between personalised and new user picks
type RatingCounter interface {
	CountByUser(userID uuid.UUID) (int64, error)
}

// Service defines the chat operations
type Service interface {
	ProcessMessage(ctx context.Context, userID uuid.UUID, message string) *Response
	History(userID uuid.UUID, limit int) ([]Message, error)
}

// Request is the chat endpoint body
type Request struct {
	Message string `json:"message" binding:"required,max=1000"`
}

// Response is the reply to one chat message
type Response struct {
	Reply    string            `json:"reply"`
	Movies   []*movie.Response `json:"movies"`
	Intent   string            `json:"intent"`
	Entities intent.Entities   `json:"entities"`
}
