package rating

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MinStars = 1.0
	MaxStars = 5.0
	// StorageScale converts stars to the stored 10 point value
	StorageScale = 2.0
)

var (
	ErrNotFound      = errors.New("rating not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrUserNotFound  = errors.New("user not found")
)

// Rating is one user's score for one movie. At most one row exists per
// (user, movie); writes replace the score and refresh UpdatedAt.
type Rating struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;not null;index:idx_user_ratings"`
	MovieID   int       `json:"movie_id" gorm:"primaryKey;autoIncrement:false;not null;index:idx_movie_ratings"`
	Score     float64   `json:"score" gorm:"not null;check:score >= 0 AND score <= 10" validate:"gte=2,lte=10"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stars converts the stored value back to the 1-5 scale
func (r *Rating) Stars() float64 {
	return r.Score / StorageScale
}

// IsValidStars checks if a user supplied value is within the accepted range
func IsValidStars(stars float64) bool {
	return stars >= MinStars && stars <= MaxStars
}

// TableName returns the table name for GORM
func (Rating) TableName() string {
	return "ratings"
}

// Repository defines the interface for rating data access
type Repository interface {
	// Upsert writes r, replacing the score of an existing (user, movie) row
	Upsert(r *Rating) error
	FindByUserAndMovie(userID uuid.UUID, movieID int) (*Rating, error)
	// FindByUser returns the user's ratings, most recently updated first
	FindByUser(userID uuid.UUID) ([]Rating, error)
	FindAll() ([]Rating, error)
	CountByUser(userID uuid.UUID) (int64, error)
	Delete(userID uuid.UUID, movieID int) error
}

// Service defines the interface for rating business logic
type Service interface {
	RateMovie(userID uuid.UUID, movieID int, stars float64) (*Rating, error)
	GetRating(userID uuid.UUID, movieID int) (*Rating, error)
	DeleteRating(userID uuid.UUID, movieID int) error
	UserRatings(userID uuid.UUID) ([]Rating, error)
	CountUserRatings(userID uuid.UUID) (int64, error)
}

// UserValidator confirms the rating author exists
type UserValidator interface {
	UserExists(id uuid.UUID) (bool, error)
}

// ChangeNotifier is told about every accepted write, e.g. to schedule retraining
type ChangeNotifier interface {
	Trigger()
}

// RateMovieRequest represents rating creation/update request
type RateMovieRequest struct {
	MovieID int     `json:"movie_id" binding:"required,gt=0"`
	Rating  float64 `json:"rating" binding:"required,gte=1,lte=5"`
}

// RatingResponse represents rating in API responses
type RatingResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	MovieID   int       `json:"movie_id"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts Rating to RatingResponse
func (r *Rating) ToResponse() *RatingResponse {
	return &RatingResponse{
		UserID:    r.UserID,
		MovieID:   r.MovieID,
		Rating:    r.Stars(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
