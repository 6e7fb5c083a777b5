package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrUserExists = errors.New("user already exists")
)

// User represents a chat user. Users are identified by a unique username only.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null;size:50" validate:"required,min=2,max=50,excludesall=0x20"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// Preferences is the denormalised favourites record, one row per user
type Preferences struct {
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	FavoriteGenres string    `json:"favorite_genres" gorm:"size:1000"`
	FavoriteActors string    `json:"favorite_actors" gorm:"size:1000"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Preferences) TableName() string {
	return "user_preferences"
}

// Stats summarises a user's rating activity
type Stats struct {
	RatingCount   int64    `json:"rating_count"`
	AverageRating float64  `json:"average_rating"` // stars, 1-5
	TopGenres     []string `json:"top_genres"`
}

// Profile bundles everything shown for the current user
type Profile struct {
	User        *UserResponse `json:"user"`
	Preferences *Preferences  `json:"preferences,omitempty"`
	Stats       *Stats        `json:"stats"`
}

// Repository defines the interface for user data access
type Repository interface {
	Create(user *User) error
	FindByUsername(username string) (*User, error)
	FindByID(id uuid.UUID) (*User, error)

	// UpsertPreferences leaves a stored field untouched when its argument is nil
	UpsertPreferences(userID uuid.UUID, genres, actors *string) (*Preferences, error)
	FindPreferences(userID uuid.UUID) (*Preferences, error)

	// RatingSummary returns count and mean of stored (10 point) ratings plus
	// the genre lists of every rated movie that is in the movie cache
	RatingSummary(userID uuid.UUID) (count int64, average float64, genreLists []string, err error)
}

// Service defines the interface for user business logic
type Service interface {
	CreateUser(username string) (*User, string, error)
	Login(username string) (*User, string, error)
	GetUserByID(id uuid.UUID) (*User, error)
	GetProfile(id uuid.UUID) (*Profile, error)
	UpdatePreferences(id uuid.UUID, genres, actors *string) (*Preferences, error)
	ValidateToken(tokenString string) (*User, error)
}

// CreateUserRequest represents user creation request
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
}

// UpdatePreferencesRequest uses pointers so absent fields are preserved
type UpdatePreferencesRequest struct {
	FavoriteGenres *string `json:"favorite_genres"`
	FavoriteActors *string `json:"favorite_actors"`
}

// UserResponse represents user in API responses
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
