package repository

import (
	"errors"
	"fmt"
	"time"

	userPkg "github.com/dustin/movie-chat-backend/internal/user"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormUserRepository implements the user.Repository interface with GORM
type gormUserRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMUserRepository creates a new GORM-based user repository
func NewGORMUserRepository(db *gorm.DB, log *logger.Logger) userPkg.Repository {
	return &gormUserRepository{
		db:     db,
		logger: log.WithComponent("gorm-user-repository"),
	}
}

func (r *gormUserRepository) Create(user *userPkg.User) error {
	r.logger.Info("Creating user " + user.ID.String() + " with username " + user.Username)

	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return userPkg.ErrUserExists
		}
		r.logger.Error("Failed to create user " + user.Username + ": " + err.Error())
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *gormUserRepository) FindByUsername(username string) (*userPkg.User, error) {
	var user userPkg.User

	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userPkg.ErrNotFound
		}
		r.logger.Error("Database error finding user by username " + username + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &user, nil
}

func (r *gormUserRepository) FindByID(id uuid.UUID) (*userPkg.User, error) {
	var user userPkg.User

	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userPkg.ErrNotFound
		}
		r.logger.Error("Database error finding user by ID " + id.String() + ": " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &user, nil
}

func (r *gormUserRepository) UpsertPreferences(userID uuid.UUID, genres, actors *string) (*userPkg.Preferences, error) {
	var prefs userPkg.Preferences

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&prefs).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			prefs = userPkg.Preferences{UserID: userID}
		case err != nil:
			return err
		}

		if genres != nil {
			prefs.FavoriteGenres = *genres
		}
		if actors != nil {
			prefs.FavoriteActors = *actors
		}
		prefs.UpdatedAt = time.Now()
		return tx.Save(&prefs).Error
	})
	if err != nil {
		r.logger.Error("Failed to save preferences for user " + userID.String() + ": " + err.Error())
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	return &prefs, nil
}

func (r *gormUserRepository) FindPreferences(userID uuid.UUID) (*userPkg.Preferences, error) {
	var prefs userPkg.Preferences

	err := r.db.Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userPkg.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &prefs, nil
}

func (r *gormUserRepository) RatingSummary(userID uuid.UUID) (int64, float64, []string, error) {
	type summary struct {
		Count   int64
		Average float64
	}

	var s summary
	err := r.db.Table("ratings").
		Select("COUNT(*) AS count, COALESCE(AVG(score), 0) AS average").
		Where("user_id = ?", userID).
		Scan(&s).Error
	if err != nil {
		return 0, 0, nil, fmt.Errorf("database error: %w", err)
	}

	var genreLists []string
	err = r.db.Table("ratings").
		Joins("JOIN movie_cache ON movie_cache.id = ratings.movie_id").
		Where("ratings.user_id = ?", userID).
		Pluck("movie_cache.genres", &genreLists).Error
	if err != nil {
		return 0, 0, nil, fmt.Errorf("database error: %w", err)
	}

	return s.Count, s.Average, genreLists, nil
}
