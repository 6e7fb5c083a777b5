package repository

import (
	"errors"
	"fmt"

	ratingPkg "github.com/dustin/movie-chat-backend/internal/rating"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormRatingRepository implements the rating.Repository interface with GORM
type gormRatingRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMRatingRepository creates a new GORM-based rating repository
func NewGORMRatingRepository(db *gorm.DB, log *logger.Logger) ratingPkg.Repository {
	return &gormRatingRepository{
		db:     db,
		logger: log.WithComponent("gorm-rating-repository"),
	}
}

func (r *gormRatingRepository) Upsert(rating *ratingPkg.Rating) error {
	// (user_id, movie_id) is the primary key, so a repeat rating only moves
	// the score and updated_at
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		r.logger.Error("Failed to upsert rating: " + err.Error())
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

func (r *gormRatingRepository) FindByUserAndMovie(userID uuid.UUID, movieID int) (*ratingPkg.Rating, error) {
	var rating ratingPkg.Rating

	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ratingPkg.ErrNotFound
		}
		r.logger.Error("Database error finding rating: " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &rating, nil
}

func (r *gormRatingRepository) FindByUser(userID uuid.UUID) ([]ratingPkg.Rating, error) {
	var ratings []ratingPkg.Rating

	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("movie_id").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return ratings, nil
}

func (r *gormRatingRepository) FindAll() ([]ratingPkg.Rating, error) {
	var ratings []ratingPkg.Rating

	if err := r.db.Order("user_id").Order("movie_id").Find(&ratings).Error; err != nil {
		r.logger.Error("Failed to load ratings: " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}
	return ratings, nil
}

func (r *gormRatingRepository) CountByUser(userID uuid.UUID) (int64, error) {
	var count int64

	err := r.db.Model(&ratingPkg.Rating{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

func (r *gormRatingRepository) Delete(userID uuid.UUID, movieID int) error {
	result := r.db.Delete(&ratingPkg.Rating{}, "user_id = ? AND movie_id = ?", userID, movieID)
	if err := result.Error; err != nil {
		r.logger.Error("Failed to delete rating: " + err.Error())
		return fmt.Errorf("failed to delete rating: %w", err)
	}

	if result.RowsAffected == 0 {
		return ratingPkg.ErrNotFound
	}
	return nil
}
