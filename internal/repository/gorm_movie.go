package repository

import (
	"errors"
	"fmt"
	"time"

	moviePkg "github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormMovieRepository implements the movie.Repository interface with GORM
type gormMovieRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMMovieRepository creates a new GORM-based movie cache repository
func NewGORMMovieRepository(db *gorm.DB, log *logger.Logger) moviePkg.Repository {
	return &gormMovieRepository{
		db:     db,
		logger: log.WithComponent("gorm-movie-repository"),
	}
}

func (r *gormMovieRepository) Upsert(m *moviePkg.Movie) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(m).Error
	if err != nil {
		r.logger.Error(fmt.Sprintf("Failed to cache movie %d: %v", m.ID, err))
		return fmt.Errorf("failed to cache movie: %w", err)
	}
	return nil
}

func (r *gormMovieRepository) FindByID(id int) (*moviePkg.Movie, error) {
	var m moviePkg.Movie

	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moviePkg.ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &m, nil
}

func (r *gormMovieRepository) FindAll() ([]moviePkg.Movie, error) {
	var movies []moviePkg.Movie

	if err := r.db.Order("id").Find(&movies).Error; err != nil {
		r.logger.Error("Failed to load movie cache: " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}
	return movies, nil
}

func (r *gormMovieRepository) DeleteCachedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("cached_at < ?", cutoff).Delete(&moviePkg.Movie{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge movie cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}
