package rating

import (
	"fmt"
	"time"

	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repo     Repository
	users    UserValidator
	notifier ChangeNotifier
	validate *validator.Validate
	now      func() time.Time
	logger   *logger.Logger
}

// NewService creates a new rating service. notifier may be nil.
func NewService(repo Repository, users UserValidator, notifier ChangeNotifier, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		validate: validator.New(),
		now:      time.Now,
		logger:   log.WithComponent("rating-service"),
	}
}

func (s *service) RateMovie(userID uuid.UUID, movieID int, stars float64) (*Rating, error) {
	s.logger.Infof("Rating movie %d by user %s with %.1f stars", movieID, userID, stars)

	if !IsValidStars(stars) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidRating, stars)
	}
	if movieID <= 0 {
		return nil, fmt.Errorf("invalid movie id %d", movieID)
	}

	exists, err := s.users.UserExists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	now := s.now()
	rating := &Rating{
		UserID:    userID,
		MovieID:   movieID,
		Score:     stars * StorageScale,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.validate.Struct(rating); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRating, err)
	}

	if err := s.repo.Upsert(rating); err != nil {
		s.logger.Errorf(err, "Failed to save rating for movie %d by user %s", movieID, userID)
		return nil, err
	}
	metrics.RatingsSubmitted.Inc()

	// retraining happens off the write path
	if s.notifier != nil {
		s.notifier.Trigger()
	}

	s.logger.Infof("Rating saved for movie %d by user %s", movieID, userID)
	return rating, nil
}

func (s *service) GetRating(userID uuid.UUID, movieID int) (*Rating, error) {
	return s.repo.FindByUserAndMovie(userID, movieID)
}

func (s *service) DeleteRating(userID uuid.UUID, movieID int) error {
	s.logger.Infof("Deleting rating for movie %d by user %s", movieID, userID)

	if err := s.repo.Delete(userID, movieID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Trigger()
	}
	return nil
}

func (s *service) UserRatings(userID uuid.UUID) ([]Rating, error) {
	return s.repo.FindByUser(userID)
}

func (s *service) CountUserRatings(userID uuid.UUID) (int64, error) {
	return s.repo.CountByUser(userID)
}
