package recommendation

import (
	"context"
	"fmt"

	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/internal/utils"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// service implements the Service interface
type service struct {
	hybrid     *HybridRecommender
	ratings    RatingSource
	users      UserChecker
	minRatings int
	logger     *logger.Logger
}

// NewService creates a new recommendation service
func NewService(hybrid *HybridRecommender, ratings RatingSource, users UserChecker, log *logger.Logger) Service {
	return &service{
		hybrid:     hybrid,
		ratings:    ratings,
		users:      users,
		minRatings: hybrid.collaborative.minRatings,
		logger:     log.WithComponent("recommendation-service"),
	}
}

func (s *service) GetRecommendations(ctx context.Context, userID uuid.UUID, limit int, movieID *int) (*Response, error) {
	limit = utils.ClampLimit(limit, defaultLimit, maxLimit)
	s.logger.Debugf("Getting recommendations for user %s with limit %d", userID, limit)

	exists, err := s.users.UserExists(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	count, err := s.ratings.CountByUser(userID)
	if err != nil {
		s.logger.Errorf(err, "Failed to count ratings for user %s", userID)
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}

	if count < int64(s.minRatings) {
		movies := s.hybrid.GetRecommendationsForNewUser(ctx, limit)
		metrics.Recommendations.WithLabelValues(MethodPopular).Inc()
		s.logger.Infof("Served %d popular recommendations to user %s (%d ratings)", len(movies), userID, count)
		return BuildResponse(movies, userID, MethodPopular), nil
	}

	movies := s.hybrid.Recommend(ctx, userID, limit, movieID)
	metrics.Recommendations.WithLabelValues(MethodHybrid).Inc()
	s.logger.Infof("Served %d hybrid recommendations to user %s", len(movies), userID)
	return BuildResponse(movies, userID, MethodHybrid), nil
}

func (s *service) Train(ctx context.Context) error {
	return s.hybrid.Train(ctx)
}

func (s *service) Status() Status {
	return Status{
		ContentTrained:       s.hybrid.content.IsTrained(),
		ContentMovies:        s.hybrid.content.MovieCount(),
		CollaborativeTrained: s.hybrid.collaborative.IsTrained(),
		CollaborativeUsers:   s.hybrid.collaborative.UserCount(),
	}
}
