package recommendation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	DefaultContentWeight       = 0.4
	DefaultCollaborativeWeight = 0.6

	fallbackPredictedRating = 3.5
	contentSeedScale        = 4.0
	minPopularity           = 1e-3
)

// Weights splits the hybrid score between the two recommenders
type Weights struct {
	Content       float64
	Collaborative float64
}

// HybridRecommender fuses collaborative predictions with content
// similarity and rescales by provider rating and popularity
type HybridRecommender struct {
	content       *ContentRecommender
	collaborative *CollaborativeRecommender
	ratings       RatingSource
	provider      Provider
	weights       Weights
	logger        *logger.Logger
}

// NewHybridRecommender wires both recommenders from the shared dependencies
func NewHybridRecommender(cfg *config.RecommenderConfig, store MovieStore, ratings RatingSource, provider Provider, log *logger.Logger) (*HybridRecommender, error) {
	if cfg == nil {
		cfg = &config.RecommenderConfig{}
	}

	wContent, err := floatOr(cfg.ContentWeight, DefaultContentWeight)
	if err != nil {
		return nil, fmt.Errorf("invalid content weight '%s': %v", cfg.ContentWeight, err)
	}
	wCollab, err := floatOr(cfg.CollaborativeWeight, DefaultCollaborativeWeight)
	if err != nil {
		return nil, fmt.Errorf("invalid collaborative weight '%s': %v", cfg.CollaborativeWeight, err)
	}
	minRatings, err := intOr(cfg.MinRatingsForCollaborative, DefaultMinRatings)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum ratings '%s': %v", cfg.MinRatingsForCollaborative, err)
	}
	maxFeatures, err := intOr(cfg.MaxFeatures, DefaultMaxFeatures)
	if err != nil {
		return nil, fmt.Errorf("invalid max features '%s': %v", cfg.MaxFeatures, err)
	}

	return &HybridRecommender{
		content:       NewContentRecommender(store, provider, maxFeatures, log),
		collaborative: NewCollaborativeRecommender(ratings, store, minRatings, log),
		ratings:       ratings,
		provider:      provider,
		weights:       Weights{Content: wContent, Collaborative: wCollab},
		logger:        log.WithComponent("hybrid-recommender"),
	}, nil
}

func floatOr(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return v, nil
}

func intOr(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return v, nil
}

func (h *HybridRecommender) Content() *ContentRecommender {
	return h.content
}

func (h *HybridRecommender) Collaborative() *CollaborativeRecommender {
	return h.collaborative
}

// Train rebuilds the content model, then the collaborative one. Too little
// rating data only disables collaborative scoring.
func (h *HybridRecommender) Train(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.TrainingDuration.WithLabelValues("hybrid").Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("Training content-based recommender")
	contentErr := h.content.Train(ctx)
	if contentErr != nil {
		h.logger.Errorf(contentErr, "Content-based training failed")
	}

	h.logger.Info("Training collaborative recommender")
	if !h.collaborative.TrainModel(ctx) {
		h.logger.Info("Collaborative filtering not available (insufficient data)")
	}

	if contentErr != nil {
		metrics.TrainingRuns.WithLabelValues("hybrid", "failure").Inc()
		return contentErr
	}
	metrics.TrainingRuns.WithLabelValues("hybrid", "success").Inc()
	return nil
}

type scoredCandidate struct {
	movie movie.Movie
	score float64
}

// Recommend returns up to n movies for userID. When movieID is nil the
// user's highest rated movie is the content reference.
func (h *HybridRecommender) Recommend(ctx context.Context, userID uuid.UUID, n int, movieID *int) []movie.Movie {
	if n <= 0 || ctx.Err() != nil {
		return nil
	}

	var order []int
	candidates := make(map[int]*scoredCandidate)

	if h.collaborative.IsTrained() {
		for _, sm := range h.collaborative.RecommendForUser(userID, int(float64(n)*h.weights.Collaborative*2)) {
			predicted := sm.PredictedRating
			if predicted == 0 {
				predicted = fallbackPredictedRating
			}
			if _, ok := candidates[sm.Movie.ID]; !ok {
				order = append(order, sm.Movie.ID)
			}
			candidates[sm.Movie.ID] = &scoredCandidate{movie: sm.Movie, score: predicted * h.weights.Collaborative}
		}
	}

	reference, ok := h.referenceMovie(userID, movieID)
	if ok {
		bonus := h.weights.Content * contentSeedScale
		for _, m := range h.content.Recommend(reference, int(float64(n)*h.weights.Content*2)) {
			if c, exists := candidates[m.ID]; exists {
				c.score += bonus
				continue
			}
			order = append(order, m.ID)
			candidates[m.ID] = &scoredCandidate{movie: m, score: bonus}
		}
	}

	ranked := make([]*scoredCandidate, 0, len(order))
	for _, id := range order {
		c := candidates[id]
		c.score *= c.movie.VoteAverage / 10
		c.score *= 1 + math.Log10(math.Max(c.movie.Popularity, minPopularity))/10
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]movie.Movie, len(ranked))
	for i, c := range ranked {
		out[i] = c.movie
	}
	return out
}

// referenceMovie picks the explicit movie or the first highest rated one in
// most-recent-first order
func (h *HybridRecommender) referenceMovie(userID uuid.UUID, movieID *int) (int, bool) {
	if movieID != nil && *movieID > 0 {
		return *movieID, true
	}

	ratings, err := h.ratings.FindByUser(userID)
	if err != nil {
		h.logger.Errorf(err, "Failed to read ratings for %s", userID)
		return 0, false
	}
	if len(ratings) == 0 {
		return 0, false
	}

	best := ratings[0]
	for _, r := range ratings[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best.MovieID, true
}

// GetRecommendationsForNewUser returns the first n weekly trending movies
func (h *HybridRecommender) GetRecommendationsForNewUser(ctx context.Context, n int) []movie.Movie {
	if n <= 0 || h.provider == nil {
		return nil
	}

	page, err := h.provider.Trending(ctx, "week")
	if err != nil {
		h.logger.Errorf(err, "Failed to fetch trending movies")
		return nil
	}

	results := page.Results
	if len(results) > n {
		results = results[:n]
	}
	if len(results) > 0 {
		if _, err := h.provider.Genres(ctx); err != nil {
			h.logger.Debugf("Genre list unavailable: %v", err)
		}
	}
	out := make([]movie.Movie, 0, len(results))
	for _, r := range results {
		out = append(out, h.provider.FormatMovie(r))
	}
	return out
}
