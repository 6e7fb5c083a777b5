package recommendation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/pkg/logger"
)

const (
	DefaultMaxFeatures = 5000

	minTrainingCorpus = 10
	corpusFetchPages  = 5
	genreRepeat       = 3
)

type contentState struct {
	movies     []movie.Movie
	index      map[int]int // movie id -> row
	similarity [][]float64
}

// ContentRecommender ranks movies by TF-IDF cosine similarity of their
// genre, overview and title text
type ContentRecommender struct {
	store       MovieStore
	provider    Provider
	maxFeatures int
	logger      *logger.Logger

	mu    sync.RWMutex
	state *contentState
}

func NewContentRecommender(store MovieStore, provider Provider, maxFeatures int, log *logger.Logger) *ContentRecommender {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &ContentRecommender{
		store:       store,
		provider:    provider,
		maxFeatures: maxFeatures,
		logger:      log.WithComponent("content-recommender"),
	}
}

// featureText repeats the genre list to weight it above free text
func featureText(m movie.Movie) string {
	parts := make([]string, 0, genreRepeat+2)
	if m.Genres != "" {
		for i := 0; i < genreRepeat; i++ {
			parts = append(parts, m.Genres)
		}
	}
	if m.Overview != "" {
		parts = append(parts, m.Overview)
	}
	if m.Title != "" {
		parts = append(parts, m.Title)
	}
	return strings.Join(parts, " ")
}

// BuildFeatures vectorises movies and computes the full pairwise similarity
// matrix. On error the previously built state is kept.
func (c *ContentRecommender) BuildFeatures(movies []movie.Movie) error {
	if len(movies) == 0 {
		return fmt.Errorf("%w: no movies", ErrInsufficientData)
	}

	docs := make([]string, len(movies))
	for i, m := range movies {
		docs[i] = featureText(m)
	}

	vectors, err := NewVectorizer(c.maxFeatures).FitTransform(docs)
	if err != nil {
		return err
	}

	n := len(movies)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sim[i][i] = vectors[i].Dot(vectors[i])
		for j := i + 1; j < n; j++ {
			s := vectors[i].Dot(vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	index := make(map[int]int, n)
	for i, m := range movies {
		if _, dup := index[m.ID]; !dup {
			index[m.ID] = i
		}
	}

	state := &contentState{
		movies:     append([]movie.Movie(nil), movies...),
		index:      index,
		similarity: sim,
	}

	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	return nil
}

// Recommend returns up to n movies most similar to movieID, never including
// movieID itself. Ties keep corpus order.
func (c *ContentRecommender) Recommend(movieID, n int) []movie.Movie {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	if state == nil || n <= 0 {
		return nil
	}
	row, ok := state.index[movieID]
	if !ok {
		return nil
	}

	candidates := make([]int, 0, len(state.movies))
	for i, m := range state.movies {
		if m.ID != movieID {
			candidates = append(candidates, i)
		}
	}
	scores := state.similarity[row]
	sort.SliceStable(candidates, func(a, b int) bool {
		return scores[candidates[a]] > scores[candidates[b]]
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]movie.Movie, len(candidates))
	for i, idx := range candidates {
		out[i] = state.movies[idx]
	}
	return out
}

// Similarity looks up the cosine similarity of two trained movies
func (c *ContentRecommender) Similarity(a, b int) (float64, bool) {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	if state == nil {
		return 0, false
	}
	i, ok := state.index[a]
	if !ok {
		return 0, false
	}
	j, ok := state.index[b]
	if !ok {
		return 0, false
	}
	return state.similarity[i][j], true
}

func (c *ContentRecommender) IsTrained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state != nil
}

func (c *ContentRecommender) MovieCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return 0
	}
	return len(c.state.movies)
}

// Train builds features from the movie cache, seeding it from the provider's
// popular list when it holds too few movies
func (c *ContentRecommender) Train(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.TrainingDuration.WithLabelValues("content").Observe(time.Since(start).Seconds())
	}()

	movies, err := c.store.All()
	if err != nil {
		metrics.TrainingRuns.WithLabelValues("content", "failure").Inc()
		return fmt.Errorf("failed to read movie cache: %w", err)
	}

	if len(movies) < minTrainingCorpus && c.provider != nil {
		c.logger.Infof("Only %d cached movies, fetching popular movies for training", len(movies))
		c.fetchCorpus(ctx)

		movies, err = c.store.All()
		if err != nil {
			metrics.TrainingRuns.WithLabelValues("content", "failure").Inc()
			return fmt.Errorf("failed to read movie cache: %w", err)
		}
	}

	if err := c.BuildFeatures(movies); err != nil {
		metrics.TrainingRuns.WithLabelValues("content", "failure").Inc()
		return err
	}

	metrics.TrainingRuns.WithLabelValues("content", "success").Inc()
	metrics.TrainedItems.WithLabelValues("content").Set(float64(len(movies)))
	c.logger.Infof("Content-based model trained with %d movies", len(movies))
	return nil
}

// fetchCorpus caches the details of every movie on the first popular pages.
// Provider failures skip the page or movie.
func (c *ContentRecommender) fetchCorpus(ctx context.Context) {
	for page := 1; page <= corpusFetchPages; page++ {
		if ctx.Err() != nil {
			return
		}
		result, err := c.provider.Popular(ctx, page)
		if err != nil {
			c.logger.Errorf(err, "Failed to fetch popular page %d", page)
			continue
		}

		for _, r := range result.Results {
			details, err := c.provider.MovieDetails(ctx, r.ID)
			if err != nil {
				c.logger.Debugf("Skipping movie %d: %v", r.ID, err)
				continue
			}
			m := c.provider.FormatMovie(*details)
			if err := c.store.Cache(&m); err != nil {
				c.logger.Errorf(err, "Failed to cache movie %d", m.ID)
			}
		}
	}
}
