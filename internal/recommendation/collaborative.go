package recommendation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/internal/rating"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	DefaultMinRatings = 5

	minTrainingUsers    = 2
	fitNeighbours       = 20
	recommendNeighbours = 6 // includes the user
)

// UserItemMatrix holds one row per user and one column per movie. Rows and
// columns are sorted; unrated cells are 0.
type UserItemMatrix struct {
	UserIDs  []uuid.UUID
	MovieIDs []int
	Values   [][]float64

	userIndex map[uuid.UUID]int
}

// Row returns the index of userID
func (m *UserItemMatrix) Row(userID uuid.UUID) (int, bool) {
	i, ok := m.userIndex[userID]
	return i, ok
}

// BuildUserItemMatrix pivots ratings into a matrix. Repeated (user, movie)
// pairs are averaged.
func BuildUserItemMatrix(ratings []rating.Rating, minRatings int) (*UserItemMatrix, error) {
	if len(ratings) < minRatings || len(ratings) == 0 {
		return nil, fmt.Errorf("%w: %d ratings", ErrInsufficientData, len(ratings))
	}

	type cell struct {
		sum   float64
		count int
	}
	cells := make(map[uuid.UUID]map[int]*cell)
	movieSet := make(map[int]struct{})
	for _, r := range ratings {
		row, ok := cells[r.UserID]
		if !ok {
			row = make(map[int]*cell)
			cells[r.UserID] = row
		}
		c, ok := row[r.MovieID]
		if !ok {
			c = &cell{}
			row[r.MovieID] = c
		}
		c.sum += r.Score
		c.count++
		movieSet[r.MovieID] = struct{}{}
	}

	users := make([]uuid.UUID, 0, len(cells))
	for u := range cells {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].String() < users[j].String() })

	movies := make([]int, 0, len(movieSet))
	for id := range movieSet {
		movies = append(movies, id)
	}
	sort.Ints(movies)

	col := make(map[int]int, len(movies))
	for j, id := range movies {
		col[id] = j
	}

	m := &UserItemMatrix{
		UserIDs:   users,
		MovieIDs:  movies,
		Values:    make([][]float64, len(users)),
		userIndex: make(map[uuid.UUID]int, len(users)),
	}
	for i, u := range users {
		m.userIndex[u] = i
		row := make([]float64, len(movies))
		for id, c := range cells[u] {
			row[col[id]] = c.sum / float64(c.count)
		}
		m.Values[i] = row
	}
	return m, nil
}

// neighbour is one kNN hit
type neighbour struct {
	row      int
	distance float64
}

// knnIndex is a brute-force cosine nearest neighbour index over matrix rows
type knnIndex struct {
	rows  [][]float64
	norms []float64
	k     int
}

func fitKNN(rows [][]float64, k int) *knnIndex {
	norms := make([]float64, len(rows))
	for i, r := range rows {
		var s float64
		for _, v := range r {
			s += v * v
		}
		norms[i] = math.Sqrt(s)
	}
	return &knnIndex{rows: rows, norms: norms, k: k}
}

func (idx *knnIndex) cosineDistance(q []float64, qNorm float64, i int) float64 {
	if qNorm == 0 || idx.norms[i] == 0 {
		return 1
	}
	var dot float64
	for j, v := range q {
		dot += v * idx.rows[i][j]
	}
	return 1 - dot/(qNorm*idx.norms[i])
}

// query returns up to k rows nearest to q by cosine distance. Equal
// distances keep row order.
func (idx *knnIndex) query(q []float64, k int) []neighbour {
	if k <= 0 {
		k = idx.k
	}
	var s float64
	for _, v := range q {
		s += v * v
	}
	qNorm := math.Sqrt(s)

	hits := make([]neighbour, len(idx.rows))
	for i := range idx.rows {
		hits[i] = neighbour{row: i, distance: idx.cosineDistance(q, qNorm, i)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].distance < hits[b].distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// neighboursExcluding queries k+1 rows and drops self, keeping at most k
func (idx *knnIndex) neighboursExcluding(self, k int) []neighbour {
	hits := idx.query(idx.rows[self], k+1)
	out := make([]neighbour, 0, k)
	for _, h := range hits {
		if h.row == self {
			continue
		}
		if len(out) == k {
			break
		}
		out = append(out, h)
	}
	return out
}

type collaborativeState struct {
	matrix *UserItemMatrix
	index  *knnIndex
}

// CollaborativeRecommender predicts ratings from the users with the most
// similar rating vectors
type CollaborativeRecommender struct {
	ratings    RatingSource
	store      MovieStore
	minRatings int
	logger     *logger.Logger

	mu    sync.RWMutex
	state *collaborativeState
}

func NewCollaborativeRecommender(ratings RatingSource, store MovieStore, minRatings int, log *logger.Logger) *CollaborativeRecommender {
	if minRatings <= 0 {
		minRatings = DefaultMinRatings
	}
	return &CollaborativeRecommender{
		ratings:    ratings,
		store:      store,
		minRatings: minRatings,
		logger:     log.WithComponent("collaborative-recommender"),
	}
}

// TrainModel rebuilds the matrix and index from all ratings. It reports
// false and keeps any previous model when data is insufficient.
func (c *CollaborativeRecommender) TrainModel(ctx context.Context) bool {
	start := time.Now()
	defer func() {
		metrics.TrainingDuration.WithLabelValues("collaborative").Observe(time.Since(start).Seconds())
	}()

	if ctx.Err() != nil {
		return false
	}

	all, err := c.ratings.FindAll()
	if err != nil {
		c.logger.Errorf(err, "Failed to read ratings")
		metrics.TrainingRuns.WithLabelValues("collaborative", "failure").Inc()
		return false
	}

	matrix, err := BuildUserItemMatrix(all, c.minRatings)
	if err != nil {
		c.logger.Infof("Not enough ratings for collaborative filtering: %d", len(all))
		metrics.TrainingRuns.WithLabelValues("collaborative", "skipped").Inc()
		return false
	}
	if len(matrix.UserIDs) < minTrainingUsers {
		c.logger.Info("Not enough users for collaborative filtering")
		metrics.TrainingRuns.WithLabelValues("collaborative", "skipped").Inc()
		return false
	}

	state := &collaborativeState{
		matrix: matrix,
		index:  fitKNN(matrix.Values, fitNeighbours),
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	metrics.TrainingRuns.WithLabelValues("collaborative", "success").Inc()
	metrics.TrainedItems.WithLabelValues("collaborative").Set(float64(len(matrix.UserIDs)))
	c.logger.Infof("Collaborative model trained with %d users and %d movies", len(matrix.UserIDs), len(matrix.MovieIDs))
	return true
}

func (c *CollaborativeRecommender) IsTrained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state != nil
}

// MinRatings is the threshold for both training and personalised serving
func (c *CollaborativeRecommender) MinRatings() int {
	return c.minRatings
}

// UserCount is the number of users in the trained matrix
func (c *CollaborativeRecommender) UserCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return 0
	}
	return len(c.state.matrix.UserIDs)
}

// RecommendForUser predicts ratings for movies the user has not rated as the
// mean of the nearest neighbours' non-zero ratings. Movies missing from the
// movie cache are dropped after ranking.
func (c *CollaborativeRecommender) RecommendForUser(userID uuid.UUID, n int) []ScoredMovie {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	if state == nil || n <= 0 {
		return nil
	}
	self, ok := state.matrix.Row(userID)
	if !ok {
		return nil
	}

	seen := state.matrix.Values[self]
	sums := make([]float64, len(state.matrix.MovieIDs))
	counts := make([]int, len(state.matrix.MovieIDs))
	for _, nb := range state.index.neighboursExcluding(self, recommendNeighbours-1) {
		for j, v := range state.matrix.Values[nb.row] {
			if v > 0 && seen[j] == 0 {
				sums[j] += v
				counts[j]++
			}
		}
	}

	type candidate struct {
		col   int
		score float64
	}
	candidates := make([]candidate, 0)
	for j := range sums {
		if counts[j] > 0 {
			candidates = append(candidates, candidate{col: j, score: sums[j] / float64(counts[j])})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].score > candidates[b].score })
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	out := make([]ScoredMovie, 0, len(candidates))
	for _, cand := range candidates {
		movieID := state.matrix.MovieIDs[cand.col]
		m, err := c.store.Get(movieID)
		if err != nil {
			continue
		}
		out = append(out, ScoredMovie{
			Movie:           *m,
			PredictedRating: math.Round(cand.score*100) / 100,
		})
	}
	return out
}

// GetSimilarUsers returns up to n users nearest to userID, nearest first
func (c *CollaborativeRecommender) GetSimilarUsers(userID uuid.UUID, n int) []uuid.UUID {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	if state == nil || n <= 0 {
		return nil
	}
	self, ok := state.matrix.Row(userID)
	if !ok {
		return nil
	}

	hits := state.index.neighboursExcluding(self, n)
	out := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		out[i] = state.matrix.UserIDs[h.row]
	}
	return out
}
