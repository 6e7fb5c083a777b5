package movie

import (
	"errors"
	"testing"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows      map[int]Movie
	upsertErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int]Movie)}
}

func (r *memoryRepo) Upsert(m *Movie) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.rows[m.ID] = *m
	return nil
}

func (r *memoryRepo) FindByID(id int) (*Movie, error) {
	m, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *memoryRepo) FindAll() ([]Movie, error) {
	out := make([]Movie, 0, len(r.rows))
	for _, m := range r.rows {
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryRepo) DeleteCachedBefore(cutoff time.Time) (int64, error) {
	var n int64
	for id, m := range r.rows {
		if m.CachedAt.Before(cutoff) {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func TestMovie_Helpers(t *testing.T) {
	m := Movie{
		ID:          27205,
		Title:       "Inception",
		ReleaseDate: "2010-07-16",
		PosterPath:  "/poster.jpg",
		Genres:      "Action, Science Fiction,Adventure",
		VoteAverage: 8.36,
	}

	assert.Equal(t, 2010, m.Year())
	assert.Equal(t, []string{"Action", "Science Fiction", "Adventure"}, m.GenreList())
	assert.Equal(t, DefaultPosterBase+"/poster.jpg", m.PosterURL(""))
	assert.Equal(t, "", m.BackdropURL(""))
	assert.Equal(t, "movie_cache", m.TableName())

	resp := m.ToResponse()
	assert.Equal(t, 8.4, resp.Rating)
	assert.Equal(t, 2010, resp.Year)
	assert.Len(t, resp.Genres, 3)
}

func TestMovie_YearPartialDates(t *testing.T) {
	testCases := []struct {
		date     string
		expected int
	}{
		{"1999", 1999},
		{"1999-03", 1999},
		{"", 0},
		{"19", 0},
		{"abcd-01-01", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.date, func(t *testing.T) {
			m := Movie{ReleaseDate: tc.date}
			assert.Equal(t, tc.expected, m.Year())
		})
	}
}

func TestMovie_Validate(t *testing.T) {
	valid := Movie{ID: 1, Title: "Heat", VoteAverage: 7.9, Popularity: 30}
	assert.NoError(t, valid.Validate())

	testCases := []struct {
		name  string
		movie Movie
	}{
		{"missing id", Movie{Title: "Heat"}},
		{"missing title", Movie{ID: 1}},
		{"vote average above 10", Movie{ID: 1, Title: "Heat", VoteAverage: 11}},
		{"negative popularity", Movie{ID: 1, Title: "Heat", Popularity: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.movie.Validate())
		})
	}
}

func TestService_CacheAndExpiry(t *testing.T) {
	repo := newMemoryRepo()
	svc, err := NewService(&config.RecommenderConfig{CacheExpiry: "1h"}, repo, logger.Nop())
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return now }

	require.NoError(t, svc.Cache(&Movie{ID: 1, Title: "Heat"}))
	got, err := svc.Get(1)
	require.NoError(t, err)
	assert.Equal(t, now, got.CachedAt)

	// past the TTL the row is a miss for Get but still part of All
	now = now.Add(2 * time.Hour)
	_, err = svc.Get(1)
	assert.True(t, IsNotFound(err))

	all, err := svc.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	n, err := svc.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	all, _ = svc.All()
	assert.Empty(t, all)
}

func TestService_CacheRejectsInvalid(t *testing.T) {
	repo := newMemoryRepo()
	svc, err := NewService(nil, repo, logger.Nop())
	require.NoError(t, err)

	assert.Error(t, svc.Cache(&Movie{ID: 0, Title: "nope"}))
	assert.Empty(t, repo.rows)

	repo.upsertErr = errors.New("db down")
	assert.Error(t, svc.Cache(&Movie{ID: 2, Title: "ok"}))
}

func TestNewService_InvalidExpiry(t *testing.T) {
	_, err := NewService(&config.RecommenderConfig{CacheExpiry: "soon"}, newMemoryRepo(), logger.Nop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache expiry")

	_, err = NewService(&config.RecommenderConfig{CacheExpiry: "-1h"}, newMemoryRepo(), logger.Nop())
	assert.Error(t, err)
}
