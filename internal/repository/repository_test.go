package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	chatPkg "github.com/dustin/movie-chat-backend/internal/chat"
	moviePkg "github.com/dustin/movie-chat-backend/internal/movie"
	ratingPkg "github.com/dustin/movie-chat-backend/internal/rating"
	userPkg "github.com/dustin/movie-chat-backend/internal/user"
	"github.com/dustin/movie-chat-backend/pkg/database"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewConnection(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userPkg.User{},
		&userPkg.Preferences{},
		&ratingPkg.Rating{},
		&moviePkg.Movie{},
		&chatPkg.Message{},
	))
	return db
}

func createUser(t *testing.T, repo userPkg.Repository, name string) *userPkg.User {
	t.Helper()
	u := &userPkg.User{ID: uuid.New(), Username: name}
	require.NoError(t, repo.Create(u))
	return u
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := setupDB(t)
	repo := NewGORMUserRepository(db, logger.Nop())

	alice := createUser(t, repo, "alice")

	found, err := repo.FindByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	found, err = repo.FindByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)

	_, err = repo.FindByUsername("bob")
	assert.ErrorIs(t, err, userPkg.ErrNotFound)
	_, err = repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, userPkg.ErrNotFound)

	err = repo.Create(&userPkg.User{ID: uuid.New(), Username: "alice"})
	assert.ErrorIs(t, err, userPkg.ErrUserExists)
}

func TestUserRepository_UpsertPreferencesKeepsUnsetFields(t *testing.T) {
	db := setupDB(t)
	repo := NewGORMUserRepository(db, logger.Nop())
	alice := createUser(t, repo, "alice")

	_, err := repo.FindPreferences(alice.ID)
	assert.ErrorIs(t, err, userPkg.ErrNotFound)

	genres := "Action,Drama"
	prefs, err := repo.UpsertPreferences(alice.ID, &genres, nil)
	require.NoError(t, err)
	assert.Equal(t, "Action,Drama", prefs.FavoriteGenres)
	assert.Empty(t, prefs.FavoriteActors)

	actors := "Keanu Reeves"
	_, err = repo.UpsertPreferences(alice.ID, nil, &actors)
	require.NoError(t, err)

	prefs, err = repo.FindPreferences(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Action,Drama", prefs.FavoriteGenres)
	assert.Equal(t, "Keanu Reeves", prefs.FavoriteActors)
}

func TestUserRepository_RatingSummary(t *testing.T) {
	db := setupDB(t)
	users := NewGORMUserRepository(db, logger.Nop())
	ratings := NewGORMRatingRepository(db, logger.Nop())
	movies := NewGORMMovieRepository(db, logger.Nop())
	alice := createUser(t, users, "alice")

	count, avg, lists, err := users.RatingSummary(alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)
	assert.Empty(t, lists)

	require.NoError(t, movies.Upsert(&moviePkg.Movie{ID: 155, Title: "The Dark Knight", Genres: "Action,Crime", CachedAt: time.Now()}))
	require.NoError(t, ratings.Upsert(&ratingPkg.Rating{UserID: alice.ID, MovieID: 155, Score: 10}))
	require.NoError(t, ratings.Upsert(&ratingPkg.Rating{UserID: alice.ID, MovieID: 999, Score: 6}))

	count, avg, lists, err = users.RatingSummary(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.InDelta(t, 8.0, avg, 1e-9)
	assert.Equal(t, []string{"Action,Crime"}, lists)
}

func TestRatingRepository_UpsertReplacesScore(t *testing.T) {
	db := setupDB(t)
	repo := NewGORMRatingRepository(db, logger.Nop())
	user := uuid.New()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(&ratingPkg.Rating{UserID: user, MovieID: 27205, Score: 8, CreatedAt: first, UpdatedAt: first}))
	require.NoError(t, repo.Upsert(&ratingPkg.Rating{UserID: user, MovieID: 27205, Score: 4, CreatedAt: first.Add(time.Hour), UpdatedAt: first.Add(time.Hour)}))

	count, err := repo.CountByUser(user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	r, err := repo.FindByUserAndMovie(user, 27205)
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.Score)
	assert.Equal(t, 2.0, r.Stars())
	assert.True(t, r.UpdatedAt.After(r.CreatedAt))

	_, err = repo.FindByUserAndMovie(user, 1)
	assert.ErrorIs(t, err, ratingPkg.ErrNotFound)
}

func TestRatingRepository_Queries(t *testing.T) {
	db := setupDB(t)
	repo := NewGORMRatingRepository(db, logger.Nop())
	alice, bob := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []int{1, 2, 3} {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Upsert(&ratingPkg.Rating{UserID: alice, MovieID: id, Score: 6, CreatedAt: at, UpdatedAt: at}))
	}
	require.NoError(t, repo.Upsert(&ratingPkg.Rating{UserID: bob, MovieID: 1, Score: 10, CreatedAt: base, UpdatedAt: base}))

	mine, err := repo.FindByUser(alice)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{mine[0].MovieID, mine[1].MovieID, mine[2].MovieID})

	all, err := repo.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, repo.Delete(alice, 2))
	assert.ErrorIs(t, repo.Delete(alice, 2), ratingPkg.ErrNotFound)

	count, err := repo.CountByUser(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMovieRepository_UpsertAndPurge(t *testing.T) {
	db := setupDB(t)
	repo := NewGORMMovieRepository(db, logger.Nop())
	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()

	require.NoError(t, repo.Upsert(&moviePkg.Movie{ID: 603, Title: "The Matrix", VoteAverage: 8.2, CachedAt: old}))
	require.NoError(t, repo.Upsert(&moviePkg.Movie{ID: 603, Title: "The Matrix", VoteAverage: 8.7, Genres: "Action,Science Fiction", CachedAt: fresh}))
	require.NoError(t, repo.Upsert(&moviePkg.Movie{ID: 13, Title: "Forrest Gump", CachedAt: old}))

	m, err := repo.FindByID(603)
	require.NoError(t, err)
	assert.Equal(t, 8.7, m.VoteAverage)
	assert.Equal(t, []string{"Action", "Science Fiction"}, m.GenreList())

	all, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 13, all[0].ID)

	n, err := repo.DeleteCachedBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(13)
	assert.ErrorIs(t, err, moviePkg.ErrNotFound)
}

func TestChatRepository_FindRecent(t *testing.T) {
	db := setupDB(t)
	repo := NewGORMChatRepository(db, logger.Nop())
	user := uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(&chatPkg.Message{
			UserID:    user,
			Message:   "message",
			Response:  "reply",
			Intent:    "general",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Save(&chatPkg.Message{UserID: uuid.New(), Message: "other", CreatedAt: base}))

	recent, err := repo.FindRecent(user, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))
	assert.NotEqual(t, uuid.Nil, recent[0].ID)
	for _, m := range recent {
		assert.Equal(t, user, m.UserID)
	}
}
