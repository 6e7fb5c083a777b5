package recommendation

import (
	"context"
	"errors"
	"sort"

	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/internal/rating"
	"github.com/dustin/movie-chat-backend/internal/tmdb"
	"github.com/google/uuid"
)

// memoryStore keeps insertion order so corpus order is deterministic
type memoryStore struct {
	order []int
	rows  map[int]movie.Movie
}

func newMemoryStore(movies ...movie.Movie) *memoryStore {
	s := &memoryStore{rows: make(map[int]movie.Movie)}
	for i := range movies {
		s.Cache(&movies[i])
	}
	return s
}

func (s *memoryStore) All() ([]movie.Movie, error) {
	out := make([]movie.Movie, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}

func (s *memoryStore) Get(id int) (*movie.Movie, error) {
	m, ok := s.rows[id]
	if !ok {
		return nil, movie.ErrNotFound
	}
	return &m, nil
}

func (s *memoryStore) Cache(m *movie.Movie) error {
	if _, ok := s.rows[m.ID]; !ok {
		s.order = append(s.order, m.ID)
	}
	s.rows[m.ID] = *m
	return nil
}

// fakeRatings returns FindByUser in insertion order, newest first by contract
type fakeRatings struct {
	all []rating.Rating
	err error
}

func (f *fakeRatings) add(user uuid.UUID, movieID int, score float64) {
	f.all = append(f.all, rating.Rating{UserID: user, MovieID: movieID, Score: score})
}

func (f *fakeRatings) FindAll() ([]rating.Rating, error) {
	return f.all, f.err
}

func (f *fakeRatings) FindByUser(userID uuid.UUID) ([]rating.Rating, error) {
	var out []rating.Rating
	for _, r := range f.all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeRatings) CountByUser(userID uuid.UUID) (int64, error) {
	rs, err := f.FindByUser(userID)
	return int64(len(rs)), err
}

type fakeProvider struct {
	popular  map[int][]tmdb.MovieResult
	details  map[int]tmdb.MovieResult
	trending []tmdb.MovieResult
	genres   []tmdb.Genre
	err      error

	detailCalls int
	// like the client, list genre ids resolve only once Genres was called
	loaded []tmdb.Genre
}

func (p *fakeProvider) Genres(context.Context) ([]tmdb.Genre, error) {
	p.loaded = p.genres
	return p.genres, nil
}

func (p *fakeProvider) Popular(_ context.Context, page int) (*tmdb.MoviePage, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &tmdb.MoviePage{Page: page, Results: p.popular[page]}, nil
}

func (p *fakeProvider) MovieDetails(_ context.Context, id int) (*tmdb.MovieResult, error) {
	p.detailCalls++
	d, ok := p.details[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &d, nil
}

func (p *fakeProvider) Trending(context.Context, string) (*tmdb.MoviePage, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &tmdb.MoviePage{Results: p.trending}, nil
}

func (p *fakeProvider) FormatMovie(r tmdb.MovieResult) movie.Movie {
	names := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		names = append(names, g.Name)
	}
	if len(names) == 0 {
		for _, id := range r.GenreIDs {
			for _, g := range p.loaded {
				if g.ID == id {
					names = append(names, g.Name)
				}
			}
		}
	}
	sort.Strings(names)
	genres := ""
	for i, n := range names {
		if i > 0 {
			genres += ","
		}
		genres += n
	}
	return movie.Movie{
		ID:          r.ID,
		Title:       r.Title,
		Overview:    r.Overview,
		VoteAverage: r.VoteAverage,
		Popularity:  r.Popularity,
		Genres:      genres,
	}
}

type fakeUsers map[uuid.UUID]bool

func (f fakeUsers) UserExists(id uuid.UUID) (bool, error) {
	return f[id], nil
}

func ids(movies []movie.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

// fourMovies is a small corpus with two science fiction titles
func fourMovies() []movie.Movie {
	return []movie.Movie{
		{ID: 155, Title: "The Dark Knight", Genres: "Action,Crime,Drama", Overview: "Batman faces the Joker in Gotham.", VoteAverage: 9, Popularity: 100},
		{ID: 27205, Title: "Inception", Genres: "Action,Science Fiction,Adventure", Overview: "A thief enters dreams to plant an idea.", VoteAverage: 8.4, Popularity: 80},
		{ID: 11036, Title: "The Notebook", Genres: "Romance,Drama", Overview: "A poor young man falls in love with a rich young woman.", VoteAverage: 8, Popularity: 10},
		{ID: 157336, Title: "Interstellar", Genres: "Adventure,Drama,Science Fiction", Overview: "Explorers travel through a wormhole in space.", VoteAverage: 8.5, Popularity: 1000},
	}
}
