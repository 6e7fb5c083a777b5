package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/movie-chat-backend/internal/intent"
	"github.com/dustin/movie-chat-backend/internal/metrics"
	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/internal/tmdb"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repo        Repository
	provider    Provider
	movies      MovieCache
	recommender Recommender
	ratings     RatingCounter
	parser      *intent.Parser
	minRatings  int
	now         func() time.Time
	logger      *logger.Logger
}

// NewService creates a chat service. recommender may be nil, in which case
// open ended messages are answered from the provider's lists.
func NewService(repo Repository, provider Provider, movies MovieCache, recommender Recommender, ratings RatingCounter, minRatings int, log *logger.Logger) Service {
	if minRatings <= 0 {
		minRatings = 5
	}
	return &service{
		repo:        repo,
		provider:    provider,
		movies:      movies,
		recommender: recommender,
		ratings:     ratings,
		parser:      intent.NewParser(),
		minRatings:  minRatings,
		now:         time.Now,
		logger:      log.WithComponent("chat-service"),
	}
}

// ProcessMessage answers one chat message. Provider outages produce an empty
// movie list; any other failure produces the apology reply.
func (s *service) ProcessMessage(ctx context.Context, userID uuid.UUID, message string) *Response {
	parsed := s.parser.Parse(message)
	ents := parsed.Entities

	movies, reply, err := s.dispatch(ctx, userID, parsed)
	if err != nil {
		s.logger.Errorf(err, "Error processing message for user %s", userID)
		metrics.ChatMessages.WithLabelValues(IntentError).Inc()
		return &Response{Reply: apologyReply, Movies: []*movie.Response{}, Intent: IntentError}
	}

	if n := parsed.LimitOr(defaultResultLimit); len(movies) > n {
		movies = movies[:n]
	}

	for i := range movies {
		if err := s.movies.Cache(&movies[i]); err != nil {
			s.logger.Debugf("Skipping cache of movie %d: %v", movies[i].ID, err)
		}
	}

	record := &Message{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		Response:  reply,
		Intent:    string(parsed.Intent),
		CreatedAt: s.now(),
	}
	if err := s.repo.Save(record); err != nil {
		s.logger.Errorf(err, "Failed to save chat history for user %s", userID)
		metrics.ChatMessages.WithLabelValues(IntentError).Inc()
		return &Response{Reply: apologyReply, Movies: []*movie.Response{}, Intent: IntentError}
	}

	metrics.ChatMessages.WithLabelValues(string(parsed.Intent)).Inc()
	return &Response{
		Reply:    reply,
		Movies:   movie.ToResponses(movies),
		Intent:   string(parsed.Intent),
		Entities: ents,
	}
}

func (s *service) dispatch(ctx context.Context, userID uuid.UUID, parsed intent.Result) ([]movie.Movie, string, error) {
	ents := parsed.Entities
	limit := parsed.Limit

	switch parsed.Intent {
	case intent.Trending:
		movies, err := s.trending(ctx, ents)
		switch {
		case limit > 0 && ents.Year > 0:
			return movies, fmt.Sprintf("Here are the top %d movies from %d! 🎬", limit, ents.Year), err
		case ents.Year > 0:
			return movies, fmt.Sprintf("Here are the best movies from %d! 🎬", ents.Year), err
		case limit > 0:
			return movies, fmt.Sprintf("Here are the top %d trending movies right now! 🎬", limit), err
		default:
			return movies, "Here are the trending movies right now! 🎬", err
		}

	case intent.SimilarMovie:
		movies, err := s.similar(ctx, ents)
		reference := orDefault(ents.ReferenceMovie, "that movie")
		if len(movies) > 0 {
			return movies, fmt.Sprintf("Great choice! Here are movies similar to %s:", reference), err
		}
		return movies, fmt.Sprintf("I couldn't find '%s'. Could you try rephrasing or check the spelling?", reference), err

	case intent.ActorSearch:
		movies, err := s.actor(ctx, ents)
		actor := orDefault(ents.Actor, "that actor")
		if len(movies) > 0 {
			return movies, fmt.Sprintf("Here are popular movies featuring %s:", actor), err
		}
		return movies, fmt.Sprintf("I couldn't find movies with %s. Could you check the spelling?", actor), err

	case intent.GenreSearch, intent.MoodSearch:
		movies, err := s.genre(ctx, ents, parsed.Filters)
		genre := orDefault(ents.Genre, "that genre")
		switch {
		case limit > 0 && ents.Year > 0:
			return movies, fmt.Sprintf("Here are the top %d %s movies from %d! 🍿", limit, genre, ents.Year), err
		case ents.Year > 0:
			return movies, fmt.Sprintf("Here are some great %s movies from %d! 🍿", genre, ents.Year), err
		case limit > 0:
			return movies, fmt.Sprintf("Here are the top %d %s movies! 🍿", limit, genre), err
		default:
			return movies, fmt.Sprintf("Here are some great %s movies for you! 🍿", genre), err
		}

	case intent.YearSearch:
		movies, err := s.year(ctx, ents)
		return movies, fmt.Sprintf("Here are some popular movies from around %d:", ents.Year), err

	case intent.TitleSearch:
		movies, err := s.title(ctx, ents)
		if len(movies) > 0 {
			return movies, "Here's what I found:", err
		}
		return movies, "I couldn't find that movie. Try searching with a different title.", err

	default:
		movies, err := s.general(ctx, userID, parsed.LimitOr(defaultResultLimit))
		return movies, "Based on your preferences, you might enjoy these movies:", err
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// softMiss turns provider outages and misses into an empty result
func softMiss(err error) error {
	if errors.Is(err, tmdb.ErrUnavailable) || errors.Is(err, tmdb.ErrNotFound) {
		return nil
	}
	return err
}

func (s *service) format(ctx context.Context, results []tmdb.MovieResult) []movie.Movie {
	if len(results) == 0 {
		return nil
	}
	// warms the genre list FormatMovie resolves ids against
	if _, err := s.provider.Genres(ctx); err != nil {
		s.logger.Debugf("Genre list unavailable: %v", err)
	}
	return s.provider.FormatMovies(results)
}

func (s *service) page(ctx context.Context, page *tmdb.MoviePage, err error) ([]movie.Movie, error) {
	if err != nil {
		return nil, softMiss(err)
	}
	return s.format(ctx, page.Results), nil
}

func (s *service) trending(ctx context.Context, ents intent.Entities) ([]movie.Movie, error) {
	if ents.Year > 0 {
		found, err := s.provider.Discover(ctx, tmdb.DiscoverParams{
			Year:      ents.Year,
			SortBy:    "vote_average.desc",
			MinRating: 7.0,
		})
		return s.page(ctx, found, err)
	}
	found, err := s.provider.Trending(ctx, "week")
	return s.page(ctx, found, err)
}

func (s *service) similar(ctx context.Context, ents intent.Entities) ([]movie.Movie, error) {
	if ents.ReferenceMovie == "" {
		return nil, nil
	}
	found, err := s.provider.SearchMovies(ctx, ents.ReferenceMovie, 1)
	if err != nil {
		return nil, softMiss(err)
	}
	if len(found.Results) == 0 {
		return nil, nil
	}
	similar, err := s.provider.SimilarMovies(ctx, found.Results[0].ID, 1)
	return s.page(ctx, similar, err)
}

func (s *service) actor(ctx context.Context, ents intent.Entities) ([]movie.Movie, error) {
	if ents.Actor == "" {
		return nil, nil
	}
	results, err := s.provider.SearchByActor(ctx, ents.Actor, actorSearchLimit)
	if err != nil {
		return nil, softMiss(err)
	}

	if ents.Genre != "" && len(results) > 0 {
		if genreID, ok := s.provider.GenreID(ctx, ents.Genre); ok {
			filtered := results[:0:0]
			for _, r := range results {
				if containsInt(r.GenreIDs, genreID) {
					filtered = append(filtered, r)
				}
			}
			results = filtered
		}
	}
	return s.format(ctx, results), nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (s *service) genre(ctx context.Context, ents intent.Entities, filters intent.Filters) ([]movie.Movie, error) {
	if ents.Genre == "" {
		return nil, nil
	}
	genreID, ok := s.provider.GenreID(ctx, ents.Genre)
	if !ok {
		return nil, nil
	}

	minRating := 6.0
	if filters.MinRating > 0 {
		minRating = filters.MinRating
	}
	found, err := s.provider.Discover(ctx, tmdb.DiscoverParams{
		GenreID:   genreID,
		Year:      ents.Year,
		SortBy:    "vote_average.desc",
		MinRating: minRating,
	})
	return s.page(ctx, found, err)
}

func (s *service) year(ctx context.Context, ents intent.Entities) ([]movie.Movie, error) {
	if ents.Year == 0 {
		return nil, nil
	}
	found, err := s.provider.Discover(ctx, tmdb.DiscoverParams{
		Year:      ents.Year,
		SortBy:    "vote_average.desc",
		MinRating: 6.0,
	})
	return s.page(ctx, found, err)
}

func (s *service) title(ctx context.Context, ents intent.Entities) ([]movie.Movie, error) {
	if ents.Query == "" {
		return nil, nil
	}
	found, err := s.provider.SearchMovies(ctx, ents.Query, 1)
	return s.page(ctx, found, err)
}

// general serves personalised picks to users with enough ratings and
// trending movies to everyone else; the provider lists back up an empty
// recommender answer
func (s *service) general(ctx context.Context, userID uuid.UUID, limit int) ([]movie.Movie, error) {
	count, err := s.ratings.CountByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}
	experienced := count >= int64(s.minRatings)

	if s.recommender != nil {
		var picks []movie.Movie
		if experienced {
			picks = s.recommender.Recommend(ctx, userID, limit, nil)
		} else {
			picks = s.recommender.GetRecommendationsForNewUser(ctx, limit)
		}
		if len(picks) > 0 {
			return picks, nil
		}
	}

	var fallback *tmdb.MoviePage
	if experienced {
		fallback, err = s.provider.Popular(ctx, 1)
	} else {
		fallback, err = s.provider.Trending(ctx, "week")
	}
	return s.page(ctx, fallback, err)
}

func (s *service) History(userID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.repo.FindRecent(userID, limit)
}
