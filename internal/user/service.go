package user

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/internal/textutil"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const topGenreCount = 3

// service implements the Service interface
type service struct {
	repo      Repository
	jwtSecret string
	jwtExpiry time.Duration
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a user service with JWT validation and defaults
func NewService(cfg *config.JWTConfig, repo Repository, log *logger.Logger) (*service, error) {
	secret := "change-me-in-production"
	if cfg != nil && cfg.Secret != "" {
		secret = cfg.Secret
	}

	var expiry time.Duration = 24 * time.Hour
	if cfg != nil && cfg.Expiration != "" {
		duration, err := time.ParseDuration(cfg.Expiration)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT expiration '%s': %v", cfg.Expiration, err)
		}
		expiry = duration
	}

	return &service{
		repo:      repo,
		jwtSecret: secret,
		jwtExpiry: expiry,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    log.WithComponent("user-service"),
	}, nil
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *service) CreateUser(username string) (*User, string, error) {
	username = strings.TrimSpace(username)
	s.logger.Info("Creating user: " + username)

	user := &User{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	if err := s.validate.Struct(user); err != nil {
		return nil, "", fmt.Errorf("invalid username: %w", err)
	}

	if existing, _ := s.repo.FindByUsername(username); existing != nil {
		s.logger.Info("User creation failed - username taken: " + username)
		return nil, "", ErrUserExists
	}

	if err := s.repo.Create(user); err != nil {
		s.logger.Errorf(err, "Failed to create user %s", username)
		return nil, "", err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User created successfully: " + username + " (ID: " + user.ID.String() + ")")
	return user, token, nil
}

// Login issues a fresh token for an existing username
func (s *service) Login(username string) (*User, string, error) {
	user, err := s.repo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) GetUserByID(id uuid.UUID) (*User, error) {
	return s.repo.FindByID(id)
}

// UserExists satisfies rating.UserValidator
func (s *service) UserExists(id uuid.UUID) (bool, error) {
	_, err := s.repo.FindByID(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) GetProfile(id uuid.UUID) (*Profile, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	prefs, err := s.repo.FindPreferences(id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	count, avg, genreLists, err := s.repo.RatingSummary(id)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:        user.ToResponse(),
		Preferences: prefs,
		Stats: &Stats{
			RatingCount:   count,
			AverageRating: avg / 2,
			TopGenres:     topGenres(genreLists, topGenreCount),
		},
	}, nil
}

// topGenres counts individual genre names across comma joined lists
func topGenres(lists []string, n int) []string {
	counts := make(map[string]int)
	for _, l := range lists {
		for _, g := range textutil.SplitList(l) {
			counts[g]++
		}
	}

	names := make([]string, 0, len(counts))
	for g := range counts {
		names = append(names, g)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > n {
		names = names[:n]
	}
	return names
}

func (s *service) UpdatePreferences(id uuid.UUID, genres, actors *string) (*Preferences, error) {
	if _, err := s.repo.FindByID(id); err != nil {
		return nil, err
	}
	normalize := func(v *string) *string {
		if v == nil {
			return nil
		}
		joined := textutil.JoinList(strings.Split(*v, ","))
		return &joined
	}
	return s.repo.UpsertPreferences(id, normalize(genres), normalize(actors))
}

func (s *service) ValidateToken(tokenString string) (*User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errors.New("invalid user ID in token")
	}

	user, err := s.repo.FindByID(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	return user, nil
}

func (s *service) generateToken(user *User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "movie-chat-backend",
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
