package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv populates the environment from the given files (".env" when none
// are given). Variables already set are never overridden and a missing file is
// not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration from environment variables as raw strings
// Components handle validation and defaults during initialization
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         os.Getenv("SERVER_PORT"),
			Environment:  os.Getenv("SERVER_ENV"),
			ReadTimeout:  os.Getenv("SERVER_READ_TIMEOUT"),
			WriteTimeout: os.Getenv("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:   os.Getenv("DB_DRIVER"),
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			SSLMode:  os.Getenv("DB_SSLMODE"),
			Path:     os.Getenv("DB_PATH"),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Expiration: os.Getenv("JWT_EXPIRATION"),
		},
		Worker: WorkerConfig{
			RetrainInterval:      os.Getenv("WORKER_RETRAIN_INTERVAL"),
			CacheCleanupInterval: os.Getenv("WORKER_CACHE_CLEANUP_INTERVAL"),
		},
		Logging: LoggingConfig{
			Level:       os.Getenv("LOG_LEVEL"),
			Format:      os.Getenv("LOG_FORMAT"),
			ServiceName: os.Getenv("SERVICE_NAME"),
		},
		TMDB: TMDBConfig{
			APIKey:             os.Getenv("TMDB_API_KEY"),
			BaseURL:            os.Getenv("TMDB_BASE_URL"),
			ImageBaseURL:       os.Getenv("TMDB_IMAGE_BASE_URL"),
			Timeout:            os.Getenv("TMDB_TIMEOUT"),
			MinRequestInterval: os.Getenv("TMDB_MIN_REQUEST_INTERVAL"),
			ResponseCacheTTL:   os.Getenv("TMDB_RESPONSE_CACHE_TTL"),
		},
		Recommender: RecommenderConfig{
			ContentWeight:              os.Getenv("CONTENT_BASED_WEIGHT"),
			CollaborativeWeight:        os.Getenv("COLLABORATIVE_WEIGHT"),
			MinRatingsForCollaborative: os.Getenv("MIN_RATINGS_FOR_COLLABORATIVE"),
			DefaultRecommendations:     os.Getenv("DEFAULT_RECOMMENDATIONS"),
			MaxFeatures:                os.Getenv("TFIDF_MAX_FEATURES"),
			CacheExpiry:                os.Getenv("CACHE_EXPIRY"),
		},
		Cache: CacheConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       os.Getenv("REDIS_DB"),
		},
	}
}
