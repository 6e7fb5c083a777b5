package config

// Config contains all configuration grouped by domain
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Worker      WorkerConfig
	Logging     LoggingConfig
	TMDB        TMDBConfig
	Recommender RecommenderConfig
	Cache       CacheConfig
}

// All config structs use string fields only - packages handle conversion during initialization
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  string
	WriteTimeout string
}

// Driver selects the gorm dialect: "postgres" (default) or "sqlite".
// Path is only read by the sqlite dialect.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string
}

type JWTConfig struct {
	Secret     string
	Expiration string
}

type WorkerConfig struct {
	RetrainInterval      string
	CacheCleanupInterval string
}

type LoggingConfig struct {
	Level       string
	Format      string
	ServiceName string
}

// TMDBConfig configures the metadata provider client
type TMDBConfig struct {
	APIKey             string
	BaseURL            string
	ImageBaseURL       string
	Timeout            string
	MinRequestInterval string
	ResponseCacheTTL   string
}

type RecommenderConfig struct {
	ContentWeight              string
	CollaborativeWeight        string
	MinRatingsForCollaborative string
	DefaultRecommendations     string
	MaxFeatures                string
	CacheExpiry                string
}

// CacheConfig enables the shared redis response cache when RedisAddr is set
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       string
}
