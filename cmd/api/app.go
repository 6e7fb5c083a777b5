package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/internal/adapter"
	"github.com/dustin/movie-chat-backend/internal/chat"
	"github.com/dustin/movie-chat-backend/internal/movie"
	"github.com/dustin/movie-chat-backend/internal/rating"
	"github.com/dustin/movie-chat-backend/internal/recommendation"
	"github.com/dustin/movie-chat-backend/internal/repository"
	"github.com/dustin/movie-chat-backend/internal/tmdb"
	"github.com/dustin/movie-chat-backend/internal/user"
	"github.com/dustin/movie-chat-backend/internal/worker"
	"github.com/dustin/movie-chat-backend/pkg/database"
	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "movie-chat-backend"

// app owns every long lived component of the service
type app struct {
	logger          *logger.Logger
	db              *gorm.DB
	redis           *redis.Client
	tmdb            *tmdb.Client
	recommendations recommendation.Service
	retrainWorker   *worker.Worker
	cleanupWorker   *worker.Worker
	router          *gin.Engine
}

// newApp wires the database, provider, recommenders, services and routes.
// Workers are created but not started.
func newApp(cfg *config.Config, appLogger *logger.Logger) (*app, error) {
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	appLogger.Info("Database connection established")

	if err := db.AutoMigrate(&user.User{}, &user.Preferences{}, &rating.Rating{}, &movie.Movie{}, &chat.Message{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	appLogger.Info("Database migration completed")

	userRepo := repository.NewGORMUserRepository(db, appLogger)
	ratingRepo := repository.NewGORMRatingRepository(db, appLogger)
	movieRepo := repository.NewGORMMovieRepository(db, appLogger)
	chatRepo := repository.NewGORMChatRepository(db, appLogger)

	// Provider responses go to redis when configured, process memory otherwise
	var responseCache tmdb.ResponseCache
	redisClient := newRedisClient(&cfg.Cache, appLogger)
	if redisClient != nil {
		responseCache = tmdb.NewRedisCache(redisClient, "tmdb:", appLogger)
	}
	tmdbClient, err := tmdb.NewClient(&cfg.TMDB, responseCache, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
	}

	movieService, err := movie.NewService(&cfg.Recommender, movieRepo, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize movie cache: %w", err)
	}

	hybrid, err := recommendation.NewHybridRecommender(&cfg.Recommender, movieService, ratingRepo, tmdbClient, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize recommender: %w", err)
	}

	userService, err := user.NewService(&cfg.JWT, userRepo, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user service: %w", err)
	}
	recommendationService := recommendation.NewService(hybrid, ratingRepo, userService, appLogger)

	// Rating writes trigger a retrain through the worker
	trainingJob := adapter.NewTrainingJob(recommendationService, adapter.DefaultTrainingTimeout, appLogger)
	retrainWorker, err := worker.NewRetrainWorker(&cfg.Worker, trainingJob.Run, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retrain worker: %w", err)
	}
	purgeJob := adapter.NewCachePurgeJob(movieService, appLogger)
	cleanupWorker, err := worker.NewCacheCleanupWorker(&cfg.Worker, purgeJob.Run, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache cleanup worker: %w", err)
	}

	ratingService := rating.NewService(ratingRepo, userService, retrainWorker, appLogger)
	chatService := chat.NewService(chatRepo, tmdbClient, movieService, hybrid, ratingRepo, hybrid.Collaborative().MinRatings(), appLogger)

	a := &app{
		logger:          appLogger,
		db:              db,
		redis:           redisClient,
		tmdb:            tmdbClient,
		recommendations: recommendationService,
		retrainWorker:   retrainWorker,
		cleanupWorker:   cleanupWorker,
	}

	userHandler := user.NewHandler(userService)
	a.router = a.newRouter(
		userHandler.AuthMiddleware(),
		userHandler,
		rating.NewHandler(ratingService),
		recommendation.NewHandler(recommendationService, retrainWorker),
		chat.NewHandler(chatService),
		tmdb.NewHandler(tmdbClient, movieService, appLogger),
	)
	return a, nil
}

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc)
}

func (a *app) newRouter(authMiddleware gin.HandlerFunc, features ...routeRegistrar) *gin.Engine {
	router := gin.New()

	router.Use(requestid.New())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   serviceName,
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		status := a.recommendations.Status()
		dbState := "connected"
		if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			dbState = "unreachable"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":                "healthy",
			"timestamp":             time.Now(),
			"service":               serviceName,
			"database":              dbState,
			"retrain_worker":        a.retrainWorker.IsRunning(),
			"cache_cleanup_worker":  a.cleanupWorker.IsRunning(),
			"tmdb_circuit_breaker":  a.tmdb.BreakerState(),
			"content_model_trained": status.ContentTrained,
			"collaborative_trained": status.CollaborativeTrained,
			"shared_response_cache": a.redis != nil,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// each feature manages its own routes
		for _, f := range features {
			f.RegisterRoutes(v1, authMiddleware)
		}
	}
	return router
}

// start launches the workers and queues the initial training pass, which
// runs in the background so startup is not blocked
func (a *app) start() {
	for _, w := range []*worker.Worker{a.retrainWorker, a.cleanupWorker} {
		if err := w.Start(); err != nil {
			a.logger.Error("Failed to start worker " + w.Name() + ": " + err.Error())
		}
	}
	a.retrainWorker.Trigger()
}

func (a *app) close() {
	for _, w := range []*worker.Worker{a.retrainWorker, a.cleanupWorker} {
		if err := w.Stop(); err != nil {
			a.logger.Error("Error stopping worker " + w.Name() + ": " + err.Error())
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Error closing redis client: " + err.Error())
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// newRedisClient returns nil when no address is configured or the server
// does not answer
func newRedisClient(cfg *config.CacheConfig, log *logger.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	dbIndex := 0
	if cfg.RedisDB != "" {
		n, err := strconv.Atoi(cfg.RedisDB)
		if err != nil {
			log.Warn("Invalid REDIS_DB '" + cfg.RedisDB + "', using 0")
		} else {
			dbIndex = n
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       dbIndex,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable at " + cfg.RedisAddr + ", using in-memory response cache: " + err.Error())
		client.Close()
		return nil
	}

	log.Info("Redis response cache connected at " + cfg.RedisAddr)
	return client
}
