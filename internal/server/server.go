package server

import (
	"time"

	"backend-fitlog/internal/auth"
	"backend-fitlog/internal/config"
	"backend-fitlog/internal/exercise"
	"backend-fitlog/internal/goal"
	"backend-fitlog/internal/replay"
	"backend-fitlog/internal/run"
	"backend-fitlog/internal/social"
	"backend-fitlog/internal/storage"
	"backend-fitlog/internal/stream"
	"backend-fitlog/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Runs   *run.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	runStore := run.NewStore(db)

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: hub,
		Runs: run.NewManager(runStore, hub, run.Options{
			NoiseFloorM:     cfg.NoiseFloorM,
			PaceWindowS:     cfg.PaceWindowS,
			FlushInterval:   time.Duration(cfg.FlushIntervalS) * time.Second,
			SampleMaxAge:    time.Duration(cfg.SampleMaxAgeS) * time.Second,
			AcquireTimeout:  time.Duration(cfg.AcquireTimeoutS) * time.Second,
			AbortOnGPSError: cfg.AbortOnGPSError,
		}),
	}

	registerRoutes(s, runStore)
	return s
}

func registerRoutes(s *Server, runStore *run.Store) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	run.RegisterRoutes(s.App.Group("/runs"), s.Runs, runStore, jwtMiddleware)
	replay.RegisterRoutes(s.App.Group("/runs"), runStore)
	exercise.RegisterRoutes(s.App.Group("/exercises"), exercise.NewService(s.DB), jwtMiddleware)
	workout.RegisterRoutes(s.App.Group("/workouts"), workout.NewService(s.DB, nil), jwtMiddleware)
	goal.RegisterRoutes(s.App.Group("/goals"), goal.NewService(s.DB, nil), jwtMiddleware)
	social.RegisterRoutes(s.App.Group("/social"), social.NewService(s.DB, s.Redis, nil), jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB, "", nil), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
