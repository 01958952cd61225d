package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-info-service/internal/app"
	"github.com/metinatakli/movie-info-service/internal/domain"
	"github.com/metinatakli/movie-info-service/internal/repository"
	appvalidator "github.com/metinatakli/movie-info-service/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App   *app.Application
	DB    *pgxpool.Pool
	Redis *redis.Client
	Repo  *repository.PostgresMovieInfoRepository
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	validator := appvalidator.NewValidator()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	repo := repository.NewPostgresMovieInfoRepository(db)

	var movieInfoRepo domain.MovieInfoRepository = repository.NewCachedMovieInfoRepository(repo, redisClient, cfg.CacheTTL, logger)

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		movieInfoRepo,
		repository.NewRedisMovieInfoBroker(redisClient),
	)

	return &TestApp{
		App:   application,
		DB:    db,
		Redis: redisClient,
		Repo:  repo,
	}, nil
}

func (a *TestApp) Close() {
	a.Redis.Close()
	a.DB.Close()
}
