package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-game-service/internal/app"
	"classroom-game-service/internal/config"
	"classroom-game-service/internal/domain"
	"classroom-game-service/internal/infra/memory"
	mongoloader "classroom-game-service/internal/infra/mongo"
	pgloader "classroom-game-service/internal/infra/postgres"
	infraredis "classroom-game-service/internal/infra/redis"
	"classroom-game-service/internal/logger"
	"classroom-game-service/internal/metrics"
	transport "classroom-game-service/internal/transport/http"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the optional external stores opened from config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
	mongo interface{ Disconnect(context.Context) error }
}

func (b *backends) close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.mongo != nil {
		_ = b.mongo.Disconnect(context.Background())
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var be backends
	defer be.close()

	opts, err := buildRegistryOptions(ctx, cfg, log, &be)
	if err != nil {
		return err
	}
	m := metrics.New()
	opts.Metrics = m
	registry := app.NewRegistry(opts)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewServer(transport.Options{
			Registry:        registry,
			Metrics:         m,
			Logger:          log,
			EventsPerSecond: cfg.Server.EventsPerSecond,
			EventBurst:      cfg.Server.EventBurst,
		}).Router(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting game server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if store, ok := opts.Store.(*infraredis.RoomStore); ok {
		g.Go(func() error {
			refreshClaims(gctx, store, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), log)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		registry.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildRegistryOptions picks a backend per concern: Redis when configured,
// otherwise in-process.
func buildRegistryOptions(ctx context.Context, cfg config.Config, log zerolog.Logger, be *backends) (app.Options, error) {
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	resultsTTL := config.TTLDuration(cfg.Results.TTL, time.Hour)

	opts := app.Options{
		Logger:   log,
		Defaults: cfg.Game,
	}
	if raw := cfg.Server.TickInterval; raw != "" {
		opts.TickInterval = config.TTLDuration(raw, time.Second)
	}

	if cfg.Redis.Addr != "" {
		be.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := be.redis.Ping(ctx).Err(); err != nil {
			return opts, err
		}
	}

	var quizLoader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	var boardLoader memory.BoardLoader = memory.NewStaticBoardLoader(sampleBoards())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return opts, err
		}
		be.pool = pool
		quizLoader = pgloader.NewQuizLoader(pool)
		boardLoader = pgloader.NewBoardLoader(pool)
	}
	if cfg.Mongo.URI != "" {
		client, err := mongoloader.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return opts, err
		}
		be.mongo = client
		// the document store takes over quizzes; boards stay relational
		quizLoader = mongoloader.NewQuizLoader(client, cfg.Mongo.Database)
	}

	if be.redis != nil {
		opts.Store = infraredis.NewRoomStore(be.redis, redisTTL, uuid.NewString())
		opts.Quizzes = infraredis.NewQuizRepository(be.redis, quizLoader, quizTTL)
		opts.Boards = infraredis.NewBoardRepository(be.redis, boardLoader, quizTTL)
		opts.Results = infraredis.NewResultStore(be.redis, resultsTTL)
		opts.Mirror = infraredis.NewLeaderboardMirror(be.redis, redisTTL)
	} else {
		opts.Store = memory.NewRoomStore()
		opts.Quizzes = memory.NewQuizRepository(quizLoader, quizTTL)
		opts.Boards = memory.NewBoardRepository(boardLoader, quizTTL)
		opts.Results = memory.NewResultStore(resultsTTL)
	}
	return opts, nil
}

// refreshClaims keeps this instance's room codes claimed while it runs.
func refreshClaims(ctx context.Context, store *infraredis.RoomStore, ttl time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("refresh room claims")
			}
		}
	}
}

// sampleQuizzes and sampleBoards back the service when no database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Type:   domain.AnswerSingleChoice,
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5"},
					},
				},
				{
					ID:            "q2",
					Prompt:        "The sun is a star.",
					Type:          domain.AnswerTrueFalse,
					CorrectAnswer: []byte(`true`),
				},
			},
		},
	}
}

func sampleBoards() map[string]domain.Board {
	n, q, s, e, t, d := domain.TileNormal, domain.TileQuestion, domain.TileStar, domain.TileEvent, domain.TileTrap, domain.TileDuel
	return map[string]domain.Board{
		"board-1": {
			ID:    "board-1",
			Theme: "castle",
			Tiles: []domain.TileType{n, q, e, n, s, t, q, d, n, e, q, s, n, t, q, d, e, n, q, s},
		},
	}
}
