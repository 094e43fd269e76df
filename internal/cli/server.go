package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/config"
	"quiz-platform-service/internal/infra/memory"
	infrapg "quiz-platform-service/internal/infra/postgres"
	infraredis "quiz-platform-service/internal/infra/redis"
	transport "quiz-platform-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz platform server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var quizRepo app.QuizRepository
	var attemptRepo app.AttemptRepository
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		quizRepo = infrapg.NewQuizRepository(pool)
		attemptRepo = infrapg.NewAttemptRepository(pool)
	} else {
		quizRepo = memory.NewQuizRepository()
		attemptRepo = memory.NewAttemptRepository()
	}

	quizTTL := config.TTLDuration(cfg.Cache.QuizTTL, 10*time.Minute)
	lbTTL := config.TTLDuration(cfg.Cache.LeaderboardTTL, 30*time.Second)

	var lbCache app.LeaderboardCache
	if redisClient != nil {
		quizRepo = infraredis.NewQuizCache(redisClient, quizRepo, quizTTL)
		lbCache = infraredis.NewLeaderboardCache(redisClient, lbTTL)
	} else {
		lbCache = memory.NewLeaderboardCache(lbTTL)
	}

	feed := app.NewLeaderboardFeed()
	leaderboards := app.NewLeaderboardService(quizRepo, attemptRepo, lbCache, feed)
	catalog := app.NewCatalogService(quizRepo, attemptRepo)
	attempts := app.NewAttemptService(quizRepo, attemptRepo, leaderboards)

	handler := transport.NewHandler(catalog, attempts, leaderboards)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz platform on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
