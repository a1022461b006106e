package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rathi22/quizzia/internal/app"
	"github.com/rathi22/quizzia/internal/config"
	"github.com/rathi22/quizzia/internal/domain"
	fileloader "github.com/rathi22/quizzia/internal/infra/file"
	"github.com/rathi22/quizzia/internal/infra/memory"
	pgloader "github.com/rathi22/quizzia/internal/infra/postgres"
	redisinfra "github.com/rathi22/quizzia/internal/infra/redis"
	"github.com/rathi22/quizzia/internal/quiz"
	transport "github.com/rathi22/quizzia/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CategoryLoader = memory.NewStaticCategoryLoader(sampleCategories())
	if cfg.Quiz.DataDir != "" {
		loader = fileloader.NewLoader(cfg.Quiz.DataDir)
	}
	if pool != nil {
		loader = pgloader.NewLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, quizTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, quizTTL)
	}

	var registry app.RoomRegistry
	if redisClient != nil {
		registry = redisinfra.NewRoomRegistry(redisClient, redisTTL)
	} else {
		registry = memory.NewRoomRegistry()
	}

	service := app.NewRoomService(registry, questionRepo, quiz.NewSelector(), cfg.Quiz.QuestionLimit)
	hub := transport.NewHub()
	wsHandler := transport.NewWSHandler(service, hub)

	router := httprouter.New()
	transport.NewRESTHandler(service).Register(router)
	router.GET("/ws", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		wsHandler.ServeWS(w, r)
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket connections outlive any sane value
	}

	go func() {
		log.Printf("starting quizzia on :%s", finalPort)
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

// sampleCategories provides a minimal question bank so the server runs
// with no config; point quiz.data_dir or postgres.url at real data in
// production.
func sampleCategories() map[string][]domain.Question {
	return map[string][]domain.Question{
		"animals": {
			{
				Text:    "What do pandas mostly eat?",
				Options: []string{"Bamboo", "Fish", "Berries", "Insects"},
				Answer:  "Bamboo",
			},
			{
				Text:    "Which animal is the largest living land mammal?",
				Options: []string{"Hippopotamus", "African elephant", "Giraffe", "White rhino"},
				Answer:  "African elephant",
			},
		},
		"math": {
			{
				Text:    "What is 7 x 8?",
				Options: []string{"54", "56", "64", "48"},
				Answer:  "56",
			},
		},
	}
}
