package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rathi22/quizzia/internal/app"
	"github.com/rathi22/quizzia/internal/domain"
	pgloader "github.com/rathi22/quizzia/internal/infra/postgres"
	pgmigrations "github.com/rathi22/quizzia/internal/infra/postgres/migrations"
	infraredis "github.com/rathi22/quizzia/internal/infra/redis"
	"github.com/rathi22/quizzia/internal/quiz"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestRoomFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCategory(t, ctx, pgURL, "math", sampleBank())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	questionRepo := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute)
	registry := infraredis.NewRoomRegistry(redisClient, 5*time.Minute)
	service := app.NewRoomService(registry, questionRepo, quiz.NewSelector(), 10)

	roomID, err := service.CreateRoom("Alice")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := service.JoinRoom(roomID, "Bob"); err != nil {
		t.Fatalf("join room: %v", err)
	}

	room, err := service.StartGame(ctx, roomID, "math")
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if !room.Started || len(room.Questions) != 10 {
		t.Fatalf("expected started room with 10 questions, got started=%v n=%d", room.Started, len(room.Questions))
	}

	// The category list is now cached in Redis; a second start must not
	// need Postgres.
	pool.Close()
	room, err = service.StartGame(ctx, roomID, "math")
	if err != nil {
		t.Fatalf("restart from cache: %v", err)
	}
	if len(room.Questions) != 10 {
		t.Fatalf("expected cached restart to yield 10 questions, got %d", len(room.Questions))
	}

	if _, err := service.ReportScore(roomID, "Bob", 7); err != nil {
		t.Fatalf("report score: %v", err)
	}
	players, err := service.ReportScore(roomID, "Alice", 4)
	if err != nil {
		t.Fatalf("report score: %v", err)
	}
	if players[0].Score != 4 || players[1].Score != 7 {
		t.Fatalf("expected Alice=4 Bob=7, got %+v", players)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedCategory(t *testing.T, ctx context.Context, dsn, name string, questions []domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO categories (name, data) VALUES (? , ?::jsonb) ON CONFLICT (name) DO UPDATE SET data=EXCLUDED.data`, name, string(data)); err != nil {
		t.Fatalf("insert category: %v", err)
	}
}

func sampleBank() []domain.Question {
	questions := make([]domain.Question, 0, 12)
	for i := 0; i < 12; i++ {
		questions = append(questions, domain.Question{
			Text:    fmt.Sprintf("What is %d + %d?", i, i),
			Options: []string{fmt.Sprintf("%d", 2*i), fmt.Sprintf("%d", 2*i+1), fmt.Sprintf("%d", 2*i+2)},
			Answer:  fmt.Sprintf("%d", 2*i),
		})
	}
	return questions
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
