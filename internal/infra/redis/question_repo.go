package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/rathi22/quizzia/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches raw category questions from a backing store
// (JSON files, Postgres, etc).
type CategoryLoader interface {
	LoadCategory(ctx context.Context, category string) ([]domain.Question, error)
	Categories(ctx context.Context) ([]string, error)
}

// QuestionRepository caches category question lists in Redis as JSON
// (SET quiz:category:{name}) and falls back to a loader on cache miss.
type QuestionRepository struct {
	client *redis.Client
	loader CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader CategoryLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) Category(ctx context.Context, category string) ([]domain.Question, error) {
	key := r.categoryKey(category)

	if questions, ok := r.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(category, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, key); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// best-effort cache write
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) Categories(ctx context.Context) ([]string, error) {
	return r.loader.Categories(ctx)
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) categoryKey(category string) string {
	return fmt.Sprintf("quiz:category:%s", category)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
