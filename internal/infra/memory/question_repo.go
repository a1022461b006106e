package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rathi22/quizzia/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches raw category questions from a backing store
// (JSON files, Postgres, etc).
type CategoryLoader interface {
	LoadCategory(ctx context.Context, category string) ([]domain.Question, error)
	Categories(ctx context.Context) ([]string, error)
}

// QuestionRepository caches category question lists with TTL to avoid
// re-reading the backing store on every game start.
type QuestionRepository struct {
	loader CategoryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedCategory
}

type cachedCategory struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader CategoryLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCategory),
	}
}

func (r *QuestionRepository) Category(ctx context.Context, category string) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[category]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(category, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[category]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[category] = cachedCategory{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
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

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCategoryLoader is a loader backed by an in-memory map (useful
// for tests and the no-config demo server).
type StaticCategoryLoader struct {
	categories map[string][]domain.Question
}

func NewStaticCategoryLoader(categories map[string][]domain.Question) *StaticCategoryLoader {
	return &StaticCategoryLoader{categories: categories}
}

func (l *StaticCategoryLoader) LoadCategory(_ context.Context, category string) ([]domain.Question, error) {
	if questions, ok := l.categories[category]; ok {
		return questions, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (l *StaticCategoryLoader) Categories(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(l.categories))
	for name := range l.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
