package quiz

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rathi22/quizzia/internal/domain"
)

// DefaultLimit is the number of questions served per game.
const DefaultLimit = 10

// Selector builds a bounded, randomized quiz out of raw category
// questions. Each call produces an independent permutation.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource allows a seeded source for deterministic tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// Select shuffles questions, truncates to limit and renders each
// surviving question with its options shuffled and the correct one
// flagged. Fewer than limit questions is not an error; all are
// returned. A question whose answer matches no option renders with
// zero correct flags rather than failing.
func (s *Selector) Select(questions []domain.Question, limit int) []domain.RenderedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}

	rendered := make([]domain.RenderedQuestion, 0, len(shuffled))
	for _, q := range shuffled {
		rendered = append(rendered, s.renderLocked(q))
	}
	return rendered
}

func (s *Selector) renderLocked(q domain.Question) domain.RenderedQuestion {
	options := make([]domain.RenderedOption, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, domain.RenderedOption{
			Text:      opt,
			IsCorrect: opt == q.Answer,
		})
	}
	s.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return domain.RenderedQuestion{Text: q.Text, Options: options}
}
