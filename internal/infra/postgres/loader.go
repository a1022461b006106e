package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rathi22/quizzia/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Loader reads category question lists stored as JSONB in Postgres.
type Loader struct {
	pool *pgxpool.Pool
}

func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{pool: pool}
}

func (l *Loader) LoadCategory(ctx context.Context, category string) ([]domain.Question, error) {
	name := strings.ToLower(strings.TrimSpace(category))

	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM categories WHERE name=$1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load category: %v", domain.ErrDataLoad, err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("%w: unmarshal category: %v", domain.ErrDataLoad, err)
	}
	return questions, nil
}

func (l *Loader) Categories(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list categories: %v", domain.ErrDataLoad, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan category: %v", domain.ErrDataLoad, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
