// Package file loads question-bank content from a directory of JSON
// files, one per category ("animals" -> animals.json).
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rathi22/quizzia/internal/domain"
)

type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadCategory reads <dir>/<category>.json. Category names are matched
// case-insensitively. A missing file maps to ErrCategoryNotFound; a
// file that exists but cannot be parsed maps to ErrDataLoad.
func (l *Loader) LoadCategory(_ context.Context, category string) ([]domain.Question, error) {
	name := strings.ToLower(strings.TrimSpace(category))
	if name == "" || name != filepath.Base(name) {
		return nil, domain.ErrCategoryNotFound
	}

	data, err := os.ReadFile(filepath.Join(l.dir, name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrDataLoad, err)
	}

	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataLoad, err)
	}
	return questions, nil
}

// Categories lists the categories available on disk.
func (l *Loader) Categories(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataLoad, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
