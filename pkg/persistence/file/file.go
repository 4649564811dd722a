// Package file provides file-based persistence for meal plans, recipes,
// generation runs, and plan schedules. Each entity is stored as one JSON
// document under a per-kind subdirectory of the root.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/platewise/platewise/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root      string
	plans     *MealPlanRepository
	recipes   *RecipeRepository
	runs      *GenerationRunRepository
	schedules *PlanScheduleRepository
}

// NewPersistence creates a new instance rooted at the given directory.
// A "file://" URL prefix is tolerated and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:      cleanRoot,
		plans:     &MealPlanRepository{store: store{root: cleanRoot, kind: "plans"}},
		recipes:   &RecipeRepository{store: store{root: cleanRoot, kind: "recipes"}},
		runs:      &GenerationRunRepository{store: store{root: cleanRoot, kind: "runs"}},
		schedules: &PlanScheduleRepository{store: store{root: cleanRoot, kind: "schedules"}},
	}
}

func (p *Persistence) MealPlanRepository() persistence.MealPlanRepository {
	return p.plans
}

func (p *Persistence) RecipeRepository() persistence.RecipeRepository {
	return p.recipes
}

func (p *Persistence) GenerationRunRepository() persistence.GenerationRunRepository {
	return p.runs
}

func (p *Persistence) PlanScheduleRepository() persistence.PlanScheduleRepository {
	return p.schedules
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// store holds the shared one-JSON-file-per-entity plumbing.
type store struct {
	root string
	kind string
}

func (s store) dir() string {
	return filepath.Join(s.root, s.kind)
}

func (s store) path(id string) string {
	return filepath.Join(s.dir(), id+".json")
}

func (s store) read(id string, out any) error {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

func (s store) write(id string, in any) error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", s.kind, err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", s.kind, id, err)
	}

	return os.WriteFile(s.path(id), data, 0o600)
}

func (s store) delete(id string) error {
	return os.Remove(s.path(id))
}

// ids lists every stored entity id for this kind.
func (s store) ids() ([]string, error) {
	root := os.DirFS(s.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", s.kind, err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}
