// Package seed loads reference data: the category taxonomy and the action
// type vocabulary.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// CategorySeed is one category and its subcategory names.
type CategorySeed struct {
	Name          string   `toml:"name"`
	Subcategories []string `toml:"subcategories"`
}

// UnmarshalJSON accepts both the legacy Portuguese keys and English ones.
func (c *CategorySeed) UnmarshalJSON(data []byte) error {
	var raw struct {
		CategoriaNome string   `json:"categoria_nome"`
		Subcategorias []string `json:"subcategorias"`
		Category      string   `json:"category"`
		Name          string   `json:"name"`
		Subcategories []string `json:"subcategories"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Name = firstNonEmpty(raw.CategoriaNome, raw.Category, raw.Name)
	c.Subcategories = raw.Subcategorias
	if len(c.Subcategories) == 0 {
		c.Subcategories = raw.Subcategories
	}
	return nil
}

type tomlFile struct {
	Category []CategorySeed `toml:"category"`
}

// LoadFile reads a .json or .toml seed file.
func LoadFile(path string) ([]CategorySeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported seed file extension %q", filepath.Ext(path))
	}
}

// ParseJSON decodes a list of categories.
func ParseJSON(data []byte) ([]CategorySeed, error) {
	var seeds []CategorySeed
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&seeds); err != nil {
		return nil, fmt.Errorf("decode json seed: %w", err)
	}
	return normalize(seeds)
}

// ParseTOML decodes [[category]] tables.
func ParseTOML(data []byte) ([]CategorySeed, error) {
	var file tomlFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, fmt.Errorf("decode toml seed: %w", err)
	}
	return normalize(file.Category)
}

func normalize(seeds []CategorySeed) ([]CategorySeed, error) {
	out := make([]CategorySeed, 0, len(seeds))
	for i, s := range seeds {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("category %d has no name", i+1)
		}
		subs := make([]string, 0, len(s.Subcategories))
		for _, sub := range s.Subcategories {
			if sub = strings.TrimSpace(sub); sub != "" {
				subs = append(subs, sub)
			}
		}
		out = append(out, CategorySeed{Name: name, Subcategories: subs})
	}
	return out, nil
}

// Report counts what a seeding run created and what already existed.
type Report struct {
	CategoriesCreated     int
	CategoriesExisting    int
	SubcategoriesCreated  int
	SubcategoriesExisting int
	ActionTypesCreated    int
	ActionTypesExisting   int
}

// Invalidator drops derived data after seeding.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Run upserts categories and the default action types in one transaction.
// Running it again with the same input creates nothing.
func Run(ctx context.Context, store repository.Store, categories []CategorySeed, inv Invalidator) (*Report, error) {
	report := &Report{}
	err := store.WithinTx(ctx, func(repos repository.Repositories) error {
		for _, def := range domain.DefaultActionTypes {
			created, err := repos.ActionTypes.Upsert(ctx, def)
			if err != nil {
				return fmt.Errorf("action type %s: %w", def.Name, err)
			}
			count(created, &report.ActionTypesCreated, &report.ActionTypesExisting)
		}
		for _, c := range categories {
			category, created, err := repos.Categories.UpsertCategory(ctx, c.Name)
			if err != nil {
				return fmt.Errorf("category %q: %w", c.Name, err)
			}
			count(created, &report.CategoriesCreated, &report.CategoriesExisting)
			for _, sub := range c.Subcategories {
				_, created, err := repos.Categories.UpsertSubcategory(ctx, category.ID, sub)
				if err != nil {
					return fmt.Errorf("subcategory %q/%q: %w", c.Name, sub, err)
				}
				count(created, &report.SubcategoriesCreated, &report.SubcategoriesExisting)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if inv != nil {
		if err := inv.Invalidate(ctx); err != nil {
			return report, fmt.Errorf("invalidate category cache: %w", err)
		}
	}
	return report, nil
}

func count(created bool, createdN, existingN *int) {
	if created {
		*createdN++
	} else {
		*existingN++
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
