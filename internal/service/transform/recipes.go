package transform

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed transforms.yaml
var transformsYAML []byte

// Recipe is one entry of the fixed deterministic transformation set.
type Recipe struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Code        string `yaml:"code"`
}

// Registry holds the embedded recipes in file order.
type Registry struct {
	recipes map[string]Recipe
	order   []string
}

// LoadRecipes parses the embedded registry. Called once at startup; a
// malformed registry is a build defect, not a runtime condition.
func LoadRecipes() (*Registry, error) {
	var doc struct {
		Recipes []Recipe `yaml:"recipes"`
	}
	if err := yaml.Unmarshal(transformsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse transforms.yaml: %w", err)
	}
	if len(doc.Recipes) == 0 {
		return nil, fmt.Errorf("transforms.yaml defines no recipes")
	}
	reg := &Registry{recipes: make(map[string]Recipe, len(doc.Recipes))}
	for _, r := range doc.Recipes {
		if r.Name == "" || r.Code == "" {
			return nil, fmt.Errorf("transforms.yaml recipe with empty name or code")
		}
		if _, dup := reg.recipes[r.Name]; dup {
			return nil, fmt.Errorf("transforms.yaml duplicate recipe %q", r.Name)
		}
		reg.recipes[r.Name] = r
		reg.order = append(reg.order, r.Name)
	}
	return reg, nil
}

// Get returns the named recipe.
func (r *Registry) Get(name string) (Recipe, bool) {
	recipe, ok := r.recipes[name]
	return recipe, ok
}

// List returns every recipe in registry order.
func (r *Registry) List() []Recipe {
	out := make([]Recipe, len(r.order))
	for i, name := range r.order {
		out[i] = r.recipes[name]
	}
	return out
}
