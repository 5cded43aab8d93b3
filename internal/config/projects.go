package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// DefaultProjectID is used when a request or task carries no project.
const DefaultProjectID = "default"

// Project describes one registered project. The server uses the name,
// components and welcome message to drive the intake conversation; the bridge
// uses SpecsDir as the target root for materialized spec folders.
type Project struct {
	Name        string   `toml:"name" json:"name"`
	Description string   `toml:"description" json:"description,omitempty"`
	Components  []string `toml:"components" json:"components,omitempty"`
	Welcome     string   `toml:"welcome" json:"-"`
	SpecsDir    string   `toml:"specs_dir" json:"-"`
}

// Registry maps project identifiers to their configuration. It is shared by
// the server and the bridge and loaded from a single TOML file.
type Registry struct {
	DefaultSpecsDir string             `toml:"default_specs_dir"`
	Projects        map[string]Project `toml:"projects"`
}

const defaultWelcome = "Hi! Describe the problem you are running into. " +
	"You can attach a screenshot if it helps!"

// LoadRegistry reads the project registry from path. A missing file is not an
// error: the registry then contains only the built-in default project.
func LoadRegistry(path, defaultSpecsDir string) (*Registry, error) {
	reg := &Registry{
		DefaultSpecsDir: defaultSpecsDir,
		Projects:        map[string]Project{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("read projects file: %w", err)
	}

	if err := toml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("parse projects file: %w", err)
	}
	if reg.Projects == nil {
		reg.Projects = map[string]Project{}
	}
	if reg.DefaultSpecsDir == "" {
		reg.DefaultSpecsDir = defaultSpecsDir
	}
	return reg, nil
}

// Get resolves a project ID, falling back to the built-in default project for
// unknown or empty IDs. The returned ID is the one that resolved.
func (r *Registry) Get(id string) (string, Project) {
	if id != "" {
		if p, ok := r.Projects[id]; ok {
			if p.Welcome == "" {
				p.Welcome = defaultWelcome
			}
			return id, p
		}
	}
	if p, ok := r.Projects[DefaultProjectID]; ok {
		if p.Welcome == "" {
			p.Welcome = defaultWelcome
		}
		return DefaultProjectID, p
	}
	return DefaultProjectID, Project{
		Name:    "Project",
		Welcome: defaultWelcome,
	}
}

// SpecsDir resolves the target root for a project, falling back to the
// registry default when the project has none configured.
func (r *Registry) SpecsDir(id string) string {
	if id != "" {
		if p, ok := r.Projects[id]; ok && p.SpecsDir != "" {
			return p.SpecsDir
		}
	}
	return r.DefaultSpecsDir
}

// IDs returns the registered project IDs in a stable order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.Projects))
	for id := range r.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
