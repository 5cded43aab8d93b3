package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRegistry = `default_specs_dir = "/srv/specs"

[projects.shop]
name = "Web Shop"
description = "Customer-facing store"
components = ["checkout", "catalog", "login"]
welcome = "Hi! What went wrong in the shop?"
specs_dir = "/srv/specs/shop"

[projects.default]
name = "Fallback Project"
`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write registry file: %v", err)
	}
	return path
}

func TestLoadRegistryParsesTOML(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, sampleRegistry), "./specs")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	if reg.DefaultSpecsDir != "/srv/specs" {
		t.Errorf("Expected default specs dir from file, got %q", reg.DefaultSpecsDir)
	}

	id, p := reg.Get("shop")
	if id != "shop" {
		t.Errorf("Expected id shop, got %q", id)
	}
	if p.Name != "Web Shop" || len(p.Components) != 3 {
		t.Errorf("Unexpected project: %+v", p)
	}
	if p.Welcome != "Hi! What went wrong in the shop?" {
		t.Errorf("Unexpected welcome: %q", p.Welcome)
	}
}

func TestLoadRegistryMissingFileIsEmpty(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.toml"), "./specs")
	if err != nil {
		t.Fatalf("LoadRegistry failed on missing file: %v", err)
	}
	if len(reg.Projects) != 0 {
		t.Errorf("Expected empty registry, got %d projects", len(reg.Projects))
	}
	if reg.DefaultSpecsDir != "./specs" {
		t.Errorf("Expected fallback specs dir, got %q", reg.DefaultSpecsDir)
	}
}

func TestLoadRegistryInvalidTOMLIsError(t *testing.T) {
	if _, err := LoadRegistry(writeRegistry(t, "not [valid toml"), "./specs"); err == nil {
		t.Fatal("Expected error for invalid TOML")
	}
}

func TestGetFallsBackToDefaultProject(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, sampleRegistry), "./specs")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	id, p := reg.Get("unknown")
	if id != DefaultProjectID {
		t.Errorf("Expected default id, got %q", id)
	}
	if p.Name != "Fallback Project" {
		t.Errorf("Expected configured default project, got %+v", p)
	}
	if p.Welcome == "" {
		t.Error("Expected built-in welcome for project without one")
	}
}

func TestGetBuiltInDefaultWithoutRegistry(t *testing.T) {
	reg := &Registry{Projects: map[string]Project{}}

	id, p := reg.Get("")
	if id != DefaultProjectID {
		t.Errorf("Expected default id, got %q", id)
	}
	if p.Name == "" || p.Welcome == "" {
		t.Errorf("Expected usable built-in project, got %+v", p)
	}
}

func TestSpecsDirResolution(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, sampleRegistry), "./specs")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}

	if got := reg.SpecsDir("shop"); got != "/srv/specs/shop" {
		t.Errorf("Expected project specs dir, got %q", got)
	}
	if got := reg.SpecsDir("default"); got != "/srv/specs" {
		t.Errorf("Expected registry default for project without own dir, got %q", got)
	}
	if got := reg.SpecsDir("unknown"); got != "/srv/specs" {
		t.Errorf("Expected registry default for unknown project, got %q", got)
	}
}

func TestIDsAreSorted(t *testing.T) {
	reg := &Registry{Projects: map[string]Project{
		"zeta": {}, "alpha": {}, "mid": {},
	}}

	ids := reg.IDs()
	if len(ids) != 3 || ids[0] != "alpha" || ids[1] != "mid" || ids[2] != "zeta" {
		t.Errorf("Expected sorted ids, got %v", ids)
	}
}
