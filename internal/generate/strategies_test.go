package generate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shanmc/promptduel/internal/model"
)

func TestLoadStrategies_MissingFileFallsBackToDefaults(t *testing.T) {
	set, err := LoadStrategies(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults, got error %v", err)
	}

	for _, id := range model.Strategies() {
		if _, ok := set.Get(id); !ok {
			t.Errorf("Expected default strategy %s", id)
		}
	}
}

func TestLoadStrategies_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `strategies:
  - id: A
    name: custom_a
    template: "Template for A"
  - id: B
    name: custom_b
    template: "Template for B"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadStrategies(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	a, ok := set.Get(model.StrategyA)
	if !ok || a.Name != "custom_a" || a.Template != "Template for A" {
		t.Errorf("Unexpected strategy A: %+v", a)
	}
}

func TestLoadStrategies_MissingStrategyIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `strategies:
  - id: A
    name: only_a
    template: "Template for A"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadStrategies(path); err == nil {
		t.Error("Expected error for missing strategy B")
	}
}

func TestLoadStrategies_DuplicateStrategyIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `strategies:
  - id: A
    template: "one"
  - id: A
    template: "two"
  - id: B
    template: "three"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadStrategies(path); err == nil {
		t.Error("Expected error for duplicate strategy id")
	}
}
