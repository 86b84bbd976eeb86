package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/otjlab/otj-engine/internal/models"
)

func TestLoadCatalogFromDir(t *testing.T) {
	// Use the actual catalog directory
	catalogDir := filepath.Join("..", "..", "catalog")

	if _, err := os.Stat(catalogDir); os.IsNotExist(err) {
		t.Skip("catalog directory not found, skipping")
	}

	loader := NewLoader()
	if err := loader.LoadFromDir(catalogDir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	specs := loader.List()
	if len(specs) < 2 {
		t.Errorf("expected at least 2 specs, got %d", len(specs))
	}

	// Systems Thinking Practitioner
	st := loader.Get("ST0787")
	if st == nil {
		t.Fatal("ST0787 not found")
	}
	if st.Name != "Systems Thinking Practitioner" {
		t.Errorf("unexpected ST0787 name: %q", st.Name)
	}
	if st.KSBPrefix != "" {
		t.Errorf("ST0787 should have no KSB prefix, got %q", st.KSBPrefix)
	}

	stKSBs := loader.KSBs("ST0787")
	if len(stKSBs) != 22 {
		t.Errorf("expected 22 KSBs for ST0787, got %d", len(stKSBs))
	}
	if stKSBs[0].Code != "K1" {
		t.Errorf("expected first ST0787 code K1, got %s", stKSBs[0].Code)
	}

	// AI Data Specialist
	ai := loader.Get("ST0763")
	if ai == nil {
		t.Fatal("ST0763 not found")
	}
	if ai.KSBPrefix != "A" {
		t.Errorf("expected ST0763 prefix 'A', got %q", ai.KSBPrefix)
	}

	aiKSBs := loader.KSBs("ST0763")
	if len(aiKSBs) != 61 {
		t.Errorf("expected 61 KSBs for ST0763, got %d", len(aiKSBs))
	}

	// Prefix stripping
	ak1 := loader.KSB("ST0763", "AK1")
	if ak1 == nil {
		t.Fatal("AK1 not found in ST0763")
	}
	if got := ak1.NaturalCode(ai); got != "K1" {
		t.Errorf("expected natural code K1 for AK1, got %s", got)
	}

	// Unknown lookups
	if loader.Get("ST9999") != nil {
		t.Error("expected nil for unknown spec")
	}
	if loader.KSB("ST0787", "Z99") != nil {
		t.Error("expected nil for unknown KSB code")
	}
}

func TestLoadFromFileValidation(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		yaml string
	}{
		{"missing code", "name: Test\nksbs:\n  - code: K1\n    category: knowledge\n    title: t\n"},
		{"missing name", "code: ST0001\nksbs:\n  - code: K1\n    category: knowledge\n    title: t\n"},
		{"no ksbs", "code: ST0001\nname: Test\n"},
		{"duplicate code", "code: ST0001\nname: Test\nksbs:\n  - code: K1\n    category: knowledge\n    title: a\n  - code: K1\n    category: knowledge\n    title: b\n"},
		{"bad category", "code: ST0001\nname: Test\nksbs:\n  - code: K1\n    category: wisdom\n    title: t\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "spec.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}

			loader := NewLoader()
			if err := loader.LoadFromFile(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromDirRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()

	good := "code: ST0001\nname: Test\nksbs:\n  - code: K1\n    category: knowledge\n    title: t\n"
	if err := os.WriteFile(filepath.Join(dir, "a_good.yaml"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b_broken.yaml"), []byte("code: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err == nil {
		t.Fatal("expected error for directory containing a malformed spec file, got nil")
	}
}

func TestKSBsReturnsCopy(t *testing.T) {
	loader := NewLoader()
	loader.Add(
		&models.Spec{Code: "ST0001", Name: "Test", Available: true},
		[]models.KSB{{Code: "K1", Category: models.CategoryKnowledge, Title: "one"}},
	)

	first := loader.KSBs("ST0001")
	first[0].Title = "mutated"

	second := loader.KSBs("ST0001")
	if second[0].Title != "one" {
		t.Errorf("catalog data was mutated through the returned slice")
	}
}
