// Package catalog loads apprenticeship standard reference data (specs
// and their KSB lists) from YAML files. The data is immutable once
// loaded; accessors hand out copies so callers can treat the catalog
// as a read-only snapshot source.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/otjlab/otj-engine/internal/models"
)

// Loader manages loading and lookup of spec reference data
type Loader struct {
	mu    sync.RWMutex
	specs map[string]*models.Spec
	ksbs  map[string][]models.KSB // spec code -> KSBs in authored order
}

// specFile is the on-disk YAML shape of one standard
type specFile struct {
	Code        string       `yaml:"code"`
	Name        string       `yaml:"name"`
	Level       int          `yaml:"level"`
	Description string       `yaml:"description"`
	KSBPrefix   string       `yaml:"ksb_prefix"`
	Available   bool         `yaml:"available"`
	KSBs        []models.KSB `yaml:"ksbs"`
}

// NewLoader creates an empty catalog loader
func NewLoader() *Loader {
	return &Loader{
		specs: make(map[string]*models.Spec),
		ksbs:  make(map[string][]models.KSB),
	}
}

// LoadFromDir loads every YAML spec file from a directory. Any
// malformed file fails the whole load: a partially loaded catalog
// would silently shrink the KSB population coverage is measured
// against.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading spec catalog", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no spec files found in %s", dir)
	}

	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			return fmt.Errorf("failed to load spec file %s: %w", file, err)
		}
	}

	slog.Info("spec catalog loaded", "specs", len(files))
	return nil
}

// LoadFromFile loads a single standard from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var sf specFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sf.Code == "" {
		return fmt.Errorf("spec code is required")
	}
	if sf.Name == "" {
		return fmt.Errorf("spec name is required")
	}
	if len(sf.KSBs) == 0 {
		return fmt.Errorf("spec %s declares no KSBs", sf.Code)
	}

	seen := make(map[string]struct{}, len(sf.KSBs))
	ksbs := make([]models.KSB, 0, len(sf.KSBs))
	for _, k := range sf.KSBs {
		if k.Code == "" {
			return fmt.Errorf("spec %s: KSB with empty code", sf.Code)
		}
		if _, dup := seen[k.Code]; dup {
			return fmt.Errorf("spec %s: duplicate KSB code %s", sf.Code, k.Code)
		}
		if !models.ValidCategory(k.Category) {
			return fmt.Errorf("spec %s: KSB %s has invalid category %q", sf.Code, k.Code, k.Category)
		}
		seen[k.Code] = struct{}{}
		k.SpecCode = sf.Code
		ksbs = append(ksbs, k)
	}

	spec := &models.Spec{
		Code:        sf.Code,
		Name:        sf.Name,
		Level:       sf.Level,
		Description: sf.Description,
		KSBPrefix:   sf.KSBPrefix,
		Available:   sf.Available,
	}

	l.mu.Lock()
	l.specs[spec.Code] = spec
	l.ksbs[spec.Code] = ksbs
	l.mu.Unlock()

	slog.Info("spec loaded", "code", spec.Code, "name", spec.Name, "ksbs", len(ksbs))
	return nil
}

// Get retrieves a spec by code, nil when unknown
func (l *Loader) Get(code string) *models.Spec {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.specs[code]
}

// List returns all loaded specs sorted by code
func (l *Loader) List() []*models.Spec {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Spec, 0, len(l.specs))
	for _, s := range l.specs {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// KSBs returns a copy of the KSB reference list for a spec, in the
// catalog's authored order (K1..Kn, S1..Sn, B1..Bn)
func (l *Loader) KSBs(specCode string) []models.KSB {
	l.mu.RLock()
	defer l.mu.RUnlock()

	src, ok := l.ksbs[specCode]
	if !ok {
		return nil
	}
	out := make([]models.KSB, len(src))
	copy(out, src)
	return out
}

// KSB looks up one code within a spec, nil when unknown
func (l *Loader) KSB(specCode, code string) *models.KSB {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := range l.ksbs[specCode] {
		if l.ksbs[specCode][i].Code == code {
			k := l.ksbs[specCode][i]
			return &k
		}
	}
	return nil
}

// Add programmatically registers a spec, mainly for tests
func (l *Loader) Add(spec *models.Spec, ksbs []models.KSB) {
	for i := range ksbs {
		ksbs[i].SpecCode = spec.Code
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs[spec.Code] = spec
	l.ksbs[spec.Code] = ksbs
}
