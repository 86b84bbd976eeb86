package models

import "strings"

// KSBCategory classifies a KSB within its apprenticeship standard
type KSBCategory string

const (
	CategoryKnowledge KSBCategory = "knowledge"
	CategorySkill     KSBCategory = "skill"
	CategoryBehaviour KSBCategory = "behaviour"
)

// ValidCategory reports whether c is one of the known KSB categories
func ValidCategory(c KSBCategory) bool {
	switch c {
	case CategoryKnowledge, CategorySkill, CategoryBehaviour:
		return true
	}
	return false
}

// Spec is an apprenticeship standard: a named, closed set of KSB codes.
// Immutable reference data loaded from the catalog directory.
type Spec struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Level       int    `json:"level" yaml:"level"`
	Description string `json:"description" yaml:"description"`
	// KSBPrefix is prepended to stored KSB codes to keep them globally
	// unique across standards (ST0763 uses "A": K1 is stored as AK1).
	KSBPrefix string `json:"ksb_prefix,omitempty" yaml:"ksb_prefix"`
	Available bool   `json:"available" yaml:"available"`
}

// KSB is a single Knowledge, Skill or Behaviour defined by a standard.
// Reference data, never mutated.
type KSB struct {
	Code        string      `json:"code" yaml:"code"`
	SpecCode    string      `json:"spec_code" yaml:"-"`
	Category    KSBCategory `json:"category" yaml:"category"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
}

// NaturalCode returns the code as shown to the user, with the spec's
// storage prefix stripped (AK1 -> K1).
func (k *KSB) NaturalCode(spec *Spec) string {
	if spec != nil && spec.KSBPrefix != "" {
		return strings.TrimPrefix(k.Code, spec.KSBPrefix)
	}
	return k.Code
}
