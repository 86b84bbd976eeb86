// Package analysis implements the KSB gap analysis and portfolio
// readiness scoring. It is a pure function of an immutable snapshot:
// one pass over the activity log, one pass over the spec's KSB list,
// no I/O and no retained state, so concurrent invocations are
// independent and identical inputs always produce identical reports.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/otjlab/otj-engine/internal/models"
)

// Thresholds are the policy constants of the analysis. They are tuning
// values, not algorithmic necessities, and are therefore injected
// rather than hard-coded.
type Thresholds struct {
	// WarnBelowHours: evidenced codes under this many hours are
	// warning-level gaps. Codes with zero hours are critical.
	WarnBelowHours float64
	// StaleAfterDays: a covered code whose latest evidence is more
	// than this many days old is stale. The boundary is exclusive:
	// exactly StaleAfterDays days is not stale.
	StaleAfterDays int
	// Weights of the composite readiness score. Expected to sum to 1.
	CoverageWeight float64
	QualityWeight  float64
	// Per-kind caps on suggestion contents.
	MaxCriticalSuggested int
	MaxTypesSuggested    int
	MaxStaleSuggested    int
	MaxQualitySuggested  int
}

// DefaultThresholds returns the production policy values
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnBelowHours:       2.0,
		StaleAfterDays:       30,
		CoverageWeight:       0.6,
		QualityWeight:        0.4,
		MaxCriticalSuggested: 5,
		MaxTypesSuggested:    3,
		MaxStaleSuggested:    3,
		MaxQualitySuggested:  5,
	}
}

// Input is the snapshot the analysis runs over. Activities must be
// scoped to one user; Codes is the full KSB reference list of the
// user's selected spec, in stable code order. ActivityTypes and
// WorkflowStages are the system-wide enumerations.
type Input struct {
	Activities     []models.Activity
	Spec           *models.Spec
	Codes          []models.KSB
	ActivityTypes  []models.ActivityType
	WorkflowStages []models.WorkflowStage
	ReferenceDate  time.Time
}

// Analyze aggregates the activity snapshot and produces the gap
// report: per-KSB gaps by severity, unused activity types, uncovered
// workflow stages, stale and all-draft codes, the 0-100 readiness
// score and the ordered suggestion list. It returns an error wrapping
// ErrInvalidActivity when the snapshot violates the input contract.
func Analyze(in Input, th Thresholds) (*models.GapReport, error) {
	agg, err := aggregate(in.Activities, in.Codes)
	if err != nil {
		return nil, fmt.Errorf("gap analysis: %w", err)
	}

	report := &models.GapReport{
		KSBGaps:      []models.KSBGap{},
		TypeGaps:     []models.TypeGap{},
		WorkflowGaps: []models.WorkflowGap{},
		Staleness:    []models.StaleKSB{},
		QualityGaps:  []models.QualityGap{},
		Suggestions:  []string{},
	}

	// KSB gaps, in spec code order. A code lands in at most one bucket.
	for _, k := range in.Codes {
		stats := agg.byCode[k.Code]
		switch {
		case stats.Hours == 0:
			report.KSBGaps = append(report.KSBGaps, models.KSBGap{
				Code:     k.Code,
				Title:    k.Title,
				Hours:    0,
				Count:    0,
				Severity: models.SeverityCritical,
				Reason:   "No evidence at all",
			})
		case stats.Hours < th.WarnBelowHours:
			report.KSBGaps = append(report.KSBGaps, models.KSBGap{
				Code:     k.Code,
				Title:    k.Title,
				Hours:    round1(stats.Hours),
				Count:    stats.Count,
				Severity: models.SeverityWarning,
				Reason:   fmt.Sprintf("Only %.1fh logged", stats.Hours),
			})
		}
	}

	// Activity types never used, alphabetical for stable output
	var missingTypes []string
	for _, t := range in.ActivityTypes {
		if _, used := agg.usedTypes[t]; !used {
			missingTypes = append(missingTypes, string(t))
		}
	}
	sort.Strings(missingTypes)
	for _, t := range missingTypes {
		at := models.ActivityType(t)
		report.TypeGaps = append(report.TypeGaps, models.TypeGap{
			Type:  at,
			Label: models.ActivityTypeLabel(at),
		})
	}

	// Workflow stages with no resources, in declared stage order
	for _, st := range in.WorkflowStages {
		if _, used := agg.usedStages[st]; used {
			continue
		}
		label := models.WorkflowStageLabel(st)
		report.WorkflowGaps = append(report.WorkflowGaps, models.WorkflowGap{
			Stage:  st,
			Label:  label,
			Reason: fmt.Sprintf("No %s resources linked yet", label),
		})
	}

	// Staleness: covered codes not touched within the freshness window,
	// most stale first
	for _, k := range in.Codes {
		stats := agg.byCode[k.Code]
		if !stats.covered() || stats.LastDate.IsZero() {
			continue
		}
		daysAgo := daysBetween(stats.LastDate, in.ReferenceDate)
		if daysAgo > th.StaleAfterDays {
			report.Staleness = append(report.Staleness, models.StaleKSB{
				Code:     k.Code,
				LastDate: stats.LastDate,
				DaysAgo:  daysAgo,
			})
		}
	}
	sort.SliceStable(report.Staleness, func(i, j int) bool {
		if report.Staleness[i].DaysAgo != report.Staleness[j].DaysAgo {
			return report.Staleness[i].DaysAgo > report.Staleness[j].DaysAgo
		}
		return report.Staleness[i].Code < report.Staleness[j].Code
	})

	// Quality gaps: evidenced but nothing beyond draft
	for _, k := range in.Codes {
		stats := agg.byCode[k.Code]
		if stats.allDraft() {
			report.QualityGaps = append(report.QualityGaps, models.QualityGap{
				Code:   k.Code,
				Count:  stats.Count,
				Reason: "All evidence is still in draft quality",
			})
		}
	}

	// Composite readiness score
	covered, goodQuality := 0, 0
	for _, k := range in.Codes {
		stats := agg.byCode[k.Code]
		if stats.covered() {
			covered++
		}
		if stats.hasQualityAtLeast(models.QualityGood) {
			goodQuality++
		}
	}
	var coveragePct, qualityPct float64
	if total := len(in.Codes); total > 0 {
		coveragePct = float64(covered) / float64(total) * 100
		qualityPct = float64(goodQuality) / float64(total) * 100
	}
	report.OverallScore = int(math.Round(coveragePct*th.CoverageWeight + qualityPct*th.QualityWeight))
	report.CoveragePct = math.Round(coveragePct)
	report.QualityPct = math.Round(qualityPct)

	report.Suggestions = buildSuggestions(report, in.Spec, in.Codes, th)

	return report, nil
}

// buildSuggestions renders the prioritized action list from fixed
// string templates. Each entry is omitted when its trigger is empty.
func buildSuggestions(r *models.GapReport, spec *models.Spec, codes []models.KSB, th Thresholds) []string {
	natural := make(map[string]string, len(codes))
	for i := range codes {
		natural[codes[i].Code] = codes[i].NaturalCode(spec)
	}
	display := func(code string) string {
		if n, ok := natural[code]; ok {
			return n
		}
		return code
	}

	suggestions := []string{}

	var critical []string
	for _, g := range r.KSBGaps {
		if g.Severity == models.SeverityCritical {
			critical = append(critical, display(g.Code))
		}
	}
	if len(critical) > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"Priority: log evidence for %s (no evidence yet)",
			joinCapped(critical, th.MaxCriticalSuggested)))
	}

	if len(r.TypeGaps) > 0 {
		labels := make([]string, 0, len(r.TypeGaps))
		for _, g := range r.TypeGaps {
			labels = append(labels, g.Label)
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"Try new activity types: %s",
			joinCapped(labels, th.MaxTypesSuggested)))
	}

	if len(r.WorkflowGaps) > 0 {
		labels := make([]string, 0, len(r.WorkflowGaps))
		for _, g := range r.WorkflowGaps {
			labels = append(labels, g.Label)
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"Add workflow-stage resources: %s",
			strings.Join(labels, ", ")))
	}

	if len(r.Staleness) > 0 {
		stale := make([]string, 0, len(r.Staleness))
		for _, s := range r.Staleness {
			stale = append(stale, display(s.Code))
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"Revisit stale KSBs: %s (no activity in %d+ days)",
			joinCapped(stale, th.MaxStaleSuggested), th.StaleAfterDays))
	}

	if len(r.QualityGaps) > 0 {
		draft := make([]string, 0, len(r.QualityGaps))
		for _, g := range r.QualityGaps {
			draft = append(draft, display(g.Code))
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"Improve evidence quality: %s (all still draft)",
			joinCapped(draft, th.MaxQualitySuggested)))
	}

	return suggestions
}

func joinCapped(items []string, max int) string {
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return strings.Join(items, ", ")
}

// daysBetween returns the number of whole calendar days from one date
// to another, ignoring time-of-day
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// round1 rounds to one decimal place, presentation only
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
