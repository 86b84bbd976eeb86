package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/otjlab/otj-engine/internal/models"
)

// ErrInvalidActivity is returned when the snapshot contains a record
// that violates the input contract (negative or non-finite duration,
// missing date, or a KSB reference outside the spec's code set).
// Invalid input is rejected rather than skipped: silently dropping a
// record would corrupt the readiness score without any signal.
var ErrInvalidActivity = errors.New("invalid activity record")

// codeStats is the evidence accumulated against one KSB code
type codeStats struct {
	Hours     float64
	Count     int
	LastDate  time.Time // zero when never evidenced
	Qualities []models.EvidenceQuality
}

// aggregates is the output of the coverage pass: a complete mapping
// (every spec code has an entry, possibly zero) plus the activity
// types and workflow stages seen anywhere in the log.
type aggregates struct {
	byCode     map[string]*codeStats
	usedTypes  map[models.ActivityType]struct{}
	usedStages map[models.WorkflowStage]struct{}
}

// aggregate runs a single linear pass over the activity snapshot and
// buckets hours, counts, last-evidenced dates and quality tiers per
// KSB code. An activity linked to N codes contributes its full
// duration to each of the N codes; duplicate links to the same code
// within one activity count once. No rounding happens here.
func aggregate(activities []models.Activity, codes []models.KSB) (*aggregates, error) {
	agg := &aggregates{
		byCode:     make(map[string]*codeStats, len(codes)),
		usedTypes:  make(map[models.ActivityType]struct{}),
		usedStages: make(map[models.WorkflowStage]struct{}),
	}
	for _, k := range codes {
		agg.byCode[k.Code] = &codeStats{}
	}

	for i := range activities {
		a := &activities[i]

		if a.DurationHours < 0 || math.IsNaN(a.DurationHours) || math.IsInf(a.DurationHours, 0) {
			return nil, fmt.Errorf("%w: activity %s has duration %v", ErrInvalidActivity, a.ID, a.DurationHours)
		}
		if a.ActivityDate.IsZero() {
			return nil, fmt.Errorf("%w: activity %s has no date", ErrInvalidActivity, a.ID)
		}

		agg.usedTypes[a.ActivityType] = struct{}{}
		for _, r := range a.Resources {
			agg.usedStages[r.Stage] = struct{}{}
		}

		quality := a.Quality
		if quality == "" {
			quality = models.QualityDraft
		}

		seen := make(map[string]struct{}, len(a.KSBCodes))
		for _, code := range a.KSBCodes {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}

			stats, ok := agg.byCode[code]
			if !ok {
				return nil, fmt.Errorf("%w: activity %s references unknown KSB %q", ErrInvalidActivity, a.ID, code)
			}

			stats.Hours += a.DurationHours
			stats.Count++
			if a.ActivityDate.After(stats.LastDate) {
				stats.LastDate = a.ActivityDate
			}
			stats.Qualities = append(stats.Qualities, quality)
		}
	}

	return agg, nil
}

// covered reports whether any evidence at all is logged for the code
func (s *codeStats) covered() bool {
	return s.Hours > 0
}

// hasQualityAtLeast reports whether any logged tier reaches min
func (s *codeStats) hasQualityAtLeast(min models.EvidenceQuality) bool {
	for _, q := range s.Qualities {
		if q.Rank() >= min.Rank() {
			return true
		}
	}
	return false
}

// allDraft reports whether the code has evidence and every piece of it
// is still at the lowest tier
func (s *codeStats) allDraft() bool {
	if len(s.Qualities) == 0 {
		return false
	}
	for _, q := range s.Qualities {
		if q != models.QualityDraft {
			return false
		}
	}
	return true
}
