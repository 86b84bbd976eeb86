package analysis

import (
	"fmt"

	"github.com/otjlab/otj-engine/internal/models"
)

// Coverage returns the per-KSB evidence totals for the dashboard, one
// row per spec code in catalog order. Hours are rounded to one decimal
// place for display; uncovered codes appear with zero totals.
func Coverage(activities []models.Activity, codes []models.KSB) ([]models.KSBCoverage, error) {
	agg, err := aggregate(activities, codes)
	if err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}

	rows := make([]models.KSBCoverage, 0, len(codes))
	for _, k := range codes {
		stats := agg.byCode[k.Code]
		rows = append(rows, models.KSBCoverage{
			Code:          k.Code,
			Category:      k.Category,
			Title:         k.Title,
			ActivityCount: stats.Count,
			TotalHours:    round1(stats.Hours),
		})
	}

	return rows, nil
}
