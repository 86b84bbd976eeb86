package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otjlab/otj-engine/internal/models"
)

func TestCoverageRowsInCatalogOrder(t *testing.T) {
	activities := []models.Activity{
		activity("a1", "2026-08-20", 1.25, models.QualityDraft, "S1"),
		activity("a2", "2026-08-21", 1.25, models.QualityGood, "S1", "K1"),
	}

	rows, err := Coverage(activities, testCodes())
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, "K1", rows[0].Code)
	assert.Equal(t, "K2", rows[1].Code)
	assert.Equal(t, "S1", rows[2].Code)
	assert.Equal(t, "B1", rows[3].Code)

	// Uncovered codes appear with zero totals
	assert.Zero(t, rows[1].ActivityCount)
	assert.Zero(t, rows[1].TotalHours)

	assert.Equal(t, 2, rows[2].ActivityCount)
	assert.Equal(t, 2.5, rows[2].TotalHours)
	assert.Equal(t, 1, rows[0].ActivityCount)
}

func TestCoverageRoundsForDisplay(t *testing.T) {
	// 0.1 x 3 accumulates binary-float error; display rounds to 1dp
	activities := []models.Activity{
		activity("a1", "2026-08-20", 0.1, models.QualityDraft, "K1"),
		activity("a2", "2026-08-21", 0.1, models.QualityDraft, "K1"),
		activity("a3", "2026-08-22", 0.1, models.QualityDraft, "K1"),
	}

	rows, err := Coverage(activities, testCodes())
	require.NoError(t, err)
	assert.Equal(t, 0.3, rows[0].TotalHours)
}

func TestCoverageRejectsUnknownCode(t *testing.T) {
	activities := []models.Activity{
		activity("a1", "2026-08-20", 1, models.QualityDraft, "Z99"),
	}

	_, err := Coverage(activities, testCodes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidActivity)
}

func TestAggregateEmptyQualityDefaultsToDraft(t *testing.T) {
	a := activity("a1", "2026-08-20", 1, "", "K1")

	agg, err := aggregate([]models.Activity{a}, testCodes())
	require.NoError(t, err)

	stats := agg.byCode["K1"]
	require.Len(t, stats.Qualities, 1)
	assert.Equal(t, models.QualityDraft, stats.Qualities[0])
	assert.True(t, stats.allDraft())
}

func TestAggregateTracksUsedTypesAndStages(t *testing.T) {
	a := activity("a1", "2026-08-20", 1, models.QualityGood, "K1")
	a.ActivityType = models.TypeWorkshop
	a.Resources = []models.ResourceLink{
		{ID: "r1", URL: "https://example.org", Title: "slides", Stage: models.StageCapture},
		{ID: "r2", URL: "https://example.org/2", Title: "notes", Stage: models.StageReview},
	}

	agg, err := aggregate([]models.Activity{a}, testCodes())
	require.NoError(t, err)

	assert.Contains(t, agg.usedTypes, models.TypeWorkshop)
	assert.Contains(t, agg.usedStages, models.StageCapture)
	assert.Contains(t, agg.usedStages, models.StageReview)
	assert.NotContains(t, agg.usedStages, models.StageEngage)
}
