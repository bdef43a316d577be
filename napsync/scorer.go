package napsync

import (
	"time"

	"github.com/locallens/presence_backend/models"
)

// Scoring policy. Deductions are per discrepant field, cumulative across
// fields and platforms, then clamped to [0, 100].
const (
	deductUnconfigured = 5
	deductAPIError     = 2

	deductCriticalField = 25
	deductHighField     = 15
	deductMediumField   = 8
	deductLowField      = 3
)

// CalculateNAPHealthScore folds all platform verdicts into the composite
// 0-100 score and letter grade. Pure function.
func CalculateNAPHealthScore(results []AdapterResult, discrepancies []PlatformDiscrepancy, checkedAt time.Time) NAPHealthScore {
	score := 100
	matched := 0
	critical := 0

	for _, r := range results {
		switch r.Status {
		case ResultUnconfigured:
			score -= deductUnconfigured
		case ResultAPIError:
			score -= deductAPIError
		}
	}

	for _, d := range discrepancies {
		switch d.Status {
		case models.NAPStatusMatch:
			matched++
		case models.NAPStatusDiscrepancy:
			if d.Severity == models.SeverityCritical {
				critical++
			}
			for _, f := range d.DiscrepantFields {
				score -= fieldDeduction(f.FieldName)
			}
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return NAPHealthScore{
		Score:                 score,
		Grade:                 gradeForScore(score),
		PlatformsChecked:      len(results),
		PlatformsMatched:      matched,
		CriticalDiscrepancies: critical,
		LastCheckedAt:         checkedAt,
	}
}

func fieldDeduction(fieldName string) int {
	switch fieldSeverity(fieldName) {
	case models.SeverityCritical:
		return deductCriticalField
	case models.SeverityHigh:
		return deductHighField
	case models.SeverityMedium:
		return deductMediumField
	case models.SeverityLow:
		return deductLowField
	default:
		return 0
	}
}

func gradeForScore(score int) models.Grade {
	switch {
	case score >= 90:
		return models.GradeA
	case score >= 75:
		return models.GradeB
	case score >= 60:
		return models.GradeC
	case score >= 40:
		return models.GradeD
	default:
		return models.GradeF
	}
}
