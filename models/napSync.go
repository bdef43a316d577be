package models

import (
	"context"
	"time"

	"github.com/locallens/presence_backend/config"
	"github.com/shopspring/decimal"
)

// NAPSyncRun is the bookkeeping row for one orchestration of one location:
// queued on trigger, then updated when the worker finishes.
type NAPSyncRun struct {
	ID          uint       `gorm:"primary_key" json:"id"`
	OrgId       string     `gorm:"index;not null" json:"org_id"`
	LocationId  uint       `gorm:"index;not null" json:"location_id"`
	Status      string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy string     `gorm:"size:20" json:"triggered_by"`
	Score       *int       `json:"score"`
	Grade       Grade      `gorm:"size:2" json:"grade"`
	ErrorCount  int        `json:"error_count"`
	StartedAt   *time.Time `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
	DurationMs  int64      `json:"duration_ms"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NAPSnapshot is append-only: one row per (location, platform, run) holding
// the raw NAPData the platform reported, or the failure classification.
type NAPSnapshot struct {
	ID                  uint       `gorm:"primary_key" json:"id"`
	RunId               uint       `gorm:"uniqueIndex:idx_nap_snapshot,priority:1;not null" json:"run_id"`
	OrgId               string     `gorm:"index;not null" json:"org_id"`
	LocationId          uint       `gorm:"index;not null" json:"location_id"`
	Platform            Platform   `gorm:"uniqueIndex:idx_nap_snapshot,priority:2;size:50;not null" json:"platform"`
	Status              NAPStatus  `gorm:"size:20;not null" json:"status"`
	DataJSON            []byte     `gorm:"type:json" json:"data"`
	ErrorMessage        string     `gorm:"type:text" json:"error_message"`
	HTTPStatus          *int       `json:"http_status"`
	FetchedAt           *time.Time `json:"fetched_at"`
	CorrectionPushedAt  *time.Time `json:"correction_pushed_at"`
	CorrectedFieldsJSON []byte     `gorm:"type:json" json:"corrected_fields"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// NAPDiscrepancy is append-only: one verdict row per (location, platform, run).
type NAPDiscrepancy struct {
	ID              uint      `gorm:"primary_key" json:"id"`
	RunId           uint      `gorm:"uniqueIndex:idx_nap_discrepancy,priority:1;not null" json:"run_id"`
	OrgId           string    `gorm:"index;not null" json:"org_id"`
	LocationId      uint      `gorm:"index;not null" json:"location_id"`
	Platform        Platform  `gorm:"uniqueIndex:idx_nap_discrepancy,priority:2;size:50;not null" json:"platform"`
	Status          NAPStatus `gorm:"size:20;not null" json:"status"`
	FieldsJSON      []byte    `gorm:"type:json" json:"discrepant_fields"`
	Severity        Severity  `gorm:"size:10;not null;default:none" json:"severity"`
	AutoCorrectable bool      `gorm:"default:false" json:"auto_correctable"`
	FixInstructions string    `gorm:"type:text" json:"fix_instructions"`
	DetectedAt      time.Time `json:"detected_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func GetNAPSyncRun(ctx context.Context, runId uint, orgId string) (*NAPSyncRun, error) {
	db := config.GetDB()
	var run NAPSyncRun
	if err := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", runId, orgId).
		Take(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func ListNAPSyncRuns(ctx context.Context, locationId uint, orgId string, limit int) ([]NAPSyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	db := config.GetDB()
	var runs []NAPSyncRun
	if err := db.WithContext(ctx).
		Where("location_id = ? AND org_id = ?", locationId, orgId).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func ListDiscrepanciesByRun(ctx context.Context, runId uint, orgId string) ([]NAPDiscrepancy, error) {
	db := config.GetDB()
	var rows []NAPDiscrepancy
	if err := db.WithContext(ctx).
		Where("run_id = ? AND org_id = ?", runId, orgId).
		Order("platform").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestDiscrepancies returns the verdicts of the most recent finished run.
func LatestDiscrepancies(ctx context.Context, locationId uint, orgId string) ([]NAPDiscrepancy, error) {
	db := config.GetDB()
	var latestRunId *uint
	if err := db.WithContext(ctx).Model(&NAPDiscrepancy{}).
		Select("max(run_id)").
		Where("location_id = ? AND org_id = ?", locationId, orgId).
		Scan(&latestRunId).Error; err != nil {
		return nil, err
	}
	if latestRunId == nil {
		return nil, nil
	}
	return ListDiscrepanciesByRun(ctx, *latestRunId, orgId)
}

// HealthScoreTrend averages the scores of the last n finished runs. Returned
// as a decimal so the dashboard shows e.g. 87.5 rather than a truncated int.
func HealthScoreTrend(ctx context.Context, locationId uint, orgId string, n int) (decimal.Decimal, int, error) {
	if n <= 0 {
		n = 10
	}
	db := config.GetDB()
	var scores []int
	if err := db.WithContext(ctx).Model(&NAPSyncRun{}).
		Where("location_id = ? AND org_id = ? AND score IS NOT NULL", locationId, orgId).
		Order("id DESC").
		Limit(n).
		Pluck("score", &scores).Error; err != nil {
		return decimal.Zero, 0, err
	}
	if len(scores) == 0 {
		return decimal.Zero, 0, nil
	}

	sum := decimal.Zero
	for _, s := range scores {
		sum = sum.Add(decimal.NewFromInt(int64(s)))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(scores)))).Round(1)
	return avg, len(scores), nil
}
