package napsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/models"
)

// Store is the persistence seam of the engine. The orchestrator talks to
// collaborators only through this interface so it can run against fakes in
// tests; gormStore is the production implementation.
type Store interface {
	GroundTruth(ctx context.Context, locationId uint, orgId string) (*GroundTruth, error)
	PlatformIDs(ctx context.Context, locationId uint, orgId string) (map[models.Platform]string, error)

	GoogleConnection(ctx context.Context, orgId string) (*models.PlatformConnection, error)
	SaveConnectionToken(ctx context.Context, connId uint, orgId string, accessToken string, expiresAt time.Time) error

	CreateRun(ctx context.Context, run *models.NAPSyncRun) error
	FinishRun(ctx context.Context, run *models.NAPSyncRun) error

	SaveSnapshot(ctx context.Context, snapshot *models.NAPSnapshot) error
	SaveDiscrepancy(ctx context.Context, discrepancy *models.NAPDiscrepancy) error
	MarkCorrectionPushed(ctx context.Context, runId uint, orgId string, platform models.Platform, fields []string, at time.Time) error
	UpdateLocationScore(ctx context.Context, locationId uint, orgId string, score int, checkedAt time.Time) error

	SweepOrganizations(ctx context.Context, minimum models.SubscriptionPlan) ([]models.Organization, error)
	SweepLocations(ctx context.Context, orgId string) ([]models.Location, error)
}

type gormStore struct{}

// NewStore returns the GORM-backed store.
func NewStore() Store { return gormStore{} }

func (gormStore) GroundTruth(ctx context.Context, locationId uint, orgId string) (*GroundTruth, error) {
	location, err := models.GetLocationById(ctx, locationId, orgId)
	if err != nil {
		return nil, err
	}
	return &GroundTruth{
		LocationId:        location.ID,
		OrgId:             location.OrgId,
		Name:              location.BusinessName,
		Address:           location.AddressLine1,
		City:              location.City,
		State:             location.State,
		Zip:               location.Zip,
		Phone:             location.Phone,
		Website:           location.WebsiteUrl,
		Hours:             DecodeWeekHours(location.HoursJSON),
		OperationalStatus: string(location.OperationalStatus),
	}, nil
}

func (gormStore) PlatformIDs(ctx context.Context, locationId uint, orgId string) (map[models.Platform]string, error) {
	return models.GetLocationPlatformIDs(ctx, locationId, orgId)
}

func (gormStore) GoogleConnection(ctx context.Context, orgId string) (*models.PlatformConnection, error) {
	return models.GetPlatformConnection(ctx, orgId, models.PlatformGoogle)
}

func (gormStore) SaveConnectionToken(ctx context.Context, connId uint, orgId string, accessToken string, expiresAt time.Time) error {
	return models.UpdateConnectionTokens(ctx, connId, orgId, accessToken, expiresAt)
}

func (gormStore) CreateRun(ctx context.Context, run *models.NAPSyncRun) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(run).Error
}

func (gormStore) FinishRun(ctx context.Context, run *models.NAPSyncRun) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":      run.Status,
		"score":       run.Score,
		"grade":       run.Grade,
		"error_count": run.ErrorCount,
		"started_at":  run.StartedAt,
		"finished_at": run.FinishedAt,
		"duration_ms": run.DurationMs,
	}).Error
}

func (gormStore) SaveSnapshot(ctx context.Context, snapshot *models.NAPSnapshot) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(snapshot).Error
}

func (gormStore) SaveDiscrepancy(ctx context.Context, discrepancy *models.NAPDiscrepancy) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(discrepancy).Error
}

func (gormStore) MarkCorrectionPushed(ctx context.Context, runId uint, orgId string, platform models.Platform, fields []string, at time.Time) error {
	fieldsJSON, _ := json.Marshal(fields)
	db := config.GetDB()
	return db.WithContext(ctx).Model(&models.NAPSnapshot{}).
		Where("run_id = ? AND org_id = ? AND platform = ?", runId, orgId, platform).
		Updates(map[string]interface{}{
			"correction_pushed_at":  at,
			"corrected_fields_json": fieldsJSON,
		}).Error
}

func (gormStore) UpdateLocationScore(ctx context.Context, locationId uint, orgId string, score int, checkedAt time.Time) error {
	return models.UpdateLocationHealthScore(ctx, locationId, orgId, score, checkedAt)
}

func (gormStore) SweepOrganizations(ctx context.Context, minimum models.SubscriptionPlan) ([]models.Organization, error) {
	return models.ListSweepEligibleOrganizations(ctx, minimum)
}

func (gormStore) SweepLocations(ctx context.Context, orgId string) ([]models.Location, error) {
	return models.ListLocationsByOrg(ctx, orgId)
}
