package napsync

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/models"
	"github.com/locallens/presence_backend/utils"
	"gorm.io/gorm"
)

// StatusResponse is the dashboard payload: the location's rolling score, the
// verdicts of the most recent run and the score trend over recent runs.
type StatusResponse struct {
	LocationId    uint                  `json:"location_id"`
	HealthScore   *int                  `json:"health_score"`
	Grade         *models.Grade         `json:"grade,omitempty"`
	LastCheckedAt *string               `json:"last_checked_at"`
	ScoreTrend    *string               `json:"score_trend,omitempty"`
	TrendRuns     int                   `json:"trend_runs"`
	Platforms     []PlatformDiscrepancy `json:"platforms"`
}

type SyncRunResponse struct {
	ID          uint         `json:"id"`
	LocationId  uint         `json:"location_id"`
	Status      string       `json:"status"`
	TriggeredBy string       `json:"triggered_by"`
	Score       *int         `json:"score"`
	Grade       models.Grade `json:"grade,omitempty"`
	ErrorCount  int          `json:"error_count"`
	StartedAt   *string      `json:"started_at"`
	FinishedAt  *string      `json:"finished_at"`
	DurationMs  int64        `json:"duration_ms"`
}

type SyncRunDetailResponse struct {
	SyncRunResponse
	Discrepancies []PlatformDiscrepancy `json:"discrepancies"`
}

func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgId, err := resolveOrgID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		locationId, err := locationIDParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location_id"})
			return
		}
		ctx := utils.SetOrgIdInContext(c.Request.Context(), orgId)

		location, err := models.GetLocationById(ctx, locationId, orgId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		rows, err := models.LatestDiscrepancies(ctx, locationId, orgId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp := StatusResponse{
			LocationId:    location.ID,
			HealthScore:   location.NapHealthScore,
			LastCheckedAt: utils.FormatTimePtr(location.NapLastCheckedAt),
			Platforms:     mapDiscrepancyRows(rows),
		}
		if location.NapHealthScore != nil {
			grade := gradeForScore(*location.NapHealthScore)
			resp.Grade = &grade
		}

		trend, trendRuns, err := models.HealthScoreTrend(ctx, locationId, orgId, utils.IntFromEnv("NAP_TREND_RUNS", 10))
		if err == nil && trendRuns > 0 {
			s := trend.String()
			resp.ScoreTrend = &s
			resp.TrendRuns = trendRuns
		}

		c.JSON(http.StatusOK, resp)
	}
}

type TriggerSyncRequest struct {
	LocationId uint `json:"location_id" binding:"required"`
}

// TriggerSyncHandler queues one run and publishes it for the push worker.
// The response returns immediately with the queued run id.
func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgId, err := resolveOrgID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req TriggerSyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		ctx := utils.SetOrgIdInContext(c.Request.Context(), orgId)
		if err := utils.ValidateResourceId[models.Location](ctx, orgId, req.LocationId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		db := config.GetDB().WithContext(ctx)
		run := models.NAPSyncRun{
			OrgId:       orgId,
			LocationId:  req.LocationId,
			Status:      models.SyncRunStatusQueued,
			TriggeredBy: models.SyncTriggeredManual,
		}
		if err := db.Create(&run).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := PublishSyncRun(ctx, run.ID, orgId, req.LocationId); err != nil {
			config.LogError(config.GetLogger(), moduleName, "TriggerSyncHandler", "Could not publish sync run", run.ID, err)
		}

		c.JSON(http.StatusOK, gin.H{"id": run.ID, "status": run.Status})
	}
}

func SyncHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgId, err := resolveOrgID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		locationId, err := locationIDParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location_id"})
			return
		}

		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		ctx := utils.SetOrgIdInContext(c.Request.Context(), orgId)
		runs, err := models.ListNAPSyncRuns(ctx, locationId, orgId, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]SyncRunResponse, 0, len(runs))
		for _, run := range runs {
			items = append(items, mapRunToResponse(run))
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func SyncRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgId, err := resolveOrgID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		ctx := utils.SetOrgIdInContext(c.Request.Context(), orgId)
		run, err := models.GetNAPSyncRun(ctx, uint(id), orgId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		rows, err := models.ListDiscrepanciesByRun(ctx, run.ID, orgId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, SyncRunDetailResponse{
			SyncRunResponse: mapRunToResponse(*run),
			Discrepancies:   mapDiscrepancyRows(rows),
		})
	}
}

// UpsertLocationHandler creates or updates the Ground Truth record for a
// storefront. The phone is validated before it is accepted: a malformed
// number here would flag every platform as discrepant.
func UpsertLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgId, err := resolveOrgID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req models.NewLocation
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		if err := utils.ValidatePhoneNumber(req.Phone, "US"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status := models.OperationalStatus(req.OperationalStatus)
		if req.OperationalStatus != "" && !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operational_status"})
			return
		}
		if len(req.HoursData) > 0 && DecodeWeekHours(req.HoursData) == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours_data"})
			return
		}

		ctx := utils.SetOrgIdInContext(c.Request.Context(), orgId)
		db := config.GetDB().WithContext(ctx)

		location := models.Location{
			OrgId:             orgId,
			BusinessName:      req.BusinessName,
			AddressLine1:      req.AddressLine1,
			City:              req.City,
			State:             req.State,
			Zip:               req.Zip,
			Phone:             req.Phone,
			WebsiteUrl:        req.WebsiteUrl,
			HoursJSON:         req.HoursData,
			OperationalStatus: status,
			IsActive:          utils.NewTrue(),
		}

		if v := strings.TrimSpace(c.Query("location_id")); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location_id"})
				return
			}
			existing, err := models.GetLocationById(ctx, uint(id), orgId)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			location.ID = existing.ID
			if err := db.Model(existing).Updates(map[string]interface{}{
				"business_name":      location.BusinessName,
				"address_line1":      location.AddressLine1,
				"city":               location.City,
				"state":              location.State,
				"zip":                location.Zip,
				"phone":              location.Phone,
				"website_url":        location.WebsiteUrl,
				"hours_json":         location.HoursJSON,
				"operational_status": location.OperationalStatus,
			}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"id": existing.ID})
			return
		}

		if err := db.Create(&location).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": location.ID})
	}
}

type BingMatchRequest struct {
	LocationId uint          `json:"location_id" binding:"required"`
	Candidates []BingListing `json:"candidates" binding:"required"`
	MinScore   *float64      `json:"min_score"`
}

// BingMatchHandler fuzzy-matches candidate Bing listings against the
// location's Ground Truth address and links the winner. Bing search returns
// near-duplicates for multi-unit addresses; exact-string linking misfires.
func BingMatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgId, err := resolveOrgID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req BingMatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		ctx := utils.SetOrgIdInContext(c.Request.Context(), orgId)
		location, err := models.GetLocationById(ctx, req.LocationId, orgId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		minScore := 0.6
		if req.MinScore != nil {
			minScore = *req.MinScore
		}
		target := location.AddressLine1 + ", " + location.City + ", " + location.State + " " + location.Zip
		best, score := FindBestListingMatch(target, req.Candidates, minScore)
		if best == nil {
			c.JSON(http.StatusOK, gin.H{"matched": false, "best_score": score})
			return
		}

		db := config.GetDB().WithContext(ctx)
		mapping := models.LocationPlatformID{
			OrgId:      orgId,
			LocationId: req.LocationId,
			Platform:   models.PlatformBing,
			PlatformId: best.ID,
		}
		err = db.Where("org_id = ? AND location_id = ? AND platform = ?", orgId, req.LocationId, models.PlatformBing).
			Assign(map[string]interface{}{"platform_id": best.ID}).
			FirstOrCreate(&mapping).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"matched": true, "platform_id": best.ID, "score": score})
	}
}

func resolveOrgID(c *gin.Context) (string, error) {
	orgId, ok := utils.GetOrgIdFromContext(c.Request.Context())
	if !ok || strings.TrimSpace(orgId) == "" {
		return "", errors.New("unauthorized")
	}
	return orgId, nil
}

func locationIDParam(c *gin.Context) (uint, error) {
	v := strings.TrimSpace(c.Query("location_id"))
	id, err := strconv.Atoi(v)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid location_id")
	}
	return uint(id), nil
}

func mapRunToResponse(run models.NAPSyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:          run.ID,
		LocationId:  run.LocationId,
		Status:      run.Status,
		TriggeredBy: run.TriggeredBy,
		Score:       run.Score,
		Grade:       run.Grade,
		ErrorCount:  run.ErrorCount,
		StartedAt:   utils.FormatTimePtr(run.StartedAt),
		FinishedAt:  utils.FormatTimePtr(run.FinishedAt),
		DurationMs:  run.DurationMs,
	}
}

func mapDiscrepancyRows(rows []models.NAPDiscrepancy) []PlatformDiscrepancy {
	out := make([]PlatformDiscrepancy, 0, len(rows))
	for _, row := range rows {
		out = append(out, PlatformDiscrepancy{
			Platform:         row.Platform,
			LocationId:       row.LocationId,
			OrgId:            row.OrgId,
			Status:           row.Status,
			DiscrepantFields: DecodeFields(row.FieldsJSON),
			Severity:         row.Severity,
			AutoCorrectable:  row.AutoCorrectable,
			FixInstructions:  row.FixInstructions,
			DetectedAt:       row.DetectedAt,
		})
	}
	return out
}
