package napsync

import (
	"encoding/json"
	"time"

	"github.com/locallens/presence_backend/models"
)

// DayHours is one day's opening block in canonical form.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// WeekHours is keyed by lowercase day name ("monday".."sunday").
type WeekHours map[string]DayHours

// GroundTruth is the authoritative record for one location, loaded fresh at
// the start of each run. This engine never mutates it.
type GroundTruth struct {
	LocationId        uint      `json:"location_id"`
	OrgId             string    `json:"org_id"`
	Name              string    `json:"name"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	Zip               string    `json:"zip"`
	Phone             string    `json:"phone"`
	Website           string    `json:"website,omitempty"`
	Hours             WeekHours `json:"hours,omitempty"`
	OperationalStatus string    `json:"operational_status,omitempty"`
}

// NAPData is the canonical shape every adapter maps its platform response
// into. A nil field means "platform did not report it" — never "platform
// reported empty". Absent fields are never compared and never flagged.
type NAPData struct {
	Name              *string   `json:"name,omitempty"`
	Address           *string   `json:"address,omitempty"`
	City              *string   `json:"city,omitempty"`
	State             *string   `json:"state,omitempty"`
	Zip               *string   `json:"zip,omitempty"`
	Phone             *string   `json:"phone,omitempty"`
	Website           *string   `json:"website,omitempty"`
	Hours             WeekHours `json:"hours,omitempty"`
	OperationalStatus *string   `json:"operational_status,omitempty"`
}

// ResultStatus tags the adapter result union.
type ResultStatus string

const (
	ResultOK           ResultStatus = "ok"
	ResultUnconfigured ResultStatus = "unconfigured"
	ResultAPIError     ResultStatus = "api_error"
	ResultNotFound     ResultStatus = "not_found"
)

// AdapterResult is exactly one of ok / unconfigured / api_error / not_found
// per adapter invocation. Adapters must classify every failure mode into one
// of these — no error ever crosses the adapter boundary.
type AdapterResult struct {
	Platform   models.Platform `json:"platform"`
	Status     ResultStatus    `json:"status"`
	Data       *NAPData        `json:"data,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Message    string          `json:"message,omitempty"`
	HTTPStatus *int            `json:"http_status,omitempty"`
	FetchedAt  time.Time       `json:"fetched_at,omitempty"`
}

func okResult(platform models.Platform, data *NAPData) AdapterResult {
	return AdapterResult{Platform: platform, Status: ResultOK, Data: data, FetchedAt: time.Now().UTC()}
}

func unconfiguredResult(platform models.Platform, reason string) AdapterResult {
	return AdapterResult{Platform: platform, Status: ResultUnconfigured, Reason: reason}
}

func apiErrorResult(platform models.Platform, message string, httpStatus *int) AdapterResult {
	return AdapterResult{Platform: platform, Status: ResultAPIError, Message: message, HTTPStatus: httpStatus}
}

func notFoundResult(platform models.Platform) AdapterResult {
	return AdapterResult{Platform: platform, Status: ResultNotFound}
}

// NAPField is one discrepant field.
type NAPField struct {
	FieldName        string `json:"field_name"`
	GroundTruthValue string `json:"ground_truth_value"`
	PlatformValue    string `json:"platform_value"`
}

// PlatformDiscrepancy is one platform's verdict for one run.
type PlatformDiscrepancy struct {
	Platform         models.Platform  `json:"platform"`
	LocationId       uint             `json:"location_id"`
	OrgId            string           `json:"org_id"`
	Status           models.NAPStatus `json:"status"`
	DiscrepantFields []NAPField       `json:"discrepant_fields"`
	Severity         models.Severity  `json:"severity"`
	AutoCorrectable  bool             `json:"auto_correctable"`
	FixInstructions  string           `json:"fix_instructions,omitempty"`
	DetectedAt       time.Time        `json:"detected_at"`
}

// NAPHealthScore is the composite per-run result.
type NAPHealthScore struct {
	Score                 int          `json:"score"`
	Grade                 models.Grade `json:"grade"`
	PlatformsChecked      int          `json:"platforms_checked"`
	PlatformsMatched      int          `json:"platforms_matched"`
	CriticalDiscrepancies int          `json:"critical_discrepancies"`
	LastCheckedAt         time.Time    `json:"last_checked_at"`
}

// NAPSyncResult is the aggregate returned by one orchestration run.
type NAPSyncResult struct {
	LocationId        uint                  `json:"location_id"`
	OrgId             string                `json:"org_id"`
	HealthScore       NAPHealthScore        `json:"health_score"`
	PlatformResults   []AdapterResult       `json:"platform_results"`
	Discrepancies     []PlatformDiscrepancy `json:"discrepancies"`
	CorrectionsPushed []models.Platform     `json:"corrections_pushed"`
	CorrectionsFailed []models.Platform     `json:"corrections_failed"`
	RunAt             time.Time             `json:"run_at"`
}

// DecodeWeekHours parses the stored hours JSON. Empty or malformed input
// yields nil (no hours known) rather than an error; hours are optional.
func DecodeWeekHours(raw []byte) WeekHours {
	if len(raw) == 0 {
		return nil
	}
	var hours WeekHours
	if err := json.Unmarshal(raw, &hours); err != nil {
		return nil
	}
	if len(hours) == 0 {
		return nil
	}
	return hours
}

func EncodeFields(fields []NAPField) []byte {
	if len(fields) == 0 {
		return []byte("[]")
	}
	b, _ := json.Marshal(fields)
	return b
}

func DecodeFields(raw []byte) []NAPField {
	if len(raw) == 0 {
		return nil
	}
	var fields []NAPField
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}
