package models

import "errors"

// platforms

type Platform string

const (
	PlatformGoogle    Platform = "google"
	PlatformYelp      Platform = "yelp"
	PlatformAppleMaps Platform = "apple_maps"
	PlatformBing      Platform = "bing"
)

func AllPlatforms() []Platform {
	return []Platform{PlatformGoogle, PlatformYelp, PlatformAppleMaps, PlatformBing}
}

func ParsePlatform(v string) (Platform, error) {
	switch Platform(v) {
	case PlatformGoogle, PlatformYelp, PlatformAppleMaps, PlatformBing:
		return Platform(v), nil
	}
	return "", errors.New("invalid platform")
}

// per-platform verdict for one run

type NAPStatus string

const (
	NAPStatusMatch        NAPStatus = "match"
	NAPStatusDiscrepancy  NAPStatus = "discrepancy"
	NAPStatusUnconfigured NAPStatus = "unconfigured"
	NAPStatusAPIError     NAPStatus = "api_error"
	NAPStatusNotFound     NAPStatus = "not_found"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

type OperationalStatus string

const (
	OperationalStatusOpen              OperationalStatus = "open"
	OperationalStatusClosedPermanently OperationalStatus = "closed_permanently"
	OperationalStatusClosedTemporarily OperationalStatus = "closed_temporarily"
)

func (s OperationalStatus) Valid() bool {
	switch s {
	case OperationalStatusOpen, OperationalStatusClosedPermanently, OperationalStatusClosedTemporarily:
		return true
	}
	return false
}

// sync run bookkeeping

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual   = "manual"
	SyncTriggeredSchedule = "schedule"
	SyncTriggeredRetry    = "retry"
)

// connection status (Google OAuth)

const (
	ConnectionStatusConnected    = "connected"
	ConnectionStatusDisconnected = "disconnected"
	ConnectionStatusError        = "error"
)

// subscription plans

type SubscriptionPlan string

const (
	PlanFree    SubscriptionPlan = "free"
	PlanStarter SubscriptionPlan = "starter"
	PlanGrowth  SubscriptionPlan = "growth"
	PlanPro     SubscriptionPlan = "pro"
)

func planRank(p SubscriptionPlan) int {
	switch p {
	case PlanFree:
		return 0
	case PlanStarter:
		return 1
	case PlanGrowth:
		return 2
	case PlanPro:
		return 3
	default:
		return -1
	}
}

// PlanSatisfies reports whether plan meets or exceeds minimum. Unknown plans
// never satisfy anything.
func PlanSatisfies(plan SubscriptionPlan, minimum SubscriptionPlan) bool {
	pr := planRank(plan)
	mr := planRank(minimum)
	if pr < 0 || mr < 0 {
		return false
	}
	return pr >= mr
}
