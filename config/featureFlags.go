package config

import (
	"os"
	"strings"
)

// AutoCorrectionEnabled controls whether the sync pipeline is allowed to push
// corrections back to Google Business Profile. On unless explicitly disabled.
// Field-level safety filtering is always applied regardless of this flag.
//
// Set via env:
// - NAP_AUTO_CORRECTION=false
func AutoCorrectionEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("NAP_AUTO_CORRECTION")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// FleetSweepEnabled gates the scheduled all-locations sweep. Useful to pause
// the crawler without redeploying (upstream API incidents, quota resets).
//
// Set via env:
// - NAP_FLEET_SWEEP=false
func FleetSweepEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("NAP_FLEET_SWEEP")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
