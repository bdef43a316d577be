package napsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/locallens/presence_backend/models"
)

// Field names used in discrepancy rows and scoring. The address comparison
// spans address/city/state/zip as one composite field.
const (
	FieldName              = "name"
	FieldAddress           = "address"
	FieldPhone             = "phone"
	FieldWebsite           = "website"
	FieldHours             = "hours"
	FieldOperationalStatus = "operational_status"
)

// managementURLs is where a human fixes a listing by hand.
var managementURLs = map[models.Platform]string{
	models.PlatformGoogle:    "https://business.google.com",
	models.PlatformYelp:      "https://biz.yelp.com",
	models.PlatformAppleMaps: "https://businessconnect.apple.com",
	models.PlatformBing:      "https://www.bingplaces.com",
}

// DiffNAPData compares Ground Truth against one platform's reported data and
// returns the discrepant fields. Pure, no I/O. Fields the platform did not
// report are never compared and never flagged — platform APIs routinely omit
// fields, and treating absence as a mismatch would flood every tenant with
// false positives.
func DiffNAPData(gt *GroundTruth, data *NAPData) []NAPField {
	var fields []NAPField

	if data.Name != nil && NormalizeName(gt.Name) != NormalizeName(*data.Name) {
		fields = append(fields, NAPField{
			FieldName:        FieldName,
			GroundTruthValue: gt.Name,
			PlatformValue:    *data.Name,
		})
	}

	if data.Address != nil {
		gtAddr := fullAddress(gt.Address, gt.City, gt.State, gt.Zip)
		platAddr := fullAddress(
			*data.Address,
			strDeref(data.City),
			strDeref(data.State),
			strDeref(data.Zip),
		)
		if !addressesMatch(gtAddr, platAddr) {
			fields = append(fields, NAPField{
				FieldName:        FieldAddress,
				GroundTruthValue: gtAddr,
				PlatformValue:    platAddr,
			})
		}
	}

	if data.Phone != nil && NormalizePhone(gt.Phone) != NormalizePhone(*data.Phone) {
		fields = append(fields, NAPField{
			FieldName:        FieldPhone,
			GroundTruthValue: gt.Phone,
			PlatformValue:    *data.Phone,
		})
	}

	if data.Website != nil && gt.Website != "" &&
		NormalizeWebsite(gt.Website) != NormalizeWebsite(*data.Website) {
		fields = append(fields, NAPField{
			FieldName:        FieldWebsite,
			GroundTruthValue: gt.Website,
			PlatformValue:    *data.Website,
		})
	}

	if data.OperationalStatus != nil && gt.OperationalStatus != "" &&
		!strings.EqualFold(gt.OperationalStatus, *data.OperationalStatus) {
		fields = append(fields, NAPField{
			FieldName:        FieldOperationalStatus,
			GroundTruthValue: gt.OperationalStatus,
			PlatformValue:    *data.OperationalStatus,
		})
	}

	// Hours: one discrepancy for the whole week, not one per day.
	if data.Hours != nil && gt.Hours != nil && !weekHoursEqual(gt.Hours, data.Hours) {
		fields = append(fields, NAPField{
			FieldName:        FieldHours,
			GroundTruthValue: describeHours(gt.Hours),
			PlatformValue:    describeHours(data.Hours),
		})
	}

	return fields
}

// ComputeSeverity applies the fixed worst-field-wins policy over the set of
// discrepant field names. It is deliberately not additive: the health scorer
// handles cumulative impact separately.
func ComputeSeverity(fields []NAPField) models.Severity {
	has := map[string]bool{}
	for _, f := range fields {
		has[f.FieldName] = true
	}

	switch {
	case has[FieldPhone] || has[FieldAddress]:
		return models.SeverityCritical
	case has[FieldName] || has[FieldOperationalStatus]:
		return models.SeverityHigh
	case has[FieldHours]:
		return models.SeverityMedium
	case has[FieldWebsite]:
		return models.SeverityLow
	default:
		return models.SeverityNone
	}
}

// fieldSeverity classifies a single field for scoring deductions.
func fieldSeverity(fieldName string) models.Severity {
	switch fieldName {
	case FieldPhone, FieldAddress:
		return models.SeverityCritical
	case FieldName, FieldOperationalStatus:
		return models.SeverityHigh
	case FieldHours:
		return models.SeverityMedium
	case FieldWebsite:
		return models.SeverityLow
	default:
		return models.SeverityNone
	}
}

// BuildDiscrepancy turns one adapter result into the platform's verdict for
// this run. Pure, no I/O.
func BuildDiscrepancy(gt *GroundTruth, result AdapterResult, detectedAt time.Time) PlatformDiscrepancy {
	disc := PlatformDiscrepancy{
		Platform:        result.Platform,
		LocationId:      gt.LocationId,
		OrgId:           gt.OrgId,
		Severity:        models.SeverityNone,
		AutoCorrectable: result.Platform == models.PlatformGoogle,
		DetectedAt:      detectedAt,
	}

	switch result.Status {
	case ResultUnconfigured:
		disc.Status = models.NAPStatusUnconfigured
		return disc
	case ResultAPIError:
		disc.Status = models.NAPStatusAPIError
		return disc
	case ResultNotFound:
		disc.Status = models.NAPStatusNotFound
		return disc
	}

	fields := DiffNAPData(gt, result.Data)
	if len(fields) == 0 {
		disc.Status = models.NAPStatusMatch
		return disc
	}

	disc.Status = models.NAPStatusDiscrepancy
	disc.DiscrepantFields = fields
	disc.Severity = ComputeSeverity(fields)
	if !disc.AutoCorrectable {
		disc.FixInstructions = buildFixInstructions(result.Platform, fields)
	}
	return disc
}

// buildFixInstructions produces numbered steps for platforms this engine
// cannot write to.
func buildFixInstructions(platform models.Platform, fields []NAPField) string {
	url := managementURLs[platform]
	var b strings.Builder
	fmt.Fprintf(&b, "1. Log in to %s\n", url)
	b.WriteString("2. Locate your business listing\n")
	for i, f := range fields {
		fmt.Fprintf(&b, "%d. Update %s from %q to %q\n",
			i+3, f.FieldName, f.PlatformValue, f.GroundTruthValue)
	}
	return b.String()
}

// addressesMatch compares normalized addresses, tolerating one side carrying
// trailing city/state/zip the other omits. Platforms disagree on whether the
// address line includes locality; "100 Main St, Atlanta, GA" must not be
// flagged against a platform reporting just "100 Main Street".
func addressesMatch(a, b string) bool {
	na := NormalizeAddress(a)
	nb := NormalizeAddress(b)
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	if strings.HasPrefix(na, nb+" ") || strings.HasPrefix(nb, na+" ") {
		return true
	}
	return false
}

func fullAddress(address, city, state, zip string) string {
	parts := []string{}
	for _, p := range []string{address, city, state, zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

func describeHours(h WeekHours) string {
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	var parts []string
	for _, d := range days {
		v, ok := lookupDay(h, d)
		if !ok {
			continue
		}
		if v.Closed {
			parts = append(parts, d+": closed")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s-%s", d, v.Open, v.Close))
	}
	return strings.Join(parts, ", ")
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
