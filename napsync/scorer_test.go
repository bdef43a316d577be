package napsync

import (
	"testing"
	"time"

	"github.com/locallens/presence_backend/models"
)

func matchVerdict(platform models.Platform) PlatformDiscrepancy {
	return PlatformDiscrepancy{Platform: platform, Status: models.NAPStatusMatch}
}

func discrepancyVerdict(platform models.Platform, fieldNames ...string) PlatformDiscrepancy {
	var fields []NAPField
	for _, name := range fieldNames {
		fields = append(fields, NAPField{FieldName: name})
	}
	return PlatformDiscrepancy{
		Platform:         platform,
		Status:           models.NAPStatusDiscrepancy,
		DiscrepantFields: fields,
		Severity:         ComputeSeverity(fields),
	}
}

func TestCalculateNAPHealthScore_PerfectRun(t *testing.T) {
	now := time.Now()
	results := []AdapterResult{
		okResult(models.PlatformGoogle, &NAPData{}),
		okResult(models.PlatformYelp, &NAPData{}),
		okResult(models.PlatformAppleMaps, &NAPData{}),
		okResult(models.PlatformBing, &NAPData{}),
	}
	verdicts := []PlatformDiscrepancy{
		matchVerdict(models.PlatformGoogle),
		matchVerdict(models.PlatformYelp),
		matchVerdict(models.PlatformAppleMaps),
		matchVerdict(models.PlatformBing),
	}

	hs := CalculateNAPHealthScore(results, verdicts, now)
	if hs.Score != 100 {
		t.Fatalf("score = %d, want 100", hs.Score)
	}
	if hs.Grade != models.GradeA {
		t.Fatalf("grade = %s, want A", hs.Grade)
	}
	if hs.PlatformsChecked != 4 || hs.PlatformsMatched != 4 {
		t.Fatalf("checked=%d matched=%d", hs.PlatformsChecked, hs.PlatformsMatched)
	}
	if hs.CriticalDiscrepancies != 0 {
		t.Fatalf("critical = %d", hs.CriticalDiscrepancies)
	}
}

func TestCalculateNAPHealthScore_PerFieldDeductions(t *testing.T) {
	now := time.Now()
	results := []AdapterResult{okResult(models.PlatformYelp, &NAPData{})}

	cases := []struct {
		field string
		want  int
	}{
		{FieldPhone, 75},
		{FieldAddress, 75},
		{FieldName, 85},
		{FieldOperationalStatus, 85},
		{FieldHours, 92},
		{FieldWebsite, 97},
	}
	for _, c := range cases {
		verdicts := []PlatformDiscrepancy{discrepancyVerdict(models.PlatformYelp, c.field)}
		hs := CalculateNAPHealthScore(results, verdicts, now)
		if hs.Score != c.want {
			t.Fatalf("field %s: score = %d, want %d", c.field, hs.Score, c.want)
		}
	}
}

func TestCalculateNAPHealthScore_StatusDeductions(t *testing.T) {
	now := time.Now()

	results := []AdapterResult{
		unconfiguredResult(models.PlatformYelp, "no key"),
		apiErrorResult(models.PlatformBing, "boom", nil),
	}
	verdicts := []PlatformDiscrepancy{
		{Platform: models.PlatformYelp, Status: models.NAPStatusUnconfigured},
		{Platform: models.PlatformBing, Status: models.NAPStatusAPIError},
	}

	hs := CalculateNAPHealthScore(results, verdicts, now)
	if hs.Score != 93 { // 100 - 5 - 2
		t.Fatalf("score = %d, want 93", hs.Score)
	}
}

func TestCalculateNAPHealthScore_ClampsAtZero(t *testing.T) {
	now := time.Now()
	var results []AdapterResult
	var verdicts []PlatformDiscrepancy
	for _, platform := range models.AllPlatforms() {
		results = append(results, okResult(platform, &NAPData{}))
		verdicts = append(verdicts, discrepancyVerdict(platform,
			FieldPhone, FieldAddress, FieldName, FieldHours, FieldWebsite))
	}

	hs := CalculateNAPHealthScore(results, verdicts, now)
	if hs.Score != 0 {
		t.Fatalf("score = %d, want 0", hs.Score)
	}
	if hs.Grade != models.GradeF {
		t.Fatalf("grade = %s, want F", hs.Grade)
	}
	if hs.CriticalDiscrepancies != 4 {
		t.Fatalf("critical = %d, want 4", hs.CriticalDiscrepancies)
	}
}

func TestGradeForScore_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  models.Grade
	}{
		{100, models.GradeA}, {90, models.GradeA},
		{89, models.GradeB}, {75, models.GradeB},
		{74, models.GradeC}, {60, models.GradeC},
		{59, models.GradeD}, {40, models.GradeD},
		{39, models.GradeF}, {0, models.GradeF},
	}
	for _, c := range cases {
		if got := gradeForScore(c.score); got != c.want {
			t.Fatalf("gradeForScore(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}
