package models

import "testing"

func TestPlanSatisfies(t *testing.T) {
	cases := []struct {
		plan    SubscriptionPlan
		minimum SubscriptionPlan
		want    bool
	}{
		{PlanFree, PlanGrowth, false},
		{PlanStarter, PlanGrowth, false},
		{PlanGrowth, PlanGrowth, true},
		{PlanPro, PlanGrowth, true},
		{PlanFree, PlanFree, true},
		{SubscriptionPlan("enterprise"), PlanGrowth, false},
		{PlanPro, SubscriptionPlan("unknown"), false},
	}
	for _, c := range cases {
		if got := PlanSatisfies(c.plan, c.minimum); got != c.want {
			t.Fatalf("PlanSatisfies(%s, %s) = %v, want %v", c.plan, c.minimum, got, c.want)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	for _, p := range AllPlatforms() {
		got, err := ParsePlatform(string(p))
		if err != nil || got != p {
			t.Fatalf("ParsePlatform(%s) = %v, %v", p, got, err)
		}
	}
	if _, err := ParsePlatform("facebook"); err == nil {
		t.Fatal("unknown platform must not parse")
	}
}

func TestOperationalStatusValid(t *testing.T) {
	for _, s := range []OperationalStatus{
		OperationalStatusOpen,
		OperationalStatusClosedPermanently,
		OperationalStatusClosedTemporarily,
	} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if OperationalStatus("demolished").Valid() {
		t.Fatal("unknown status should be invalid")
	}
}
