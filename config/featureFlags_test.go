package config

import "testing"

func TestAutoCorrectionEnabledDefaultsOn(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"off", false},
	}
	for _, tc := range cases {
		t.Setenv("NAP_AUTO_CORRECTION", tc.value)
		if got := AutoCorrectionEnabled(); got != tc.want {
			t.Errorf("NAP_AUTO_CORRECTION=%q: got %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestFleetSweepEnabledDefaultsOn(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"true", true},
		{"false", false},
	}
	for _, tc := range cases {
		t.Setenv("NAP_FLEET_SWEEP", tc.value)
		if got := FleetSweepEnabled(); got != tc.want {
			t.Errorf("NAP_FLEET_SWEEP=%q: got %v, want %v", tc.value, got, tc.want)
		}
	}
}
