package napsync

import "testing"

func TestMapYelpHours_DayIndexAndTimeFormat(t *testing.T) {
	biz := yelpBusiness{}
	biz.Hours = []struct {
		HoursType string `json:"hours_type"`
		Open      []struct {
			Day   int    `json:"day"`
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"open"`
	}{
		{
			HoursType: "REGULAR",
			Open: []struct {
				Day   int    `json:"day"`
				Start string `json:"start"`
				End   string `json:"end"`
			}{
				{Day: 0, Start: "1000", End: "2200"},
				{Day: 6, Start: "1130", End: "2330"},
			},
		},
	}

	hours := mapYelpHours(biz)
	if hours == nil {
		t.Fatal("expected hours")
	}
	if got := hours["monday"]; got.Open != "10:00" || got.Close != "22:00" {
		t.Fatalf("monday = %+v", got)
	}
	if got := hours["sunday"]; got.Open != "11:30" || got.Close != "23:30" {
		t.Fatalf("sunday = %+v", got)
	}
	if _, ok := hours["tuesday"]; ok {
		t.Fatal("tuesday was not reported and must be absent")
	}
}

func TestMapYelpBusiness_NoHoursStaysAbsent(t *testing.T) {
	biz := yelpBusiness{Name: "Joe's Pizza"}
	data := mapYelpBusiness(biz)
	if data.Hours != nil {
		t.Fatalf("hours = %+v, want nil", data.Hours)
	}
	if data.Phone != nil || data.Address != nil {
		t.Fatal("unreported fields must stay nil")
	}
}

func TestMapYelpBusiness_ClosedFlag(t *testing.T) {
	closed := true
	biz := yelpBusiness{Name: "Joe's Pizza", IsClosed: &closed}
	data := mapYelpBusiness(biz)
	if data.OperationalStatus == nil || *data.OperationalStatus != "closed_permanently" {
		t.Fatalf("status = %v", data.OperationalStatus)
	}

	open := false
	biz.IsClosed = &open
	data = mapYelpBusiness(biz)
	if data.OperationalStatus == nil || *data.OperationalStatus != "open" {
		t.Fatalf("status = %v", data.OperationalStatus)
	}

	biz.IsClosed = nil
	data = mapYelpBusiness(biz)
	if data.OperationalStatus != nil {
		t.Fatal("unreported closed flag must stay nil")
	}
}
