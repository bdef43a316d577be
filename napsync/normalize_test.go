package napsync

import "testing"

func TestNormalizePhone_FormatsCompareEqual(t *testing.T) {
	want := NormalizePhone("4705550123")
	for _, input := range []string{
		"(470) 555-0123",
		"470-555-0123",
		"+1 470 555 0123",
		"1-470-555-0123",
	} {
		if got := NormalizePhone(input); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", input, got, want)
		}
	}
	if NormalizePhone("(470) 555-0123") == NormalizePhone("(470) 555-9999") {
		t.Fatal("different numbers must not normalize equal")
	}
}

func TestNormalizeAddress_ExpandsAbbreviations(t *testing.T) {
	a := NormalizeAddress("123 Main St.")
	b := NormalizeAddress("123 Main Street")
	if a != b {
		t.Fatalf("expected equal, got %q vs %q", a, b)
	}

	c := NormalizeAddress("456 Peachtree Blvd, Ste 200")
	d := NormalizeAddress("456 peachtree boulevard suite 200")
	if c != d {
		t.Fatalf("expected equal, got %q vs %q", c, d)
	}
}

func TestNormalizeAddress_WordBoundaryOnly(t *testing.T) {
	// "Stella" contains "st" but must not be rewritten.
	got := NormalizeAddress("12 Stella Dr")
	if got != "12 stella drive" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeWebsite(t *testing.T) {
	want := "example.com"
	for _, input := range []string{
		"https://www.example.com/",
		"http://example.com",
		"EXAMPLE.COM",
		"www.example.com",
	} {
		if got := NormalizeWebsite(input); got != want {
			t.Fatalf("NormalizeWebsite(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeName_ApostrophesAndCase(t *testing.T) {
	a := NormalizeName("Joe’s  Pizza")
	b := NormalizeName("joe's pizza")
	if a != b {
		t.Fatalf("expected equal, got %q vs %q", a, b)
	}
}

func TestWeekHoursEqual(t *testing.T) {
	a := WeekHours{
		"monday":  {Open: "09:00", Close: "17:00"},
		"tuesday": {Closed: true},
	}
	b := WeekHours{
		"Monday":  {Open: "09:00", Close: "17:00"},
		"Tuesday": {Closed: true},
	}
	if !weekHoursEqual(a, b) {
		t.Fatal("day-name case must not matter")
	}

	c := WeekHours{
		"monday":  {Open: "09:00", Close: "18:00"},
		"tuesday": {Closed: true},
	}
	if weekHoursEqual(a, c) {
		t.Fatal("different close time must differ")
	}

	// A day present on only one side is a difference.
	d := WeekHours{"monday": {Open: "09:00", Close: "17:00"}}
	if weekHoursEqual(a, d) {
		t.Fatal("missing day must differ")
	}

	// A closed day compares on the flag alone, not on times.
	e := WeekHours{
		"monday":  {Open: "09:00", Close: "17:00"},
		"tuesday": {Closed: true, Open: "00:00", Close: "00:00"},
	}
	if !weekHoursEqual(a, e) {
		t.Fatal("times on a closed day must be ignored")
	}
}
