package napsync

import "strings"

// addressAbbreviations expands common USPS suffix abbreviations so that
// "123 Main St." and "123 Main Street" normalize to the same string.
// Matching is word-boundary based: "Stella" must not become "Streetella".
var addressAbbreviations = map[string]string{
	"st":   "street",
	"rd":   "road",
	"blvd": "boulevard",
	"ave":  "avenue",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"ste":  "suite",
	"pkwy": "parkway",
	"pl":   "place",
	"cir":  "circle",
	"hwy":  "highway",
}

// NormalizePhone strips all non-digits and keeps the last 10 digits, so that
// "(470) 555-0123", "470-555-0123" and "+1 470 555 0123" all compare equal.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if len(s) > 10 {
		s = s[len(s)-10:]
	}
	return s
}

// NormalizeAddress lowercases, strips punctuation, expands suffix
// abbreviations with word-boundary matching, and collapses whitespace.
func NormalizeAddress(address string) string {
	s := strings.ToLower(address)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '#', '-':
			return ' '
		}
		return r
	}, s)

	words := strings.Fields(s)
	for i, w := range words {
		if full, ok := addressAbbreviations[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// NormalizeWebsite strips the scheme, a leading "www.", and trailing slashes,
// and lowercases, so "https://www.example.com/" equals "example.com".
func NormalizeWebsite(website string) string {
	s := strings.TrimSpace(strings.ToLower(website))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimRight(s, "/")
	return s
}

// NormalizeName lowercases, converts curly apostrophes to straight, and
// collapses whitespace.
func NormalizeName(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ReplaceAll(s, "‘", "'")
	return strings.Join(strings.Fields(s), " ")
}

// weekHoursEqual compares day-by-day across the union of days present on
// either side. A day present on only one side is a difference.
func weekHoursEqual(a, b WeekHours) bool {
	days := map[string]bool{}
	for d := range a {
		days[strings.ToLower(d)] = true
	}
	for d := range b {
		days[strings.ToLower(d)] = true
	}

	for d := range days {
		av, aok := lookupDay(a, d)
		bv, bok := lookupDay(b, d)
		if aok != bok {
			return false
		}
		if !aok {
			continue
		}
		if av.Closed != bv.Closed {
			return false
		}
		if !av.Closed && (av.Open != bv.Open || av.Close != bv.Close) {
			return false
		}
	}
	return true
}

func lookupDay(h WeekHours, day string) (DayHours, bool) {
	for d, v := range h {
		if strings.EqualFold(d, day) {
			return v, true
		}
	}
	return DayHours{}, false
}
