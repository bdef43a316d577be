package napsync

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/locallens/presence_backend/models"
)

type yelpAdapter struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

// NewYelpAdapter reads live business data from the Yelp Fusion API using a
// static API key.
func NewYelpAdapter(client *http.Client) Adapter {
	baseURL := strings.TrimSpace(os.Getenv("YELP_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.yelp.com"
	}
	return &yelpAdapter{
		http:    client,
		apiKey:  strings.TrimSpace(os.Getenv("YELP_API_KEY")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (a *yelpAdapter) Platform() models.Platform { return models.PlatformYelp }

type yelpBusiness struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsClosed *bool  `json:"is_closed"`
	Location *struct {
		Address1 string `json:"address1"`
		City     string `json:"city"`
		State    string `json:"state"`
		ZipCode  string `json:"zip_code"`
	} `json:"location"`
	Hours []struct {
		HoursType string `json:"hours_type"`
		Open      []struct {
			Day   int    `json:"day"`
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"open"`
	} `json:"hours"`
}

// yelpDays maps Yelp's day index (0 = Monday) to canonical day names.
var yelpDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (a *yelpAdapter) FetchNAP(ctx context.Context, fc FetchContext) AdapterResult {
	if a.apiKey == "" {
		return unconfiguredResult(a.Platform(), "YELP_API_KEY not configured")
	}
	if fc.PlatformId == "" {
		return unconfiguredResult(a.Platform(), "no Yelp business linked")
	}

	url := fmt.Sprintf("%s/v3/businesses/%s", a.baseURL, fc.PlatformId)
	var biz yelpBusiness
	if err := getJSON(ctx, a.http, url, map[string]string{
		"Authorization": "Bearer " + a.apiKey,
	}, &biz); err != nil {
		return classifyFetchError(a.Platform(), err)
	}

	return okResult(a.Platform(), mapYelpBusiness(biz))
}

func mapYelpBusiness(biz yelpBusiness) *NAPData {
	data := &NAPData{}
	if biz.Name != "" {
		data.Name = &biz.Name
	}
	if biz.Phone != "" {
		data.Phone = &biz.Phone
	}
	if biz.Location != nil {
		if biz.Location.Address1 != "" {
			data.Address = &biz.Location.Address1
		}
		if biz.Location.City != "" {
			data.City = &biz.Location.City
		}
		if biz.Location.State != "" {
			data.State = &biz.Location.State
		}
		if biz.Location.ZipCode != "" {
			data.Zip = &biz.Location.ZipCode
		}
	}
	if hours := mapYelpHours(biz); hours != nil {
		data.Hours = hours
	}
	if biz.IsClosed != nil {
		status := string(models.OperationalStatusOpen)
		if *biz.IsClosed {
			status = string(models.OperationalStatusClosedPermanently)
		}
		data.OperationalStatus = &status
	}
	return data
}

// mapYelpHours translates Yelp's day-indexed HHMM blocks ("1000"/"2200")
// into the canonical day-name representation ("10:00"/"22:00").
func mapYelpHours(biz yelpBusiness) WeekHours {
	if len(biz.Hours) == 0 {
		return nil
	}
	blocks := biz.Hours[0].Open
	if len(blocks) == 0 {
		return nil
	}

	hours := WeekHours{}
	for _, block := range blocks {
		if block.Day < 0 || block.Day >= len(yelpDays) {
			continue
		}
		hours[yelpDays[block.Day]] = DayHours{
			Open:  formatYelpTime(block.Start),
			Close: formatYelpTime(block.End),
		}
	}
	if len(hours) == 0 {
		return nil
	}
	return hours
}

func formatYelpTime(hhmm string) string {
	if len(hhmm) != 4 {
		return hhmm
	}
	return hhmm[:2] + ":" + hhmm[2:]
}
