package napsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/locallens/presence_backend/models"
	"gorm.io/gorm"
)

// gbpReadMask is the fixed field mask requested from the Business
// Information API.
const gbpReadMask = "title,phoneNumbers,storefrontAddress,websiteUri,regularHours,openInfo"

type googleAdapter struct {
	http    *http.Client
	store   Store
	tokens  TokenService
	baseURL string
}

// NewGoogleAdapter reads live NAP data from Google Business Profile using
// the org's stored OAuth connection.
func NewGoogleAdapter(client *http.Client, store Store, tokens TokenService) Adapter {
	baseURL := strings.TrimSpace(os.Getenv("GBP_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://mybusinessbusinessinformation.googleapis.com"
	}
	return &googleAdapter{
		http:    client,
		store:   store,
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (a *googleAdapter) Platform() models.Platform { return models.PlatformGoogle }

// gbpLocation is the subset of the Business Information location resource
// this engine reads.
type gbpLocation struct {
	Title        string `json:"title"`
	PhoneNumbers *struct {
		PrimaryPhone string `json:"primaryPhone"`
	} `json:"phoneNumbers"`
	StorefrontAddress *struct {
		AddressLines       []string `json:"addressLines"`
		Locality           string   `json:"locality"`
		AdministrativeArea string   `json:"administrativeArea"`
		PostalCode         string   `json:"postalCode"`
	} `json:"storefrontAddress"`
	WebsiteUri   string `json:"websiteUri"`
	RegularHours *struct {
		Periods []gbpTimePeriod `json:"periods"`
	} `json:"regularHours"`
	OpenInfo *struct {
		Status string `json:"status"`
	} `json:"openInfo"`
}

type gbpTimePeriod struct {
	OpenDay   string      `json:"openDay"`
	CloseDay  string      `json:"closeDay"`
	OpenTime  gbpTimeOfDay `json:"openTime"`
	CloseTime gbpTimeOfDay `json:"closeTime"`
}

type gbpTimeOfDay struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (a *googleAdapter) FetchNAP(ctx context.Context, fc FetchContext) AdapterResult {
	if fc.PlatformId == "" {
		return unconfiguredResult(a.Platform(), "no Google Business Profile location linked")
	}

	conn, err := a.store.GoogleConnection(ctx, fc.OrgId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return unconfiguredResult(a.Platform(), "Google account not connected")
		}
		return apiErrorResult(a.Platform(), "load google connection: "+err.Error(), nil)
	}
	if conn.Status != models.ConnectionStatusConnected || conn.RefreshToken == "" {
		return unconfiguredResult(a.Platform(), "Google connection is not active")
	}

	accessToken, result := a.ensureAccessToken(ctx, conn)
	if result != nil {
		return *result
	}

	url := fmt.Sprintf("%s/v1/%s?readMask=%s", a.baseURL, fc.PlatformId, gbpReadMask)
	var loc gbpLocation
	if err := getJSON(ctx, a.http, url, map[string]string{
		"Authorization": "Bearer " + accessToken,
	}, &loc); err != nil {
		return classifyFetchError(a.Platform(), err)
	}

	return okResult(a.Platform(), mapGBPLocation(loc))
}

// ensureAccessToken refreshes the stored token when stale and persists the
// replacement. Refresh failure is an api_error, not unconfigured: the
// connection exists, the upstream is misbehaving.
func (a *googleAdapter) ensureAccessToken(ctx context.Context, conn *models.PlatformConnection) (string, *AdapterResult) {
	if !a.tokens.IsExpired(conn.ExpiresAt) && conn.AccessToken != "" {
		return conn.AccessToken, nil
	}

	accessToken, expiresAt, err := a.tokens.Refresh(ctx, conn.OrgId, conn.RefreshToken)
	if err != nil {
		r := apiErrorResult(a.Platform(), "token refresh failed: "+err.Error(), nil)
		return "", &r
	}
	// Best effort: a failed save still leaves a usable token for this run.
	_ = a.store.SaveConnectionToken(ctx, conn.ID, conn.OrgId, accessToken, expiresAt)
	return accessToken, nil
}

func mapGBPLocation(loc gbpLocation) *NAPData {
	data := &NAPData{}
	if loc.Title != "" {
		data.Name = &loc.Title
	}
	if loc.PhoneNumbers != nil && loc.PhoneNumbers.PrimaryPhone != "" {
		data.Phone = &loc.PhoneNumbers.PrimaryPhone
	}
	if loc.StorefrontAddress != nil {
		if len(loc.StorefrontAddress.AddressLines) > 0 {
			line := strings.Join(loc.StorefrontAddress.AddressLines, " ")
			data.Address = &line
		}
		if loc.StorefrontAddress.Locality != "" {
			data.City = &loc.StorefrontAddress.Locality
		}
		if loc.StorefrontAddress.AdministrativeArea != "" {
			data.State = &loc.StorefrontAddress.AdministrativeArea
		}
		if loc.StorefrontAddress.PostalCode != "" {
			data.Zip = &loc.StorefrontAddress.PostalCode
		}
	}
	if loc.WebsiteUri != "" {
		data.Website = &loc.WebsiteUri
	}
	if loc.RegularHours != nil && len(loc.RegularHours.Periods) > 0 {
		data.Hours = mapGBPHours(loc.RegularHours.Periods)
	}
	if loc.OpenInfo != nil && loc.OpenInfo.Status != "" {
		status := mapGBPOpenStatus(loc.OpenInfo.Status)
		data.OperationalStatus = &status
	}
	return data
}

func mapGBPHours(periods []gbpTimePeriod) WeekHours {
	hours := WeekHours{}
	for _, p := range periods {
		day := strings.ToLower(p.OpenDay)
		if day == "" {
			continue
		}
		hours[day] = DayHours{
			Open:  fmt.Sprintf("%02d:%02d", p.OpenTime.Hours, p.OpenTime.Minutes),
			Close: fmt.Sprintf("%02d:%02d", p.CloseTime.Hours, p.CloseTime.Minutes),
		}
	}
	if len(hours) == 0 {
		return nil
	}
	return hours
}

func mapGBPOpenStatus(status string) string {
	switch strings.ToUpper(status) {
	case "OPEN":
		return string(models.OperationalStatusOpen)
	case "CLOSED_PERMANENTLY":
		return string(models.OperationalStatusClosedPermanently)
	case "CLOSED_TEMPORARILY":
		return string(models.OperationalStatusClosedTemporarily)
	default:
		return strings.ToLower(status)
	}
}
