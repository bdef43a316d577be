package napsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/locallens/presence_backend/models"
)

// appleTokenTTL keeps tokens comfortably under Apple's enforcement window.
const appleTokenTTL = 30 * time.Minute

type appleMapsAdapter struct {
	http       *http.Client
	teamID     string
	keyID      string
	privateKey string
	baseURL    string
}

// NewAppleMapsAdapter reads live place data from Apple Business Connect.
// Every call signs a fresh short-lived ES256 token from the team/key-id/
// private-key triple.
func NewAppleMapsAdapter(client *http.Client) Adapter {
	baseURL := strings.TrimSpace(os.Getenv("APPLE_MAPS_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://businessconnect-api.apple.com"
	}
	return &appleMapsAdapter{
		http:       client,
		teamID:     strings.TrimSpace(os.Getenv("APPLE_MAPS_TEAM_ID")),
		keyID:      strings.TrimSpace(os.Getenv("APPLE_MAPS_KEY_ID")),
		privateKey: os.Getenv("APPLE_MAPS_PRIVATE_KEY"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (a *appleMapsAdapter) Platform() models.Platform { return models.PlatformAppleMaps }

type applePlace struct {
	DisplayName string `json:"displayName"`
	MainAddress *struct {
		StructuredAddress *struct {
			FullAddress        string `json:"fullAddress"`
			Locality           string `json:"locality"`
			AdministrativeArea string `json:"administrativeArea"`
			PostalCode         string `json:"postalCode"`
		} `json:"structuredAddress"`
	} `json:"mainAddress"`
	PhoneNumbers []struct {
		Number  string `json:"number"`
		Primary bool   `json:"primary"`
	} `json:"phoneNumbers"`
	Urls []string `json:"urls"`
}

func (a *appleMapsAdapter) FetchNAP(ctx context.Context, fc FetchContext) AdapterResult {
	if a.teamID == "" || a.keyID == "" || a.privateKey == "" {
		return unconfiguredResult(a.Platform(), "Apple Maps credentials not configured")
	}
	if fc.PlatformId == "" {
		return unconfiguredResult(a.Platform(), "no Apple place linked")
	}

	token, err := a.signToken(time.Now())
	if err != nil {
		return apiErrorResult(a.Platform(), "failed to sign Apple Maps token: "+err.Error(), nil)
	}

	url := fmt.Sprintf("%s/v1/places/%s", a.baseURL, fc.PlatformId)
	var place applePlace
	if err := getJSON(ctx, a.http, url, map[string]string{
		"Authorization": "Bearer " + token,
	}, &place); err != nil {
		return classifyFetchError(a.Platform(), err)
	}

	return okResult(a.Platform(), mapApplePlace(place))
}

// signToken builds the short-lived ES256 JWT. Regenerated on every call —
// the expiry is short enough that caching buys nothing worth the state.
func (a *appleMapsAdapter) signToken(now time.Time) (string, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(a.privateKey))
	if err != nil {
		return "", errors.New("invalid ES256 private key: " + err.Error())
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.StandardClaims{
		Issuer:    a.teamID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(appleTokenTTL).Unix(),
	})
	token.Header["kid"] = a.keyID
	return token.SignedString(key)
}

func mapApplePlace(place applePlace) *NAPData {
	data := &NAPData{}
	if place.DisplayName != "" {
		data.Name = &place.DisplayName
	}
	if place.MainAddress != nil && place.MainAddress.StructuredAddress != nil {
		addr := place.MainAddress.StructuredAddress
		if addr.FullAddress != "" {
			data.Address = &addr.FullAddress
		}
		if addr.Locality != "" {
			data.City = &addr.Locality
		}
		if addr.AdministrativeArea != "" {
			data.State = &addr.AdministrativeArea
		}
		if addr.PostalCode != "" {
			data.Zip = &addr.PostalCode
		}
	}
	for _, p := range place.PhoneNumbers {
		if p.Primary || data.Phone == nil {
			number := p.Number
			data.Phone = &number
		}
	}
	if len(place.Urls) > 0 && place.Urls[0] != "" {
		data.Website = &place.Urls[0]
	}
	return data
}
