package napsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/locallens/presence_backend/models"
)

// FetchContext carries what one adapter needs to locate one listing.
// PlatformId is empty when the location has no mapping for the platform.
type FetchContext struct {
	LocationId uint
	OrgId      string
	PlatformId string
}

// Adapter fetches one platform's current NAP data for a location. FetchNAP
// must never panic and never return an error: every failure mode (missing
// credentials, missing platform id, HTTP error, 404, malformed body) is
// classified into one of the AdapterResult variants.
type Adapter interface {
	Platform() models.Platform
	FetchNAP(ctx context.Context, fc FetchContext) AdapterResult
}

// Registry maps platform ids to adapter implementations. Built once at
// startup and passed into the engine — no ambient global adapter list.
type Registry map[models.Platform]Adapter

// NewRegistry wires the four production adapters. Credentials come from env
// (Yelp/Bing/Apple) or the connection store (Google).
func NewRegistry(store Store, tokens TokenService) Registry {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return Registry{
		models.PlatformGoogle:    NewGoogleAdapter(httpClient, store, tokens),
		models.PlatformYelp:      NewYelpAdapter(httpClient),
		models.PlatformAppleMaps: NewAppleMapsAdapter(httpClient),
		models.PlatformBing:      NewBingAdapter(httpClient),
	}
}

// getJSON performs an authenticated GET and decodes the body into dest.
// Non-2xx responses come back as *httpStatusError so callers can classify
// 404 as not_found versus everything else as api_error.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	return nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Body)
}

// classifyFetchError maps a transport-level error to the right result
// variant for the platform.
func classifyFetchError(platform models.Platform, err error) AdapterResult {
	if se, ok := err.(*httpStatusError); ok {
		if se.StatusCode == http.StatusNotFound {
			return notFoundResult(platform)
		}
		status := se.StatusCode
		return apiErrorResult(platform, se.Error(), &status)
	}
	return apiErrorResult(platform, err.Error(), nil)
}
