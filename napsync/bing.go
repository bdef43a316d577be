package napsync

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/locallens/presence_backend/models"
)

type bingAdapter struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

// NewBingAdapter reads live listing data from Bing Places using a static API
// key. Bing does not return hours; that field stays absent and is never
// flagged as a mismatch.
func NewBingAdapter(client *http.Client) Adapter {
	baseURL := strings.TrimSpace(os.Getenv("BING_PLACES_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.bingplaces.microsoft.com"
	}
	return &bingAdapter{
		http:    client,
		apiKey:  strings.TrimSpace(os.Getenv("BING_MAPS_API_KEY")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (a *bingAdapter) Platform() models.Platform { return models.PlatformBing }

// BingListing is the listing shape returned by the Bing Places API. Exported
// because the candidate-match endpoint accepts a slice of them.
type BingListing struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Address *struct {
		AddressLine   string `json:"addressLine"`
		Locality      string `json:"locality"`
		AdminDistrict string `json:"adminDistrict"`
		PostalCode    string `json:"postalCode"`
	} `json:"address"`
}

func (a *bingAdapter) FetchNAP(ctx context.Context, fc FetchContext) AdapterResult {
	if a.apiKey == "" {
		return unconfiguredResult(a.Platform(), "BING_MAPS_API_KEY not configured")
	}
	if fc.PlatformId == "" {
		return unconfiguredResult(a.Platform(), "no Bing listing linked")
	}

	url := fmt.Sprintf("%s/v1/listings/%s", a.baseURL, fc.PlatformId)
	var listing BingListing
	if err := getJSON(ctx, a.http, url, map[string]string{
		"Ocp-Apim-Subscription-Key": a.apiKey,
	}, &listing); err != nil {
		return classifyFetchError(a.Platform(), err)
	}

	return okResult(a.Platform(), mapBingListing(listing))
}

func mapBingListing(listing BingListing) *NAPData {
	data := &NAPData{}
	if listing.Name != "" {
		data.Name = &listing.Name
	}
	if listing.Phone != "" {
		data.Phone = &listing.Phone
	}
	if listing.Website != "" {
		data.Website = &listing.Website
	}
	if listing.Address != nil {
		if listing.Address.AddressLine != "" {
			data.Address = &listing.Address.AddressLine
		}
		if listing.Address.Locality != "" {
			data.City = &listing.Address.Locality
		}
		if listing.Address.AdminDistrict != "" {
			data.State = &listing.Address.AdminDistrict
		}
		if listing.Address.PostalCode != "" {
			data.Zip = &listing.Address.PostalCode
		}
	}
	// Bing reports no hours; the field stays absent by the absence invariant.
	return data
}

// AddressSimilarity scores two addresses with token-set Jaccard over the
// abbreviation-normalized forms. 1.0 is identical, 0.0 is disjoint. Used for
// fuzzy-matching candidate listings; independent of the fetch path.
func AddressSimilarity(a, b string) float64 {
	setA := tokenSet(NormalizeAddress(a))
	setB := tokenSet(NormalizeAddress(b))
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// FindBestListingMatch picks the candidate whose address is most similar to
// the target, provided it clears minScore.
func FindBestListingMatch(targetAddress string, candidates []BingListing, minScore float64) (*BingListing, float64) {
	var best *BingListing
	bestScore := 0.0
	for i := range candidates {
		addr := candidateAddress(candidates[i])
		score := AddressSimilarity(targetAddress, addr)
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < minScore {
		return nil, bestScore
	}
	return best, bestScore
}

func candidateAddress(listing BingListing) string {
	if listing.Address == nil {
		return ""
	}
	return fullAddress(
		listing.Address.AddressLine,
		listing.Address.Locality,
		listing.Address.AdminDistrict,
		listing.Address.PostalCode,
	)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
