package napsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/locallens/presence_backend/models"
)

// gbpPatchFields maps a discrepant field to the Google Business Profile
// attribute it updates. This allowlist is the entire writable surface:
// anything not in it is never pushed. Hours and operational status stay
// manual-fix no matter what, closing a business remotely is not a mistake
// this engine gets to make.
var gbpPatchFields = map[string]string{
	FieldName:    "title",
	FieldPhone:   "phoneNumbers",
	FieldAddress: "storefrontAddress",
	FieldWebsite: "websiteUri",
}

// CorrectionPusher writes safe field corrections back to Google Business
// Profile. Google is the only platform with a write API; every other
// platform gets fix instructions instead.
type CorrectionPusher struct {
	http    *http.Client
	store   Store
	tokens  TokenService
	baseURL string
}

func NewCorrectionPusher(client *http.Client, store Store, tokens TokenService) *CorrectionPusher {
	baseURL := strings.TrimSpace(os.Getenv("GBP_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://mybusinessbusinessinformation.googleapis.com"
	}
	return &CorrectionPusher{
		http:    client,
		store:   store,
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BuildGBPPatchBody translates the correctable subset of the discrepant
// fields into a GBP PATCH body plus its updateMask. Fields outside the
// allowlist are dropped; returned fieldNames lists what was actually
// included, in allowlist-stable order.
func BuildGBPPatchBody(gt *GroundTruth, fields []NAPField) (body map[string]interface{}, updateMask string, fieldNames []string) {
	present := map[string]bool{}
	for _, f := range fields {
		present[f.FieldName] = true
	}

	body = map[string]interface{}{}
	var masks []string
	for _, fieldName := range []string{FieldName, FieldPhone, FieldAddress, FieldWebsite} {
		if !present[fieldName] {
			continue
		}
		attr := gbpPatchFields[fieldName]
		switch fieldName {
		case FieldName:
			body[attr] = gt.Name
		case FieldPhone:
			body[attr] = map[string]interface{}{"primaryPhone": gt.Phone}
		case FieldAddress:
			body[attr] = map[string]interface{}{
				"regionCode":         "US",
				"addressLines":       []string{gt.Address},
				"locality":           gt.City,
				"administrativeArea": gt.State,
				"postalCode":         gt.Zip,
			}
		case FieldWebsite:
			body[attr] = gt.Website
		}
		masks = append(masks, attr)
		fieldNames = append(fieldNames, fieldName)
	}
	return body, strings.Join(masks, ","), fieldNames
}

// Push applies the correctable fields of one Google discrepancy in a single
// PATCH and records the pushed fields on the run's snapshot. All-or-nothing:
// a failed PATCH records nothing.
func (p *CorrectionPusher) Push(ctx context.Context, runId uint, gt *GroundTruth, platformId string, fields []NAPField) ([]string, error) {
	body, updateMask, fieldNames := BuildGBPPatchBody(gt, fields)
	if len(fieldNames) == 0 {
		return nil, nil
	}

	conn, err := p.store.GoogleConnection(ctx, gt.OrgId)
	if err != nil {
		return nil, fmt.Errorf("load google connection: %w", err)
	}
	if conn == nil || conn.Status != models.ConnectionStatusConnected || conn.RefreshToken == "" {
		return nil, fmt.Errorf("google connection is not active for org %s", gt.OrgId)
	}

	accessToken := conn.AccessToken
	if p.tokens.IsExpired(conn.ExpiresAt) || accessToken == "" {
		var expiresAt time.Time
		accessToken, expiresAt, err = p.tokens.Refresh(ctx, conn.OrgId, conn.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("token refresh: %w", err)
		}
		_ = p.store.SaveConnectionToken(ctx, conn.ID, conn.OrgId, accessToken, expiresAt)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1/%s?updateMask=%s", p.baseURL, platformId, updateMask)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gbp patch returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := p.store.MarkCorrectionPushed(ctx, runId, gt.OrgId, models.PlatformGoogle, fieldNames, time.Now().UTC()); err != nil {
		return fieldNames, fmt.Errorf("record correction: %w", err)
	}
	return fieldNames, nil
}
