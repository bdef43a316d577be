package models

import (
	"context"
	"time"

	"github.com/locallens/presence_backend/config"
)

// PlatformConnection stores per-organization credentials for platforms that
// use OAuth (Google Business Profile). Key-auth platforms (Yelp, Bing, Apple
// Maps) are configured through environment variables instead.
type PlatformConnection struct {
	ID           uint       `gorm:"primary_key" json:"id"`
	OrgId        string     `gorm:"uniqueIndex:idx_platform_connection,priority:1;not null" json:"org_id"`
	Platform     Platform   `gorm:"uniqueIndex:idx_platform_connection,priority:2;size:50;not null" json:"platform"`
	Status       string     `gorm:"size:20;not null" json:"status"`
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// LocationPlatformID maps one location to its identifier on one platform:
// GBP location resource name, Yelp business id, Apple place id, Bing listing id.
type LocationPlatformID struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	OrgId      string    `gorm:"uniqueIndex:idx_location_platform,priority:1;not null" json:"org_id"`
	LocationId uint      `gorm:"uniqueIndex:idx_location_platform,priority:2;not null" json:"location_id"`
	Platform   Platform  `gorm:"uniqueIndex:idx_location_platform,priority:3;size:50;not null" json:"platform"`
	PlatformId string    `gorm:"size:255;not null" json:"platform_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetPlatformConnection(ctx context.Context, orgId string, platform Platform) (*PlatformConnection, error) {
	db := config.GetDB()
	var conn PlatformConnection
	if err := db.WithContext(ctx).
		Where("org_id = ? AND platform = ?", orgId, platform).
		Take(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

// GetLocationPlatformIDs returns the platform-id mapping for one location,
// keyed by platform. Platforms without a row are simply absent.
func GetLocationPlatformIDs(ctx context.Context, locationId uint, orgId string) (map[Platform]string, error) {
	db := config.GetDB()
	var rows []LocationPlatformID
	if err := db.WithContext(ctx).
		Where("location_id = ? AND org_id = ?", locationId, orgId).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	ids := make(map[Platform]string, len(rows))
	for _, row := range rows {
		ids[row.Platform] = row.PlatformId
	}
	return ids, nil
}

// UpdateConnectionTokens persists a refreshed access token.
func UpdateConnectionTokens(ctx context.Context, connId uint, orgId string, accessToken string, expiresAt time.Time) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&PlatformConnection{}).
		Where("id = ? AND org_id = ?", connId, orgId).
		Updates(map[string]interface{}{
			"access_token": accessToken,
			"expires_at":   expiresAt,
			"status":       ConnectionStatusConnected,
		}).Error
}
