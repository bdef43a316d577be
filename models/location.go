package models

import (
	"context"
	"time"

	"github.com/locallens/presence_backend/config"
)

// Location holds the authoritative business record ("Ground Truth") for one
// storefront. The NAP engine reads it fresh at the start of every run and
// never mutates the identity fields; only the rolling health-score pair is
// written back here.
type Location struct {
	ID                uint              `gorm:"primary_key" json:"id"`
	OrgId             string            `gorm:"index;not null" json:"org_id"`
	BusinessName      string            `gorm:"size:255;not null" json:"business_name" binding:"required"`
	AddressLine1      string            `gorm:"size:255;not null" json:"address_line1" binding:"required"`
	City              string            `gorm:"size:100;not null" json:"city" binding:"required"`
	State             string            `gorm:"size:50;not null" json:"state" binding:"required"`
	Zip               string            `gorm:"size:20;not null" json:"zip" binding:"required"`
	Phone             string            `gorm:"size:20;not null" json:"phone" binding:"required"`
	WebsiteUrl        string            `gorm:"size:255" json:"website_url"`
	HoursJSON         []byte            `gorm:"type:json" json:"hours_data"`
	OperationalStatus OperationalStatus `gorm:"size:30;default:open" json:"operational_status"`

	// Rolling summary pair, recomputed by every sync run.
	NapHealthScore   *int       `json:"nap_health_score"`
	NapLastCheckedAt *time.Time `json:"nap_last_checked_at"`

	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLocation struct {
	BusinessName      string `json:"business_name" binding:"required"`
	AddressLine1      string `json:"address_line1" binding:"required"`
	City              string `json:"city" binding:"required"`
	State             string `json:"state" binding:"required"`
	Zip               string `json:"zip" binding:"required"`
	Phone             string `json:"phone" binding:"required"`
	WebsiteUrl        string `json:"website_url"`
	HoursData         []byte `json:"hours_data"`
	OperationalStatus string `json:"operational_status"`
}

func GetLocationById(ctx context.Context, locationId uint, orgId string) (*Location, error) {
	db := config.GetDB()
	var location Location
	if err := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", locationId, orgId).
		Take(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func ListLocationsByOrg(ctx context.Context, orgId string) ([]Location, error) {
	db := config.GetDB()
	var locations []Location
	if err := db.WithContext(ctx).
		Where("org_id = ? AND is_active = ?", orgId, true).
		Order("id").
		Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// UpdateLocationHealthScore writes the rolling summary pair after a run.
func UpdateLocationHealthScore(ctx context.Context, locationId uint, orgId string, score int, checkedAt time.Time) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Location{}).
		Where("id = ? AND org_id = ?", locationId, orgId).
		Updates(map[string]interface{}{
			"nap_health_score":    score,
			"nap_last_checked_at": checkedAt,
		}).Error
}
