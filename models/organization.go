package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/locallens/presence_backend/config"
	"gorm.io/gorm"
)

type Organization struct {
	ID          uuid.UUID        `gorm:"primary_key" json:"id"`
	Name        string           `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ContactName string           `gorm:"size:100" json:"contact_name"`
	Email       string           `gorm:"size:255" json:"email"`
	Phone       string           `gorm:"size:20" json:"phone"`
	Plan        SubscriptionPlan `gorm:"type:enum('free', 'starter', 'growth', 'pro');default:free" json:"plan"`
	Timezone    string           `gorm:"size:50" json:"timezone"`
	IsActive    *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (org *Organization) BeforeCreate(tx *gorm.DB) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	return nil
}

func GetOrganizationById(ctx context.Context, orgId string) (*Organization, error) {
	db := config.GetDB()
	var org Organization
	if err := db.WithContext(ctx).Where("id = ?", orgId).Take(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// ListSweepEligibleOrganizations returns active organizations whose plan meets
// the minimum tier for the scheduled fleet sweep.
func ListSweepEligibleOrganizations(ctx context.Context, minimum SubscriptionPlan) ([]Organization, error) {
	db := config.GetDB()
	var orgs []Organization
	if err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at").
		Find(&orgs).Error; err != nil {
		return nil, err
	}

	eligible := make([]Organization, 0, len(orgs))
	for _, org := range orgs {
		if PlanSatisfies(org.Plan, minimum) {
			eligible = append(eligible, org)
		}
	}
	return eligible, nil
}
