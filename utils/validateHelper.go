package utils

import (
	"context"

	"github.com/locallens/presence_backend/config"
)

// check if id exists, scoped to org_id, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, orgId string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, orgId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// count records, using WHERE org_id = ? AND $condition
// org_id can be blank for admin user
func ResourceCountWhere[T any](ctx context.Context, orgId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if orgId != "" {
		dbCtx.Where("org_id = ?", orgId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
