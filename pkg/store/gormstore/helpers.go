package gormstore

import (
	"context"

	"gorm.io/gorm"
)

// getByField retrieves a single record of type T by field=value, converting
// gorm.ErrRecordNotFound to notFoundErr.
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where(field+" = ?", value).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listAll retrieves every record of type T, returning an empty (not nil)
// slice when there are none.
func listAll[T any](db *gorm.DB, ctx context.Context) ([]*T, error) {
	results := []*T{}
	if err := db.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// listByField retrieves every record of type T matching field=value.
func listByField[T any](db *gorm.DB, ctx context.Context, field string, value any) ([]*T, error) {
	results := []*T{}
	if err := db.WithContext(ctx).Where(field+" = ?", value).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// upsert creates or replaces entity, converting unique constraint violations
// to dupErr. Used for reader rows, whose ID the caller supplies, rather
// than auto-incrementing ones.
func upsert[T any](db *gorm.DB, ctx context.Context, entity *T, dupErr error) error {
	if err := db.WithContext(ctx).Save(entity).Error; err != nil {
		if isUniqueConstraintError(err) {
			return dupErr
		}
		return err
	}
	return nil
}

// deleteByField deletes records of type T matching field=value, returning
// notFoundErr if no rows were affected.
func deleteByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) error {
	var zero T
	result := db.WithContext(ctx).Where(field+" = ?", value).Delete(&zero)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundErr
	}
	return nil
}

func create[T any](db *gorm.DB, ctx context.Context, entity *T) error {
	return db.WithContext(ctx).Create(entity).Error
}
