package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Insert writes a new row.
func Insert(value interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.Create(value).Error
}

// Upsert writes a row, updating in place on conflict of the given columns.
// Every upsert in this codebase goes through here; each call site passes
// its own conflict and update columns.
func Upsert(value interface{}, conflictColumns []string, updateColumns []string) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	columns := make([]clause.Column, len(conflictColumns))
	for i, c := range conflictColumns {
		columns[i] = clause.Column{Name: c}
	}

	return DB.Clauses(clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(value).Error
}

// Update applies the given column/value map to rows matching query/args.
func Update(model interface{}, query string, args []interface{}, updates map[string]interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.Model(model).Where(query, args...).Updates(updates).Error
}

// Select loads rows matching query/args into dest.
func Select(dest interface{}, query string, args ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if query == "" {
		return DB.Find(dest).Error
	}
	return DB.Where(query, args...).Find(dest).Error
}

// SelectOne loads a single row matching query/args into dest, returning
// gorm.ErrRecordNotFound if none exists.
func SelectOne(dest interface{}, query string, args ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DB.Where(query, args...).First(dest).Error
}

// IsNotFound reports whether err is gorm's not-found sentinel.
func IsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}
