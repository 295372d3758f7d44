package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/jrobgood/fineract-poc/internal/infrastructure/persistence/models"
)

// GormEntriesLookup implements provisioning.EntriesLookup. Provisioning
// entries are written by the journal-entry pipeline elsewhere; this service
// only asks whether any row references a criteria. An empty result set does
// not block deletion, only an actual row does.
type GormEntriesLookup struct {
	db *gorm.DB
}

// NewGormEntriesLookup creates a new GormEntriesLookup
func NewGormEntriesLookup(db *gorm.DB) *GormEntriesLookup {
	return &GormEntriesLookup{db: db}
}

// ExistsForCriteria reports whether at least one provisioning entry
// references the criteria
func (l *GormEntriesLookup) ExistsForCriteria(ctx context.Context, criteriaID int64) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&models.EntryModel{}).
		Where("criteria_id = ?", criteriaID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
