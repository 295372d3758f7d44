package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/persistence/models"
)

// GormGLAccountRepository implements accounting.AccountResolver over the
// read-side gl_accounts table. The accounting system owns the rows; this
// service only resolves and classifies them.
type GormGLAccountRepository struct {
	db *gorm.DB
}

// NewGormGLAccountRepository creates a new GormGLAccountRepository
func NewGormGLAccountRepository(db *gorm.DB) *GormGLAccountRepository {
	return &GormGLAccountRepository{db: db}
}

// Resolve returns the GL account with the given id, or shared.ErrNotFound
func (r *GormGLAccountRepository) Resolve(ctx context.Context, id int64) (*accounting.GLAccount, error) {
	var model models.GLAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClassification returns all accounts of the given classification,
// ordered by GL code
func (r *GormGLAccountRepository) FindByClassification(ctx context.Context, classification accounting.AccountClassification) ([]accounting.GLAccount, error) {
	var accountModels []models.GLAccountModel
	if err := r.db.WithContext(ctx).
		Where("classification = ?", classification.String()).
		Order("gl_code ASC").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]accounting.GLAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts, nil
}
