package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/persistence/models"
)

// GormLoanProductRepository implements portfolio.LoanProductResolver over
// the read-side loan_products table.
type GormLoanProductRepository struct {
	db *gorm.DB
}

// NewGormLoanProductRepository creates a new GormLoanProductRepository
func NewGormLoanProductRepository(db *gorm.DB) *GormLoanProductRepository {
	return &GormLoanProductRepository{db: db}
}

// Resolve returns the loan product with the given id, or shared.ErrNotFound
func (r *GormLoanProductRepository) Resolve(ctx context.Context, id int64) (*portfolio.LoanProduct, error) {
	var model models.LoanProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all loan products ordered by name
func (r *GormLoanProductRepository) FindAll(ctx context.Context) ([]portfolio.LoanProduct, error) {
	var productModels []models.LoanProductModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&productModels).Error; err != nil {
		return nil, err
	}
	products := make([]portfolio.LoanProduct, len(productModels))
	for i := range productModels {
		products[i] = *productModels[i].ToDomain()
	}
	return products, nil
}
