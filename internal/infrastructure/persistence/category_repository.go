package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/persistence/models"
)

// CategorySortFields contains allowed sort fields for provisioning categories
var CategorySortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"category_name": true,
}

// GormCategoryRepository implements provisioning.CategoryRepository using
// GORM. It also serves as the CategoryResolver consumed during criteria
// assembly.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id int64) (*provisioning.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Resolve implements provisioning.CategoryResolver
func (r *GormCategoryRepository) Resolve(ctx context.Context, id int64) (*provisioning.Category, error) {
	return r.FindByID(ctx, id)
}

// FindAll finds all categories matching the filter
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]provisioning.Category, error) {
	var categoryModels []models.CategoryModel
	query := r.db.WithContext(ctx).Model(&models.CategoryModel{})
	query = r.applySearch(query, filter)

	sortField := ValidateSortField(filter.OrderBy, CategorySortFields, "category_name")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if offset := (filter.Page - 1) * filter.PageSize; offset > 0 {
			query = query.Offset(offset)
		}
	}

	if err := query.Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]provisioning.Category, len(categoryModels))
	for i := range categoryModels {
		categories[i] = *categoryModels[i].ToDomain()
	}
	return categories, nil
}

// Count counts categories matching the filter
func (r *GormCategoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CategoryModel{})
	query = r.applySearch(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a category. Duplicate names surface as
// *provisioning.ConstraintViolation.
func (r *GormCategoryRepository) Save(ctx context.Context, category *provisioning.Category) error {
	model := models.CategoryModelFromDomain(category)
	var err error
	if model.ID == 0 {
		err = r.db.WithContext(ctx).Create(model).Error
		if err == nil {
			category.ID = model.ID
		}
	} else {
		err = r.db.WithContext(ctx).Save(model).Error
	}
	return classifyConstraint(err)
}

// Delete deletes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.CategoryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// InUse reports whether any criteria definition references the category
func (r *GormCategoryRepository) InUse(ctx context.Context, categoryID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DefinitionModel{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormCategoryRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("category_name ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}
