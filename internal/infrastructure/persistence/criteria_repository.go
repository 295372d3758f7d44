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

// CriteriaSortFields contains allowed sort fields for provisioning criteria
var CriteriaSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"criteria_name": true,
}

// GormCriteriaRepository implements provisioning.CriteriaRepository using GORM
type GormCriteriaRepository struct {
	db *gorm.DB
}

// NewGormCriteriaRepository creates a new GormCriteriaRepository
func NewGormCriteriaRepository(db *gorm.DB) *GormCriteriaRepository {
	return &GormCriteriaRepository{db: db}
}

// FindByID loads a criteria with its definitions and loan products
func (r *GormCriteriaRepository) FindByID(ctx context.Context, id int64) (*provisioning.Criteria, error) {
	var model models.CriteriaModel
	if err := r.db.WithContext(ctx).
		Preload("Definitions", func(db *gorm.DB) *gorm.DB {
			return db.Order("category_id ASC, min_age ASC")
		}).
		Preload("Products.Product").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName loads a criteria by its unique name
func (r *GormCriteriaRepository) FindByName(ctx context.Context, name string) (*provisioning.Criteria, error) {
	var model models.CriteriaModel
	if err := r.db.WithContext(ctx).
		Preload("Definitions", func(db *gorm.DB) *gorm.DB {
			return db.Order("category_id ASC, min_age ASC")
		}).
		Preload("Products.Product").
		First(&model, "criteria_name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all criteria matching the filter
func (r *GormCriteriaRepository) FindAll(ctx context.Context, filter shared.Filter) ([]provisioning.Criteria, error) {
	var criteriaModels []models.CriteriaModel
	query := r.db.WithContext(ctx).Model(&models.CriteriaModel{}).
		Preload("Definitions").
		Preload("Products.Product")
	query = r.applySearch(query, filter)

	sortField := ValidateSortField(filter.OrderBy, CriteriaSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if offset := (filter.Page - 1) * filter.PageSize; offset > 0 {
			query = query.Offset(offset)
		}
	}

	if err := query.Find(&criteriaModels).Error; err != nil {
		return nil, err
	}
	criteria := make([]provisioning.Criteria, len(criteriaModels))
	for i := range criteriaModels {
		criteria[i] = *criteriaModels[i].ToDomain()
	}
	return criteria, nil
}

// Count counts criteria matching the filter
func (r *GormCriteriaRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CriteriaModel{})
	query = r.applySearch(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the aggregate in one transaction: the header row, the
// definition rows and the product mapping rows commit or roll back
// together. Definitions and mappings are replaced wholesale with the
// aggregate's current state; constraint failures surface as
// *provisioning.ConstraintViolation.
func (r *GormCriteriaRepository) Save(ctx context.Context, criteria *provisioning.Criteria) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := models.CriteriaModelFromDomain(criteria)
		if header.ID == 0 {
			if err := tx.Create(header).Error; err != nil {
				return err
			}
			criteria.ID = header.ID
		} else if err := tx.Omit("Definitions", "Products").Save(header).Error; err != nil {
			return err
		}

		if err := r.replaceDefinitions(tx, criteria); err != nil {
			return err
		}
		return r.replaceProducts(tx, header.ID, criteria)
	})
	return classifyConstraint(err)
}

// replaceDefinitions upserts the aggregate's bands and removes rows the
// aggregate no longer carries. Newly inserted bands get their generated
// ids written back into the aggregate; updates leave the created_at audit
// column untouched.
func (r *GormCriteriaRepository) replaceDefinitions(tx *gorm.DB, criteria *provisioning.Criteria) error {
	kept := make([]int64, 0, len(criteria.Definitions))
	for i := range criteria.Definitions {
		model := models.DefinitionModelFromDomain(criteria.ID, criteria.Definitions[i])
		if model.ID == 0 {
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		} else if err := tx.Omit("created_at").Save(&model).Error; err != nil {
			return err
		}
		criteria.Definitions[i].ID = model.ID
		kept = append(kept, model.ID)
	}

	query := tx.Where("criteria_id = ?", criteria.ID)
	if len(kept) > 0 {
		query = query.Where("id NOT IN ?", kept)
	}
	return query.Delete(&models.DefinitionModel{}).Error
}

func (r *GormCriteriaRepository) replaceProducts(tx *gorm.DB, criteriaID int64, criteria *provisioning.Criteria) error {
	productIDs := make([]int64, 0, len(criteria.LoanProducts))
	for _, p := range criteria.LoanProducts {
		productIDs = append(productIDs, p.ID)
	}

	query := tx.Where("criteria_id = ?", criteriaID)
	if len(productIDs) > 0 {
		query = query.Where("product_id NOT IN ?", productIDs)
	}
	if err := query.Delete(&models.CriteriaProductModel{}).Error; err != nil {
		return err
	}

	for _, productID := range productIDs {
		var existing int64
		if err := tx.Model(&models.CriteriaProductModel{}).
			Where("criteria_id = ? AND product_id = ?", criteriaID, productID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			continue
		}
		mapping := models.CriteriaProductModel{CriteriaID: criteriaID, ProductID: productID}
		if err := tx.Create(&mapping).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the criteria together with its definitions and product
// mappings
func (r *GormCriteriaRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("criteria_id = ?", id).Delete(&models.DefinitionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("criteria_id = ?", id).Delete(&models.CriteriaProductModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CriteriaModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	return err
}

// FindAssignedProductIDs returns the loan product ids already mapped to any
// criteria other than the given one. Pass 0 when creating.
func (r *GormCriteriaRepository) FindAssignedProductIDs(ctx context.Context, excludeCriteriaID int64) ([]int64, error) {
	var ids []int64
	query := r.db.WithContext(ctx).Model(&models.CriteriaProductModel{})
	if excludeCriteriaID != 0 {
		query = query.Where("criteria_id <> ?", excludeCriteriaID)
	}
	if err := query.Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormCriteriaRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("criteria_name ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}
