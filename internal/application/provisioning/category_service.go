package provisioning

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

// CategoryService handles provisioning category operations
type CategoryService struct {
	categoryRepo provisioning.CategoryRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo provisioning.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// Create creates a new provisioning category
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := provisioning.NewCategory(req.CategoryName, req.CategoryDescription)
	if err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, s.translateSaveError(err, category.CategoryName)
	}

	s.logger.Info("provisioning category created",
		zap.Int64("category_id", category.ID),
		zap.String("category_name", category.CategoryName))

	return ToCategoryResponse(category), nil
}

// Update applies name and description changes to an existing category
func (s *CategoryService) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	changes, err := category.Update(req.CategoryName, req.CategoryDescription)
	if err != nil {
		return nil, err
	}
	if changes.IsEmpty() {
		return ToCategoryResponse(category), nil
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, s.translateSaveError(err, category.CategoryName)
	}
	return ToCategoryResponse(category), nil
}

// Delete removes a category unless a criteria definition still references it
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.categoryRepo.InUse(ctx, category.ID)
	if err != nil {
		return err
	}
	if inUse {
		return provisioning.NewCategoryInUseError(category.CategoryName)
	}

	return s.categoryRepo.Delete(ctx, category.ID)
}

// List retrieves categories matching the filter
func (s *CategoryService) List(ctx context.Context, filter CriteriaListFilter) ([]CategoryResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	domainFilter.OrderBy = "category_name"
	domainFilter.OrderDir = "asc"
	if filter.Page > 0 && filter.PageSize > 0 {
		domainFilter.Page = filter.Page
		domainFilter.PageSize = filter.PageSize
	}

	categories, err := s.categoryRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.categoryRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = *ToCategoryResponse(&categories[i])
	}
	return responses, total, nil
}

func (s *CategoryService) loadCategory(ctx context.Context, id int64) (*provisioning.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code,
				fmt.Sprintf("provisioning category with id %d does not exist", id))
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) translateSaveError(err error, categoryName string) error {
	var violation *provisioning.ConstraintViolation
	if !errors.As(err, &violation) {
		return err
	}
	domainErr, recognized := provisioning.TranslateConstraintViolation(violation, categoryName)
	if !recognized {
		s.logger.Error("unrecognized integrity violation while saving provisioning category",
			zap.String("category_name", categoryName),
			zap.String("constraint", violation.Constraint),
			zap.Error(violation.Cause))
	}
	return domainErr
}
