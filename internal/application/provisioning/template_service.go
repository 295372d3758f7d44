package provisioning

import (
	"context"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

// TemplateService assembles the reference data a client needs before
// creating or editing a criteria: the provisioning categories, the GL
// accounts eligible for each side of a definition, and the loan products
// not yet claimed by another criteria.
type TemplateService struct {
	categoryRepo provisioning.CategoryRepository
	criteriaRepo provisioning.CriteriaRepository
	accounts     accounting.AccountResolver
	products     portfolio.LoanProductResolver
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(
	categoryRepo provisioning.CategoryRepository,
	criteriaRepo provisioning.CriteriaRepository,
	accounts accounting.AccountResolver,
	products portfolio.LoanProductResolver,
) *TemplateService {
	return &TemplateService{
		categoryRepo: categoryRepo,
		criteriaRepo: criteriaRepo,
		accounts:     accounts,
		products:     products,
	}
}

// Template builds the criteria template. When editing an existing criteria,
// pass its id so that products already assigned to IT stay selectable; pass
// 0 when creating.
func (s *TemplateService) Template(ctx context.Context, excludeCriteriaID int64) (*TemplateResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx, shared.Filter{OrderBy: "category_name", OrderDir: "asc"})
	if err != nil {
		return nil, err
	}

	liabilityAccounts, err := s.accounts.FindByClassification(ctx, accounting.ClassificationLiability)
	if err != nil {
		return nil, err
	}
	expenseAccounts, err := s.accounts.FindByClassification(ctx, accounting.ClassificationExpense)
	if err != nil {
		return nil, err
	}

	products, err := s.availableProducts(ctx, excludeCriteriaID)
	if err != nil {
		return nil, err
	}

	resp := &TemplateResponse{
		Categories:        make([]CategoryOption, len(categories)),
		LiabilityAccounts: make([]GLAccountOption, len(liabilityAccounts)),
		ExpenseAccounts:   make([]GLAccountOption, len(expenseAccounts)),
		LoanProducts:      products,
	}
	for i, c := range categories {
		resp.Categories[i] = toCategoryOption(c)
	}
	for i, a := range liabilityAccounts {
		resp.LiabilityAccounts[i] = toGLAccountOption(a)
	}
	for i, a := range expenseAccounts {
		resp.ExpenseAccounts[i] = toGLAccountOption(a)
	}
	return resp, nil
}

// availableProducts filters out loan products already mapped to another
// criteria, since a product belongs to at most one criteria at a time.
func (s *TemplateService) availableProducts(ctx context.Context, excludeCriteriaID int64) ([]LoanProductResponse, error) {
	all, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	assigned, err := s.criteriaRepo.FindAssignedProductIDs(ctx, excludeCriteriaID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]struct{}, len(assigned))
	for _, id := range assigned {
		taken[id] = struct{}{}
	}

	available := make([]LoanProductResponse, 0, len(all))
	for _, p := range all {
		if _, ok := taken[p.ID]; ok {
			continue
		}
		available = append(available, toLoanProductResponse(p))
	}
	return available, nil
}
