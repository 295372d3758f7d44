package provisioning

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

// CriteriaAssembler builds criteria aggregates from request payloads,
// resolving category, GL account and loan product references. Assembly is
// fail-fast: the first unresolved reference aborts with NotFound and no
// partial aggregate is returned.
type CriteriaAssembler struct {
	categories provisioning.CategoryResolver
	accounts   accounting.AccountResolver
	products   portfolio.LoanProductResolver
}

// NewCriteriaAssembler creates a new CriteriaAssembler
func NewCriteriaAssembler(
	categories provisioning.CategoryResolver,
	accounts accounting.AccountResolver,
	products portfolio.LoanProductResolver,
) *CriteriaAssembler {
	return &CriteriaAssembler{
		categories: categories,
		accounts:   accounts,
		products:   products,
	}
}

// AssembleCriteria resolves every reference of a create payload and returns
// a fully-formed, not-yet-persisted criteria aggregate.
func (a *CriteriaAssembler) AssembleCriteria(ctx context.Context, req CreateCriteriaRequest) (*provisioning.Criteria, error) {
	definitions := make([]provisioning.Definition, 0, len(req.Definitions))
	for _, entry := range req.Definitions {
		definition, err := a.assembleDefinition(ctx, entry)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, definition)
	}

	products, err := a.ResolveLoanProducts(ctx, req.LoanProductIDs)
	if err != nil {
		return nil, err
	}

	return provisioning.NewCriteria(req.CriteriaName, definitions, products)
}

// AssemblePatches resolves the references of an update payload's definition
// entries into patches the aggregate can apply.
func (a *CriteriaAssembler) AssemblePatches(ctx context.Context, entries []DefinitionRequest) ([]provisioning.DefinitionPatch, error) {
	if entries == nil {
		return nil, nil
	}
	patches := make([]provisioning.DefinitionPatch, 0, len(entries))
	for _, entry := range entries {
		category, err := a.resolveCategory(ctx, entry.CategoryID)
		if err != nil {
			return nil, err
		}
		liability, expense, err := a.resolveAccounts(ctx, entry.LiabilityAccountID, entry.ExpenseAccountID)
		if err != nil {
			return nil, err
		}
		patches = append(patches, provisioning.DefinitionPatch{
			ID:               entry.ID,
			Category:         category,
			MinAge:           entry.MinAge,
			MaxAge:           entry.MaxAge,
			Percentage:       entry.ProvisioningPercentage,
			LiabilityAccount: liability,
			ExpenseAccount:   expense,
		})
	}
	return patches, nil
}

// ResolveLoanProducts resolves loan product ids without touching
// definitions. A nil id list yields nil; an empty list yields an empty
// (association-clearing) slice.
func (a *CriteriaAssembler) ResolveLoanProducts(ctx context.Context, ids []int64) ([]portfolio.LoanProduct, error) {
	if ids == nil {
		return nil, nil
	}
	products := make([]portfolio.LoanProduct, 0, len(ids))
	for _, id := range ids {
		product, err := a.products.Resolve(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError(shared.ErrNotFound.Code,
					fmt.Sprintf("loan product with id %d does not exist", id))
			}
			return nil, err
		}
		products = append(products, *product)
	}
	return products, nil
}

func (a *CriteriaAssembler) assembleDefinition(ctx context.Context, entry DefinitionRequest) (provisioning.Definition, error) {
	category, err := a.resolveCategory(ctx, entry.CategoryID)
	if err != nil {
		return provisioning.Definition{}, err
	}
	liability, expense, err := a.resolveAccounts(ctx, entry.LiabilityAccountID, entry.ExpenseAccountID)
	if err != nil {
		return provisioning.Definition{}, err
	}
	return provisioning.NewDefinition(category, entry.MinAge, entry.MaxAge,
		entry.ProvisioningPercentage, liability, expense)
}

func (a *CriteriaAssembler) resolveCategory(ctx context.Context, id int64) (*provisioning.Category, error) {
	category, err := a.categories.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code,
				fmt.Sprintf("provisioning category with id %d does not exist", id))
		}
		return nil, err
	}
	return category, nil
}

// resolveAccounts resolves the GL account pair of one definition entry. The
// NotFound check runs before the accounts are handed to the aggregate, so
// the denormalized code/name snapshot is only ever taken from a resolved
// account.
func (a *CriteriaAssembler) resolveAccounts(ctx context.Context, liabilityID, expenseID int64) (*accounting.GLAccount, *accounting.GLAccount, error) {
	liability, err := a.accounts.Resolve(ctx, liabilityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError(shared.ErrNotFound.Code,
				fmt.Sprintf("GL account with id %d does not exist", liabilityID))
		}
		return nil, nil, err
	}
	expense, err := a.accounts.Resolve(ctx, expenseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError(shared.ErrNotFound.Code,
				fmt.Sprintf("GL account with id %d does not exist", expenseID))
		}
		return nil, nil, err
	}
	return liability, expense, nil
}
