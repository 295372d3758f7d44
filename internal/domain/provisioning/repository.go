package provisioning

import (
	"context"

	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

// CriteriaRepository defines the interface for criteria persistence
type CriteriaRepository interface {
	// FindByID loads a criteria with its definitions and loan products
	FindByID(ctx context.Context, id int64) (*Criteria, error)

	// FindByName loads a criteria by its unique name
	FindByName(ctx context.Context, name string) (*Criteria, error)

	// FindAll finds all criteria matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Criteria, error)

	// Count counts criteria matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save persists the aggregate in a single transaction: the header row,
	// the definition rows and the product mapping rows all commit or roll
	// back together. Unique constraint failures surface as
	// *ConstraintViolation.
	Save(ctx context.Context, criteria *Criteria) error

	// Delete removes the criteria together with its definitions and
	// product mappings
	Delete(ctx context.Context, id int64) error

	// FindAssignedProductIDs returns the loan product ids already mapped
	// to any criteria other than the given one. Pass 0 for creates.
	FindAssignedProductIDs(ctx context.Context, excludeCriteriaID int64) ([]int64, error)
}

// CategoryRepository defines the interface for provisioning category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id int64) (*Category, error)

	// FindAll finds all categories matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Category, error)

	// Count counts categories matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a category. Duplicate names surface as
	// *ConstraintViolation.
	Save(ctx context.Context, category *Category) error

	// Delete deletes a category
	Delete(ctx context.Context, id int64) error

	// InUse reports whether any criteria definition references the category
	InUse(ctx context.Context, categoryID int64) (bool, error)
}

// CategoryResolver resolves category references during request assembly.
// Implementations return shared.ErrNotFound for unknown ids.
type CategoryResolver interface {
	Resolve(ctx context.Context, id int64) (*Category, error)
}

// EntriesLookup answers whether provisioning entries were generated from a
// criteria. A criteria with entries cannot be deleted.
type EntriesLookup interface {
	ExistsForCriteria(ctx context.Context, criteriaID int64) (bool, error)
}
