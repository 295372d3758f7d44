package provisioning

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

// MaxCategoryNameLength is the maximum length of a category name
const MaxCategoryNameLength = 100

// Category represents a provisioning category: a loan-quality bucket
// (standard, sub-standard, doubtful, loss) that age-band definitions
// are keyed by.
type Category struct {
	shared.BaseAggregateRoot
	CategoryName        string
	CategoryDescription string
}

// NewCategory creates a new provisioning category
func NewCategory(name, description string) (*Category, error) {
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	return &Category{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		CategoryName:        strings.TrimSpace(name),
		CategoryDescription: description,
	}, nil
}

// Update applies the requested name and description, returning the set
// of fields that actually changed. Nil pointers leave a field untouched.
func (c *Category) Update(name, description *string) (shared.ChangeSet, error) {
	changes := shared.NewChangeSet()

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if err := validateCategoryName(trimmed); err != nil {
			return nil, err
		}
		if trimmed != c.CategoryName {
			c.CategoryName = trimmed
			changes.Set("categoryName", trimmed)
		}
	}

	if description != nil && *description != c.CategoryDescription {
		c.CategoryDescription = *description
		changes.Set("categoryDescription", *description)
	}

	if !changes.IsEmpty() {
		c.UpdatedAt = time.Now()
		c.IncrementVersion()
	}

	return changes, nil
}

// validateCategoryName validates the category name
func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewValidationError("categoryName", "Category name cannot be empty")
	}
	if len(name) > MaxCategoryNameLength {
		return shared.NewValidationError("categoryName",
			fmt.Sprintf("Category name cannot exceed %d characters", MaxCategoryNameLength))
	}
	return nil
}
