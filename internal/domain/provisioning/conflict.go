package provisioning

import (
	"fmt"

	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

// Unique constraints of the provisioning tables. The repositories surface
// violations of these as ConstraintViolation; the names must match the
// migration files exactly.
const (
	ConstraintCriteriaName    = "uq_provisioning_criteria_name"
	ConstraintCriteriaProduct = "uq_provisioning_criteria_product"
	ConstraintCategoryName    = "uq_provisioning_category_name"
)

// Error codes raised by the provisioning services on top of the shared ones.
const (
	CodeDuplicateName            = "DUPLICATE_NAME"
	CodeProductAlreadyAssociated = "PRODUCT_ALREADY_ASSOCIATED"
	CodeCriteriaInUse            = "CRITERIA_IN_USE"
	CodeCategoryInUse            = "CATEGORY_IN_USE"
	CodeDataIntegrityViolation   = "DATA_INTEGRITY_VIOLATION"
)

// ConstraintViolation is raised by the persistence layer when the database
// rejects a write over a named constraint. Carrying the constraint name as
// data lets the translation below switch on it instead of scraping driver
// error messages.
type ConstraintViolation struct {
	Constraint string
	Cause      error
}

func (v *ConstraintViolation) Error() string {
	if v.Constraint == "" {
		return fmt.Sprintf("constraint violation: %v", v.Cause)
	}
	return fmt.Sprintf("constraint %s violated: %v", v.Constraint, v.Cause)
}

func (v *ConstraintViolation) Unwrap() error {
	return v.Cause
}

// NewDuplicateNameError reports that another criteria already holds the name.
func NewDuplicateNameError(name string) *shared.DomainError {
	return shared.NewDomainError(CodeDuplicateName,
		fmt.Sprintf("provisioning criteria with name %q already exists", name))
}

// NewProductAlreadyAssociatedError reports that a requested loan product is
// already covered by another criteria. The constraint does not tell us which
// product collided, so the message stays generic.
func NewProductAlreadyAssociatedError() *shared.DomainError {
	return shared.NewDomainError(CodeProductAlreadyAssociated,
		"one or more loan products are already associated with another provisioning criteria")
}

// NewCriteriaInUseError reports that provisioning entries reference the
// criteria, which blocks deletion.
func NewCriteriaInUseError(criteriaID int64) *shared.DomainError {
	return shared.NewDomainError(CodeCriteriaInUse,
		fmt.Sprintf("provisioning criteria %d has journal entries and cannot be deleted", criteriaID))
}

// NewCategoryInUseError reports that criteria definitions still reference
// the category, which blocks deletion.
func NewCategoryInUseError(name string) *shared.DomainError {
	return shared.NewDomainError(CodeCategoryInUse,
		fmt.Sprintf("provisioning category %q is referenced by criteria definitions and cannot be deleted", name))
}

// NewDataIntegrityError covers constraint violations the translation does
// not recognize. Callers log the underlying cause before surfacing this.
func NewDataIntegrityError() *shared.DomainError {
	return shared.NewDomainError(CodeDataIntegrityViolation,
		"unknown data integrity issue with provisioning criteria")
}

// TranslateConstraintViolation maps a database constraint violation to the
// domain error clients see. It always produces an error; the second return
// reports whether the constraint was recognized, so callers can log the
// cause of unrecognized ones before surfacing the generic error.
func TranslateConstraintViolation(v *ConstraintViolation, criteriaName string) (*shared.DomainError, bool) {
	switch v.Constraint {
	case ConstraintCriteriaName:
		return NewDuplicateNameError(criteriaName), true
	case ConstraintCriteriaProduct:
		return NewProductAlreadyAssociatedError(), true
	case ConstraintCategoryName:
		return shared.NewDomainError(CodeDuplicateName,
			fmt.Sprintf("provisioning category with name %q already exists", criteriaName)), true
	default:
		return NewDataIntegrityError(), false
	}
}
