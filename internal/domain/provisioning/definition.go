package provisioning

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

var maxPercentage = decimal.NewFromInt(100)

// Definition is one age band of a provisioning criteria: for loans of a
// given category overdue between MinAge and MaxAge days (half-open
// interval), the given percentage of the outstanding balance is
// provisioned against the referenced GL account pair.
//
// The account code and name columns are denormalized snapshots taken
// from the resolved GL accounts; the account ids remain the source of
// truth and are re-resolved on every update.
type Definition struct {
	ID                     int64
	CategoryID             int64
	CategoryName           string
	MinAge                 int
	MaxAge                 int
	ProvisioningPercentage decimal.Decimal
	LiabilityAccountID     int64
	LiabilityAccountCode   string
	LiabilityAccountName   string
	ExpenseAccountID       int64
	ExpenseAccountCode     string
	ExpenseAccountName     string
}

// NewDefinition builds a validated age band from resolved references.
// Resolution failures (unknown category or account ids) are the
// resolvers' responsibility; this constructor enforces the band rules:
// 0 <= minAge < maxAge, percentage within [0,100], and correct account
// classifications.
func NewDefinition(category *Category, minAge, maxAge int, percentage decimal.Decimal,
	liabilityAccount, expenseAccount *accounting.GLAccount) (Definition, error) {

	if category == nil {
		return Definition{}, shared.NewValidationError("categoryId", "Provisioning category is required")
	}
	if minAge < 0 {
		return Definition{}, shared.NewValidationError("minAge", "Minimum age cannot be negative")
	}
	if maxAge < 0 {
		return Definition{}, shared.NewValidationError("maxAge", "Maximum age cannot be negative")
	}
	if minAge >= maxAge {
		return Definition{}, shared.NewValidationError("maxAge",
			fmt.Sprintf("Maximum age %d must be greater than minimum age %d", maxAge, minAge))
	}
	if percentage.IsNegative() || percentage.GreaterThan(maxPercentage) {
		return Definition{}, shared.NewValidationError("provisioningPercentage",
			"Provisioning percentage must be between 0 and 100")
	}
	if liabilityAccount == nil {
		return Definition{}, shared.NewValidationError("liabilityAccount", "Liability account is required")
	}
	if !liabilityAccount.IsLiability() {
		return Definition{}, shared.NewValidationError("liabilityAccount",
			fmt.Sprintf("Account %s is not a liability account", liabilityAccount.GLCode))
	}
	if expenseAccount == nil {
		return Definition{}, shared.NewValidationError("expenseAccount", "Expense account is required")
	}
	if !expenseAccount.IsExpense() {
		return Definition{}, shared.NewValidationError("expenseAccount",
			fmt.Sprintf("Account %s is not an expense account", expenseAccount.GLCode))
	}

	return Definition{
		CategoryID:             category.ID,
		CategoryName:           category.CategoryName,
		MinAge:                 minAge,
		MaxAge:                 maxAge,
		ProvisioningPercentage: percentage,
		LiabilityAccountID:     liabilityAccount.ID,
		LiabilityAccountCode:   liabilityAccount.GLCode,
		LiabilityAccountName:   liabilityAccount.Name,
		ExpenseAccountID:       expenseAccount.ID,
		ExpenseAccountCode:     expenseAccount.GLCode,
		ExpenseAccountName:     expenseAccount.Name,
	}, nil
}

// AgeBand renders the half-open interval covered by the definition.
func (d Definition) AgeBand() string {
	return fmt.Sprintf("[%d,%d)", d.MinAge, d.MaxAge)
}

// Overlaps reports whether two bands of the same category have
// intersecting [MinAge, MaxAge) intervals. Bands of different
// categories never overlap.
func (d Definition) Overlaps(other Definition) bool {
	if d.CategoryID != other.CategoryID {
		return false
	}
	return d.MinAge < other.MaxAge && other.MinAge < d.MaxAge
}

// diff returns the fields on which other differs from d, with other's
// values. Band identity (ID) is not compared.
func (d Definition) diff(other Definition) shared.ChangeSet {
	changes := shared.NewChangeSet()
	if d.CategoryID != other.CategoryID {
		changes.Set("categoryId", other.CategoryID)
	}
	if d.MinAge != other.MinAge {
		changes.Set("minAge", other.MinAge)
	}
	if d.MaxAge != other.MaxAge {
		changes.Set("maxAge", other.MaxAge)
	}
	if !d.ProvisioningPercentage.Equal(other.ProvisioningPercentage) {
		changes.Set("provisioningPercentage", other.ProvisioningPercentage)
	}
	// Snapshot drift (an account renamed since the last write) counts as a
	// change so the refreshed code/name columns reach the store.
	if d.LiabilityAccountID != other.LiabilityAccountID ||
		d.LiabilityAccountCode != other.LiabilityAccountCode ||
		d.LiabilityAccountName != other.LiabilityAccountName {
		changes.Set("liabilityAccount", other.LiabilityAccountID)
	}
	if d.ExpenseAccountID != other.ExpenseAccountID ||
		d.ExpenseAccountCode != other.ExpenseAccountCode ||
		d.ExpenseAccountName != other.ExpenseAccountName {
		changes.Set("expenseAccount", other.ExpenseAccountID)
	}
	return changes
}
