// Package accounting holds the provisioning service's local view of the
// general ledger. GL accounts are owned by an external accounting system;
// this context only resolves and classifies them when criteria definitions
// reference them.
package accounting

import (
	"context"
)

// AccountClassification represents the classification of a GL account
type AccountClassification string

const (
	ClassificationAsset     AccountClassification = "ASSET"
	ClassificationLiability AccountClassification = "LIABILITY"
	ClassificationEquity    AccountClassification = "EQUITY"
	ClassificationIncome    AccountClassification = "INCOME"
	ClassificationExpense   AccountClassification = "EXPENSE"
)

// IsValid checks if the classification is valid
func (c AccountClassification) IsValid() bool {
	switch c {
	case ClassificationAsset, ClassificationLiability, ClassificationEquity,
		ClassificationIncome, ClassificationExpense:
		return true
	}
	return false
}

// String returns the string representation of the classification
func (c AccountClassification) String() string {
	return string(c)
}

// GLAccount is a read-side reference to a general ledger account
type GLAccount struct {
	ID             int64
	Name           string
	GLCode         string
	Classification AccountClassification
}

// IsLiability returns true if the account is liability-classified
func (a *GLAccount) IsLiability() bool {
	return a.Classification == ClassificationLiability
}

// IsExpense returns true if the account is expense-classified
func (a *GLAccount) IsExpense() bool {
	return a.Classification == ClassificationExpense
}

// AccountResolver resolves GL account references for the provisioning context.
type AccountResolver interface {
	// Resolve returns the GL account with the given id.
	// Returns shared.ErrNotFound when no such account exists.
	Resolve(ctx context.Context, id int64) (*GLAccount, error)

	// FindByClassification returns all accounts of the given classification,
	// ordered by GL code.
	FindByClassification(ctx context.Context, classification AccountClassification) ([]GLAccount, error)
}
