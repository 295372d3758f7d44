// Package portfolio holds the provisioning service's local view of the
// loan portfolio. Loan products are managed elsewhere; criteria only
// reference them by id.
package portfolio

import (
	"context"
)

// LoanProduct is a read-side reference to a loan product
type LoanProduct struct {
	ID        int64
	Name      string
	ShortName string
}

// LoanProductResolver resolves loan product references for the provisioning context.
type LoanProductResolver interface {
	// Resolve returns the loan product with the given id.
	// Returns shared.ErrNotFound when no such product exists.
	Resolve(ctx context.Context, id int64) (*LoanProduct, error)

	// FindAll returns all loan products ordered by name.
	FindAll(ctx context.Context) ([]LoanProduct, error)
}
