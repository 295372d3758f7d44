package provisioning

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
)

// DefinitionRequest represents one age band in a create or update payload.
// An absent ID marks a new band; a present ID addresses an existing band
// of the same criteria.
type DefinitionRequest struct {
	ID                     *int64          `json:"id"`
	CategoryID             int64           `json:"category_id" binding:"required"`
	MinAge                 int             `json:"min_age"`
	MaxAge                 int             `json:"max_age" binding:"required"`
	ProvisioningPercentage decimal.Decimal `json:"provisioning_percentage"`
	LiabilityAccountID     int64           `json:"liability_account_id" binding:"required"`
	ExpenseAccountID       int64           `json:"expense_account_id" binding:"required"`
}

// CreateCriteriaRequest represents a request to create a provisioning criteria
type CreateCriteriaRequest struct {
	CriteriaName   string              `json:"criteria_name" binding:"required,min=1,max=200"`
	Definitions    []DefinitionRequest `json:"definitions" binding:"required,min=1,dive"`
	LoanProductIDs []int64             `json:"loan_product_ids"`
}

// UpdateCriteriaRequest represents a request to update a provisioning
// criteria. Nil fields are left untouched; an empty (non-nil) loan product
// list clears the associations.
type UpdateCriteriaRequest struct {
	CriteriaName   *string             `json:"criteria_name" binding:"omitempty,min=1,max=200"`
	Definitions    []DefinitionRequest `json:"definitions" binding:"omitempty,dive"`
	LoanProductIDs []int64             `json:"loan_product_ids"`
}

// DefinitionResponse represents an age band in API responses
type DefinitionResponse struct {
	ID                     int64           `json:"id"`
	CategoryID             int64           `json:"category_id"`
	CategoryName           string          `json:"category_name"`
	MinAge                 int             `json:"min_age"`
	MaxAge                 int             `json:"max_age"`
	ProvisioningPercentage decimal.Decimal `json:"provisioning_percentage"`
	LiabilityAccountID     int64           `json:"liability_account_id"`
	LiabilityAccountCode   string          `json:"liability_account_code"`
	LiabilityAccountName   string          `json:"liability_account_name"`
	ExpenseAccountID       int64           `json:"expense_account_id"`
	ExpenseAccountCode     string          `json:"expense_account_code"`
	ExpenseAccountName     string          `json:"expense_account_name"`
}

// LoanProductResponse represents an associated loan product in API responses
type LoanProductResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// CriteriaResponse represents a full provisioning criteria aggregate
type CriteriaResponse struct {
	ID           int64                 `json:"id"`
	CriteriaName string                `json:"criteria_name"`
	Definitions  []DefinitionResponse  `json:"definitions"`
	LoanProducts []LoanProductResponse `json:"loan_products"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Version      int                   `json:"version"`
}

// CriteriaListResponse represents a list item for criteria
type CriteriaListResponse struct {
	ID              int64     `json:"id"`
	CriteriaName    string    `json:"criteria_name"`
	DefinitionCount int       `json:"definition_count"`
	ProductCount    int       `json:"product_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// CriteriaListFilter represents filter options for the criteria list
type CriteriaListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CommandResult reports the outcome of a mutating criteria operation:
// the entity id and the fields the operation actually changed.
type CommandResult struct {
	ID      int64          `json:"id"`
	Changes map[string]any `json:"changes,omitempty"`
}

// GLAccountOption is a selectable GL account in the template response
type GLAccountOption struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	GLCode         string `json:"gl_code"`
	Classification string `json:"classification"`
}

// CategoryOption is a selectable provisioning category in the template response
type CategoryOption struct {
	ID                  int64  `json:"id"`
	CategoryName        string `json:"category_name"`
	CategoryDescription string `json:"category_description"`
}

// TemplateResponse carries the reference data a client needs to build a
// criteria: the categories, the eligible GL accounts per classification and
// the loan products not yet covered by another criteria.
type TemplateResponse struct {
	Categories        []CategoryOption      `json:"categories"`
	LiabilityAccounts []GLAccountOption     `json:"liability_accounts"`
	ExpenseAccounts   []GLAccountOption     `json:"expense_accounts"`
	LoanProducts      []LoanProductResponse `json:"loan_products"`
}

// CreateCategoryRequest represents a request to create a provisioning category
type CreateCategoryRequest struct {
	CategoryName        string `json:"category_name" binding:"required,min=1,max=100"`
	CategoryDescription string `json:"category_description" binding:"max=500"`
}

// UpdateCategoryRequest represents a request to update a provisioning category
type UpdateCategoryRequest struct {
	CategoryName        *string `json:"category_name" binding:"omitempty,min=1,max=100"`
	CategoryDescription *string `json:"category_description" binding:"omitempty,max=500"`
}

// CategoryResponse represents a provisioning category in API responses
type CategoryResponse struct {
	ID                  int64     `json:"id"`
	CategoryName        string    `json:"category_name"`
	CategoryDescription string    `json:"category_description"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ToCriteriaResponse converts a domain Criteria to CriteriaResponse
func ToCriteriaResponse(c *provisioning.Criteria) *CriteriaResponse {
	definitions := make([]DefinitionResponse, len(c.Definitions))
	for i, d := range c.Definitions {
		definitions[i] = toDefinitionResponse(d)
	}
	products := make([]LoanProductResponse, len(c.LoanProducts))
	for i, p := range c.LoanProducts {
		products[i] = toLoanProductResponse(p)
	}
	return &CriteriaResponse{
		ID:           c.ID,
		CriteriaName: c.CriteriaName,
		Definitions:  definitions,
		LoanProducts: products,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Version:      c.Version,
	}
}

// ToCriteriaListResponse converts a domain Criteria to CriteriaListResponse
func ToCriteriaListResponse(c *provisioning.Criteria) CriteriaListResponse {
	return CriteriaListResponse{
		ID:              c.ID,
		CriteriaName:    c.CriteriaName,
		DefinitionCount: len(c.Definitions),
		ProductCount:    len(c.LoanProducts),
		CreatedAt:       c.CreatedAt,
	}
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *provisioning.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:                  c.ID,
		CategoryName:        c.CategoryName,
		CategoryDescription: c.CategoryDescription,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func toDefinitionResponse(d provisioning.Definition) DefinitionResponse {
	return DefinitionResponse{
		ID:                     d.ID,
		CategoryID:             d.CategoryID,
		CategoryName:           d.CategoryName,
		MinAge:                 d.MinAge,
		MaxAge:                 d.MaxAge,
		ProvisioningPercentage: d.ProvisioningPercentage,
		LiabilityAccountID:     d.LiabilityAccountID,
		LiabilityAccountCode:   d.LiabilityAccountCode,
		LiabilityAccountName:   d.LiabilityAccountName,
		ExpenseAccountID:       d.ExpenseAccountID,
		ExpenseAccountCode:     d.ExpenseAccountCode,
		ExpenseAccountName:     d.ExpenseAccountName,
	}
}

func toLoanProductResponse(p portfolio.LoanProduct) LoanProductResponse {
	return LoanProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		ShortName: p.ShortName,
	}
}

func toGLAccountOption(a accounting.GLAccount) GLAccountOption {
	return GLAccountOption{
		ID:             a.ID,
		Name:           a.Name,
		GLCode:         a.GLCode,
		Classification: a.Classification.String(),
	}
}

func toCategoryOption(c provisioning.Category) CategoryOption {
	return CategoryOption{
		ID:                  c.ID,
		CategoryName:        c.CategoryName,
		CategoryDescription: c.CategoryDescription,
	}
}
