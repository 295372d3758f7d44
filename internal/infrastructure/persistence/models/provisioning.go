package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
)

// CriteriaModel maps the provisioning criteria aggregate header
type CriteriaModel struct {
	AggregateModel
	CriteriaName string `gorm:"column:criteria_name;size:200;not null;uniqueIndex:uq_provisioning_criteria_name"`

	Definitions []DefinitionModel      `gorm:"foreignKey:CriteriaID;constraint:OnDelete:CASCADE"`
	Products    []CriteriaProductModel `gorm:"foreignKey:CriteriaID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for criteria
func (CriteriaModel) TableName() string {
	return "provisioning_criteria"
}

// DefinitionModel maps one age band of a criteria. The category and
// account name/code columns are denormalized snapshots; the id columns
// are the authoritative references.
type DefinitionModel struct {
	ID                     int64           `gorm:"primaryKey;autoIncrement"`
	CriteriaID             int64           `gorm:"not null;index"`
	CategoryID             int64           `gorm:"not null"`
	CategoryName           string          `gorm:"size:100;not null"`
	MinAge                 int             `gorm:"not null"`
	MaxAge                 int             `gorm:"not null"`
	ProvisioningPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	LiabilityAccountID     int64           `gorm:"not null"`
	LiabilityAccountCode   string          `gorm:"size:50;not null"`
	LiabilityAccountName   string          `gorm:"size:200;not null"`
	ExpenseAccountID       int64           `gorm:"not null"`
	ExpenseAccountCode     string          `gorm:"size:50;not null"`
	ExpenseAccountName     string          `gorm:"size:200;not null"`
	CreatedAt              time.Time       `gorm:"not null"`
	UpdatedAt              time.Time       `gorm:"not null"`
}

// TableName returns the table name for criteria definitions
func (DefinitionModel) TableName() string {
	return "provisioning_criteria_definitions"
}

// CriteriaProductModel maps the criteria-to-loan-product association. The
// unique index over product_id alone enforces that a product belongs to at
// most one criteria.
type CriteriaProductModel struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	CriteriaID int64 `gorm:"not null;index"`
	ProductID  int64 `gorm:"not null;uniqueIndex:uq_provisioning_criteria_product"`

	Product *LoanProductModel `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for criteria-product mappings
func (CriteriaProductModel) TableName() string {
	return "provisioning_criteria_products"
}

// CategoryModel maps a provisioning category
type CategoryModel struct {
	AggregateModel
	CategoryName        string `gorm:"column:category_name;size:100;not null;uniqueIndex:uq_provisioning_category_name"`
	CategoryDescription string `gorm:"column:category_description;size:500"`
}

// TableName returns the table name for provisioning categories
func (CategoryModel) TableName() string {
	return "provisioning_categories"
}

// GLAccountModel maps the read-side GL account reference table
type GLAccountModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"size:200;not null"`
	GLCode         string `gorm:"column:gl_code;size:50;not null;uniqueIndex"`
	Classification string `gorm:"size:20;not null;index"`
}

// TableName returns the table name for GL accounts
func (GLAccountModel) TableName() string {
	return "gl_accounts"
}

// LoanProductModel maps the read-side loan product reference table
type LoanProductModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:200;not null"`
	ShortName string `gorm:"size:20;not null"`
}

// TableName returns the table name for loan products
func (LoanProductModel) TableName() string {
	return "loan_products"
}

// EntryModel maps computed provisioning entries. This service never writes
// entries; the table exists so deletion of a referenced criteria can be
// blocked and tested.
type EntryModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	CriteriaID int64     `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for provisioning entries
func (EntryModel) TableName() string {
	return "provisioning_entries"
}

// ToDomain converts CriteriaModel to a domain Criteria
func (m *CriteriaModel) ToDomain() *provisioning.Criteria {
	definitions := make([]provisioning.Definition, len(m.Definitions))
	for i, d := range m.Definitions {
		definitions[i] = d.ToDomain()
	}
	products := make([]portfolio.LoanProduct, len(m.Products))
	for i, p := range m.Products {
		products[i] = portfolio.LoanProduct{ID: p.ProductID}
		if p.Product != nil {
			products[i] = *p.Product.ToDomain()
		}
	}
	return &provisioning.Criteria{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CriteriaName:      m.CriteriaName,
		Definitions:       definitions,
		LoanProducts:      products,
	}
}

// ToDomain converts DefinitionModel to a domain Definition
func (m *DefinitionModel) ToDomain() provisioning.Definition {
	return provisioning.Definition{
		ID:                     m.ID,
		CategoryID:             m.CategoryID,
		CategoryName:           m.CategoryName,
		MinAge:                 m.MinAge,
		MaxAge:                 m.MaxAge,
		ProvisioningPercentage: m.ProvisioningPercentage,
		LiabilityAccountID:     m.LiabilityAccountID,
		LiabilityAccountCode:   m.LiabilityAccountCode,
		LiabilityAccountName:   m.LiabilityAccountName,
		ExpenseAccountID:       m.ExpenseAccountID,
		ExpenseAccountCode:     m.ExpenseAccountCode,
		ExpenseAccountName:     m.ExpenseAccountName,
	}
}

// DefinitionModelFromDomain converts a domain Definition to DefinitionModel
func DefinitionModelFromDomain(criteriaID int64, d provisioning.Definition) DefinitionModel {
	return DefinitionModel{
		ID:                     d.ID,
		CriteriaID:             criteriaID,
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

// CriteriaModelFromDomain converts a domain Criteria to CriteriaModel.
// Definitions and product mappings are converted separately by the
// repository, since replacing them is part of the save transaction.
func CriteriaModelFromDomain(c *provisioning.Criteria) *CriteriaModel {
	model := &CriteriaModel{CriteriaName: c.CriteriaName}
	model.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return model
}

// ToDomain converts CategoryModel to a domain Category
func (m *CategoryModel) ToDomain() *provisioning.Category {
	return &provisioning.Category{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		CategoryName:        m.CategoryName,
		CategoryDescription: m.CategoryDescription,
	}
}

// CategoryModelFromDomain converts a domain Category to CategoryModel
func CategoryModelFromDomain(c *provisioning.Category) *CategoryModel {
	model := &CategoryModel{
		CategoryName:        c.CategoryName,
		CategoryDescription: c.CategoryDescription,
	}
	model.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return model
}

// ToDomain converts GLAccountModel to a domain GLAccount
func (m *GLAccountModel) ToDomain() *accounting.GLAccount {
	return &accounting.GLAccount{
		ID:             m.ID,
		Name:           m.Name,
		GLCode:         m.GLCode,
		Classification: accounting.AccountClassification(m.Classification),
	}
}

// ToDomain converts LoanProductModel to a domain LoanProduct
func (m *LoanProductModel) ToDomain() *portfolio.LoanProduct {
	return &portfolio.LoanProduct{
		ID:        m.ID,
		Name:      m.Name,
		ShortName: m.ShortName,
	}
}
