package provisioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
)

func TestTemplateService_Template(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	criteriaRepo := new(MockCriteriaRepository)
	accounts := new(MockAccountResolver)
	products := new(MockLoanProductResolver)

	categoryRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return([]provisioning.Category{*standardCategory()}, nil)
	accounts.On("FindByClassification", mock.Anything, accounting.ClassificationLiability).
		Return([]accounting.GLAccount{*liabilityAccount()}, nil)
	accounts.On("FindByClassification", mock.Anything, accounting.ClassificationExpense).
		Return([]accounting.GLAccount{*expenseAccount()}, nil)
	products.On("FindAll", mock.Anything).Return([]portfolio.LoanProduct{
		{ID: 7, Name: "Agri Loan", ShortName: "AGRI"},
		{ID: 8, Name: "SME Loan", ShortName: "SME"},
	}, nil)
	criteriaRepo.On("FindAssignedProductIDs", mock.Anything, int64(0)).Return([]int64{7}, nil)

	service := NewTemplateService(categoryRepo, criteriaRepo, accounts, products)
	resp, err := service.Template(context.Background(), 0)

	assert.NoError(t, err)
	assert.Len(t, resp.Categories, 1)
	assert.Len(t, resp.LiabilityAccounts, 1)
	assert.Equal(t, "2101", resp.LiabilityAccounts[0].GLCode)
	assert.Len(t, resp.ExpenseAccounts, 1)

	// product 7 is already covered by another criteria
	assert.Len(t, resp.LoanProducts, 1)
	assert.Equal(t, int64(8), resp.LoanProducts[0].ID)
}

func TestTemplateService_Template_ForEdit(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	criteriaRepo := new(MockCriteriaRepository)
	accounts := new(MockAccountResolver)
	products := new(MockLoanProductResolver)

	categoryRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return([]provisioning.Category{}, nil)
	accounts.On("FindByClassification", mock.Anything, accounting.ClassificationLiability).
		Return([]accounting.GLAccount{}, nil)
	accounts.On("FindByClassification", mock.Anything, accounting.ClassificationExpense).
		Return([]accounting.GLAccount{}, nil)
	products.On("FindAll", mock.Anything).Return([]portfolio.LoanProduct{
		{ID: 7, Name: "Agri Loan"},
	}, nil)
	// products of criteria 5 itself stay selectable when editing it
	criteriaRepo.On("FindAssignedProductIDs", mock.Anything, int64(5)).Return([]int64{}, nil)

	service := NewTemplateService(categoryRepo, criteriaRepo, accounts, products)
	resp, err := service.Template(context.Background(), 5)

	assert.NoError(t, err)
	assert.Len(t, resp.LoanProducts, 1)
}
