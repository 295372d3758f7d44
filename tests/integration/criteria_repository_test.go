package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/persistence"
)

// TestMain runs before any tests and handles cleanup
func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// refData holds reference rows seeded for criteria tests
type refData struct {
	category  *provisioning.Category
	liability *accounting.GLAccount
	expense   *accounting.GLAccount
}

// seedReferenceData inserts the category and GL accounts that criteria
// definitions reference through foreign keys.
func seedReferenceData(t *testing.T, tdb *TestDB, categoryName string) refData {
	t.Helper()

	categoryID := tdb.CreateTestCategory(categoryName, "seeded for tests")
	category, err := provisioning.NewCategory(categoryName, "seeded for tests")
	require.NoError(t, err)
	category.ID = categoryID

	liabilityID := tdb.CreateTestGLAccount("Loan Loss Reserve", "LLR-"+categoryName, "LIABILITY")
	expenseID := tdb.CreateTestGLAccount("Provisioning Expense", "PEX-"+categoryName, "EXPENSE")

	return refData{
		category: category,
		liability: &accounting.GLAccount{
			ID:             liabilityID,
			Name:           "Loan Loss Reserve",
			GLCode:         "LLR-" + categoryName,
			Classification: accounting.ClassificationLiability,
		},
		expense: &accounting.GLAccount{
			ID:             expenseID,
			Name:           "Provisioning Expense",
			GLCode:         "PEX-" + categoryName,
			Classification: accounting.ClassificationExpense,
		},
	}
}

// buildCriteria assembles a single-band criteria over the given products
func buildCriteria(t *testing.T, name string, refs refData, products ...portfolio.LoanProduct) *provisioning.Criteria {
	t.Helper()

	definition, err := provisioning.NewDefinition(
		refs.category, 0, 30, decimal.NewFromFloat(1.5), refs.liability, refs.expense)
	require.NoError(t, err)

	criteria, err := provisioning.NewCriteria(name, []provisioning.Definition{definition}, products)
	require.NoError(t, err)
	return criteria
}

// TestCriteriaRepository_Integration exercises the criteria repository
// against a real PostgreSQL database.
func TestCriteriaRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormCriteriaRepository(testDB.DB)
	ctx := context.Background()

	refs := seedReferenceData(t, testDB, "TEST-STANDARD")
	productA := portfolio.LoanProduct{ID: testDB.CreateTestLoanProduct("Micro Loan", "ML"), Name: "Micro Loan", ShortName: "ML"}
	productB := portfolio.LoanProduct{ID: testDB.CreateTestLoanProduct("Agri Loan", "AL"), Name: "Agri Loan", ShortName: "AL"}

	t.Run("Save and FindByID", func(t *testing.T) {
		criteria := buildCriteria(t, "Standard Provisioning", refs, productA)

		require.NoError(t, repo.Save(ctx, criteria))
		require.NotZero(t, criteria.ID)

		found, err := repo.FindByID(ctx, criteria.ID)
		require.NoError(t, err)
		assert.Equal(t, "Standard Provisioning", found.CriteriaName)
		require.Len(t, found.Definitions, 1)
		assert.Equal(t, refs.category.ID, found.Definitions[0].CategoryID)
		assert.Equal(t, "TEST-STANDARD", found.Definitions[0].CategoryName)
		assert.Equal(t, refs.liability.GLCode, found.Definitions[0].LiabilityAccountCode)
		assert.Equal(t, refs.expense.GLCode, found.Definitions[0].ExpenseAccountCode)
		assert.True(t, found.Definitions[0].ProvisioningPercentage.Equal(decimal.NewFromFloat(1.5)))
		require.Len(t, found.LoanProducts, 1)
		assert.Equal(t, productA.ID, found.LoanProducts[0].ID)
		assert.Equal(t, "Micro Loan", found.LoanProducts[0].Name)
	})

	t.Run("FindByName", func(t *testing.T) {
		found, err := repo.FindByName(ctx, "Standard Provisioning")
		require.NoError(t, err)
		assert.NotZero(t, found.ID)

		_, err = repo.FindByName(ctx, "No Such Criteria")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate name raises constraint violation", func(t *testing.T) {
		duplicate := buildCriteria(t, "Standard Provisioning", refs)

		err := repo.Save(ctx, duplicate)
		require.Error(t, err)

		var violation *provisioning.ConstraintViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, provisioning.ConstraintCriteriaName, violation.Constraint)

		domainErr, ok := provisioning.TranslateConstraintViolation(violation, duplicate.CriteriaName)
		require.True(t, ok)
		assert.Equal(t, provisioning.CodeDuplicateName, domainErr.Code)
	})

	t.Run("product claimed by another criteria raises constraint violation", func(t *testing.T) {
		contender := buildCriteria(t, "Contender Provisioning", refs, productA)

		err := repo.Save(ctx, contender)
		require.Error(t, err)

		var violation *provisioning.ConstraintViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, provisioning.ConstraintCriteriaProduct, violation.Constraint)

		domainErr, ok := provisioning.TranslateConstraintViolation(violation, contender.CriteriaName)
		require.True(t, ok)
		assert.Equal(t, provisioning.CodeProductAlreadyAssociated, domainErr.Code)
	})

	t.Run("FindAssignedProductIDs excludes the given criteria", func(t *testing.T) {
		holder, err := repo.FindByName(ctx, "Standard Provisioning")
		require.NoError(t, err)

		assigned, err := repo.FindAssignedProductIDs(ctx, 0)
		require.NoError(t, err)
		assert.Contains(t, assigned, productA.ID)
		assert.NotContains(t, assigned, productB.ID)

		assigned, err = repo.FindAssignedProductIDs(ctx, holder.ID)
		require.NoError(t, err)
		assert.NotContains(t, assigned, productA.ID)
	})

	t.Run("FindAll and Count", func(t *testing.T) {
		second := buildCriteria(t, "Seasonal Provisioning", refs, productB)
		require.NoError(t, repo.Save(ctx, second))

		all, err := repo.FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, all, 2)

		count, err := repo.Count(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("update replaces definitions and product mappings", func(t *testing.T) {
		criteria, err := repo.FindByName(ctx, "Seasonal Provisioning")
		require.NoError(t, err)

		band, err := provisioning.NewDefinition(
			refs.category, 30, 90, decimal.NewFromFloat(25), refs.liability, refs.expense)
		require.NoError(t, err)
		criteria.Definitions = append(criteria.Definitions, band)
		criteria.LoanProducts = nil

		require.NoError(t, repo.Save(ctx, criteria))

		reloaded, err := repo.FindByID(ctx, criteria.ID)
		require.NoError(t, err)
		assert.Len(t, reloaded.Definitions, 2)
		assert.Empty(t, reloaded.LoanProducts)
	})

	t.Run("Delete removes the aggregate and its rows", func(t *testing.T) {
		victim := buildCriteria(t, "Short Lived Provisioning", refs)
		require.NoError(t, repo.Save(ctx, victim))

		require.NoError(t, repo.Delete(ctx, victim.ID))

		_, err := repo.FindByID(ctx, victim.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var definitionRows int64
		require.NoError(t, testDB.DB.Raw(
			"SELECT COUNT(*) FROM provisioning_criteria_definitions WHERE criteria_id = ?",
			victim.ID).Scan(&definitionRows).Error)
		assert.Zero(t, definitionRows)
	})

	t.Run("Delete of unknown id reports not found", func(t *testing.T) {
		err := repo.Delete(ctx, 999999)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

// TestEntriesLookup_Integration verifies the deletion guard source of truth.
func TestEntriesLookup_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormCriteriaRepository(testDB.DB)
	lookup := persistence.NewGormEntriesLookup(testDB.DB)
	ctx := context.Background()

	refs := seedReferenceData(t, testDB, "TEST-DOUBTFUL")
	criteria := buildCriteria(t, "Guarded Provisioning", refs)
	require.NoError(t, repo.Save(ctx, criteria))

	exists, err := lookup.ExistsForCriteria(ctx, criteria.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	testDB.CreateTestEntry(criteria.ID)

	exists, err = lookup.ExistsForCriteria(ctx, criteria.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// The schema backs up the application-level guard with ON DELETE RESTRICT
	err = testDB.DB.Exec("DELETE FROM provisioning_criteria WHERE id = ?", criteria.ID).Error
	assert.Error(t, err)
}
