package provisioning

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

func testCriteria(t *testing.T) *Criteria {
	t.Helper()
	standard := testCategory(1, "STANDARD")
	first := mustDefinition(t, standard, 0, 90, 1)
	first.ID = 10
	second := mustDefinition(t, standard, 90, 180, 5)
	second.ID = 11

	criteria, err := NewCriteria("Standard", []Definition{first, second},
		[]portfolio.LoanProduct{{ID: 7, Name: "Agri Loan"}})
	require.NoError(t, err)
	criteria.ID = 5
	return criteria
}

func TestNewCriteria(t *testing.T) {
	t.Run("creates criteria with sorted definitions", func(t *testing.T) {
		standard := testCategory(1, "STANDARD")
		later := mustDefinition(t, standard, 90, 180, 5)
		earlier := mustDefinition(t, standard, 0, 90, 1)

		criteria, err := NewCriteria("Standard", []Definition{later, earlier}, nil)
		require.NoError(t, err)

		assert.Equal(t, "Standard", criteria.CriteriaName)
		assert.Equal(t, 0, criteria.Definitions[0].MinAge)
		assert.Equal(t, 90, criteria.Definitions[1].MinAge)
		assert.Empty(t, criteria.LoanProducts)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCriteria("", []Definition{mustDefinition(t, testCategory(1, "STANDARD"), 0, 90, 1)}, nil)
		require.Error(t, err)
	})

	t.Run("fails with overlong name", func(t *testing.T) {
		name := strings.Repeat("x", MaxCriteriaNameLength+1)
		_, err := NewCriteria(name, []Definition{mustDefinition(t, testCategory(1, "STANDARD"), 0, 90, 1)}, nil)
		require.Error(t, err)
	})

	t.Run("fails without definitions", func(t *testing.T) {
		_, err := NewCriteria("Standard", nil, nil)
		require.Error(t, err)

		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	})

	t.Run("fails with overlapping bands of the same category", func(t *testing.T) {
		standard := testCategory(1, "STANDARD")
		_, err := NewCriteria("Standard", []Definition{
			mustDefinition(t, standard, 0, 90, 1),
			mustDefinition(t, standard, 60, 180, 5),
		}, nil)
		require.Error(t, err)

		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
		assert.Contains(t, domainErr.Message, "overlap")
	})

	t.Run("allows identical ranges across categories", func(t *testing.T) {
		_, err := NewCriteria("Standard", []Definition{
			mustDefinition(t, testCategory(1, "STANDARD"), 0, 90, 1),
			mustDefinition(t, testCategory(2, "DOUBTFUL"), 0, 90, 50),
		}, nil)
		assert.NoError(t, err)
	})
}

func TestCriteria_ApplyUpdate(t *testing.T) {
	t.Run("no-op command yields empty change set", func(t *testing.T) {
		criteria := testCriteria(t)
		name := "Standard"

		next, changes, err := criteria.ApplyUpdate(UpdateCommand{Name: &name})
		require.NoError(t, err)
		assert.True(t, changes.IsEmpty())
		assert.Equal(t, criteria.Version, next.Version)
	})

	t.Run("name change is recorded and applied to the new snapshot only", func(t *testing.T) {
		criteria := testCriteria(t)
		name := "Standard Loans"

		next, changes, err := criteria.ApplyUpdate(UpdateCommand{Name: &name})
		require.NoError(t, err)

		assert.True(t, changes.Contains("criteriaName"))
		assert.Equal(t, "Standard Loans", next.CriteriaName)
		assert.Equal(t, "Standard", criteria.CriteriaName)
		assert.Equal(t, criteria.Version+1, next.Version)
	})

	t.Run("product set is compared as a set", func(t *testing.T) {
		criteria := testCriteria(t)

		// same single product, different slice
		_, changes, err := criteria.ApplyUpdate(UpdateCommand{
			LoanProducts: []portfolio.LoanProduct{{ID: 7, Name: "Agri Loan"}},
		})
		require.NoError(t, err)
		assert.True(t, changes.IsEmpty())

		_, changes, err = criteria.ApplyUpdate(UpdateCommand{
			LoanProducts: []portfolio.LoanProduct{{ID: 7}, {ID: 8}},
		})
		require.NoError(t, err)
		assert.True(t, changes.Contains("loanProducts"))
		assert.Equal(t, []int64{7, 8}, changes["loanProducts"])
	})

	t.Run("empty product list clears the associations", func(t *testing.T) {
		criteria := testCriteria(t)

		next, changes, err := criteria.ApplyUpdate(UpdateCommand{LoanProducts: []portfolio.LoanProduct{}})
		require.NoError(t, err)
		assert.True(t, changes.Contains("loanProducts"))
		assert.Empty(t, next.LoanProducts)
		assert.Len(t, criteria.LoanProducts, 1)
	})

	t.Run("definitions are diffed independently of the header", func(t *testing.T) {
		criteria := testCriteria(t)
		name := "Standard" // unchanged
		id := int64(10)

		next, changes, err := criteria.ApplyUpdate(UpdateCommand{
			Name: &name,
			Definitions: []DefinitionPatch{{
				ID:               &id,
				Category:         testCategory(1, "STANDARD"),
				MinAge:           0,
				MaxAge:           90,
				Percentage:       decimal.NewFromFloat(2.5),
				LiabilityAccount: testLiability(),
				ExpenseAccount:   testExpense(),
			}},
		})
		require.NoError(t, err)

		assert.False(t, changes.IsEmpty())
		assert.True(t, changes.Contains("definitions"))
		assert.False(t, changes.Contains("criteriaName"))
		assert.True(t, next.Definitions[0].ProvisioningPercentage.Equal(decimal.NewFromFloat(2.5)))
		assert.True(t, criteria.Definitions[0].ProvisioningPercentage.Equal(decimal.NewFromFloat(1)))
	})

	t.Run("patch without id appends a new band", func(t *testing.T) {
		criteria := testCriteria(t)

		next, changes, err := criteria.ApplyUpdate(UpdateCommand{
			Definitions: []DefinitionPatch{{
				Category:         testCategory(1, "STANDARD"),
				MinAge:           180,
				MaxAge:           365,
				Percentage:       decimal.NewFromFloat(25),
				LiabilityAccount: testLiability(),
				ExpenseAccount:   testExpense(),
			}},
		})
		require.NoError(t, err)

		assert.True(t, changes.Contains("definitions"))
		assert.Len(t, next.Definitions, 3)
		assert.Len(t, criteria.Definitions, 2)
	})

	t.Run("identical band added for two categories reports both", func(t *testing.T) {
		criteria := testCriteria(t)

		next, changes, err := criteria.ApplyUpdate(UpdateCommand{
			Definitions: []DefinitionPatch{
				{
					Category:         testCategory(2, "DOUBTFUL"),
					MinAge:           180,
					MaxAge:           365,
					Percentage:       decimal.NewFromFloat(50),
					LiabilityAccount: testLiability(),
					ExpenseAccount:   testExpense(),
				},
				{
					Category:         testCategory(3, "LOSS"),
					MinAge:           180,
					MaxAge:           365,
					Percentage:       decimal.NewFromFloat(100),
					LiabilityAccount: testLiability(),
					ExpenseAccount:   testExpense(),
				},
			},
		})
		require.NoError(t, err)

		defChanges, ok := changes["definitions"].(map[string]shared.ChangeSet)
		require.True(t, ok)
		assert.Len(t, defChanges, 2)
		assert.Len(t, next.Definitions, 4)
	})

	t.Run("patch with unknown id fails with not found", func(t *testing.T) {
		criteria := testCriteria(t)
		id := int64(999)

		_, _, err := criteria.ApplyUpdate(UpdateCommand{
			Definitions: []DefinitionPatch{{
				ID:               &id,
				Category:         testCategory(1, "STANDARD"),
				MinAge:           0,
				MaxAge:           90,
				Percentage:       decimal.NewFromFloat(1),
				LiabilityAccount: testLiability(),
				ExpenseAccount:   testExpense(),
			}},
		})
		require.Error(t, err)

		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, shared.ErrNotFound.Code, domainErr.Code)
	})

	t.Run("patch introducing an overlap fails", func(t *testing.T) {
		criteria := testCriteria(t)
		id := int64(10)

		// stretch the first band over the second
		_, _, err := criteria.ApplyUpdate(UpdateCommand{
			Definitions: []DefinitionPatch{{
				ID:               &id,
				Category:         testCategory(1, "STANDARD"),
				MinAge:           0,
				MaxAge:           120,
				Percentage:       decimal.NewFromFloat(1),
				LiabilityAccount: testLiability(),
				ExpenseAccount:   testExpense(),
			}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overlap")
	})
}

func TestCriteria_DefinitionsForCategory(t *testing.T) {
	criteria := testCriteria(t)

	bands := criteria.DefinitionsForCategory(1)
	assert.Len(t, bands, 2)
	assert.Empty(t, criteria.DefinitionsForCategory(2))
}

func TestCriteria_HasProduct(t *testing.T) {
	criteria := testCriteria(t)

	assert.True(t, criteria.HasProduct(7))
	assert.False(t, criteria.HasProduct(8))
}
