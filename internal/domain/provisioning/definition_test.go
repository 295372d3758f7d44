package provisioning

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

func testCategory(id int64, name string) *Category {
	category, _ := NewCategory(name, "")
	category.ID = id
	return category
}

func testLiability() *accounting.GLAccount {
	return &accounting.GLAccount{ID: 101, Name: "Loan Loss Reserve", GLCode: "2101", Classification: accounting.ClassificationLiability}
}

func testExpense() *accounting.GLAccount {
	return &accounting.GLAccount{ID: 201, Name: "Provision Expense", GLCode: "5101", Classification: accounting.ClassificationExpense}
}

func mustDefinition(t *testing.T, category *Category, minAge, maxAge int, percentage float64) Definition {
	t.Helper()
	d, err := NewDefinition(category, minAge, maxAge, decimal.NewFromFloat(percentage), testLiability(), testExpense())
	require.NoError(t, err)
	return d
}

func TestNewDefinition(t *testing.T) {
	t.Run("snapshots category and account references", func(t *testing.T) {
		d, err := NewDefinition(testCategory(1, "STANDARD"), 0, 90, decimal.NewFromFloat(1.0), testLiability(), testExpense())
		require.NoError(t, err)

		assert.Equal(t, int64(1), d.CategoryID)
		assert.Equal(t, "STANDARD", d.CategoryName)
		assert.Equal(t, int64(101), d.LiabilityAccountID)
		assert.Equal(t, "2101", d.LiabilityAccountCode)
		assert.Equal(t, "Loan Loss Reserve", d.LiabilityAccountName)
		assert.Equal(t, int64(201), d.ExpenseAccountID)
		assert.Equal(t, "5101", d.ExpenseAccountCode)
		assert.Equal(t, "[0,90)", d.AgeBand())
	})

	t.Run("accepts percentage bounds", func(t *testing.T) {
		for _, p := range []float64{0, 100} {
			_, err := NewDefinition(testCategory(1, "STANDARD"), 0, 90, decimal.NewFromFloat(p), testLiability(), testExpense())
			assert.NoError(t, err)
		}
	})

	tests := []struct {
		name       string
		category   *Category
		minAge     int
		maxAge     int
		percentage float64
		liability  *accounting.GLAccount
		expense    *accounting.GLAccount
		field      string
	}{
		{"missing category", nil, 0, 90, 1.0, testLiability(), testExpense(), "categoryId"},
		{"negative min age", testCategory(1, "STANDARD"), -1, 90, 1.0, testLiability(), testExpense(), "minAge"},
		{"negative max age", testCategory(1, "STANDARD"), 0, -5, 1.0, testLiability(), testExpense(), "maxAge"},
		{"min age equals max age", testCategory(1, "STANDARD"), 90, 90, 1.0, testLiability(), testExpense(), "maxAge"},
		{"min age above max age", testCategory(1, "STANDARD"), 120, 90, 1.0, testLiability(), testExpense(), "maxAge"},
		{"negative percentage", testCategory(1, "STANDARD"), 0, 90, -0.5, testLiability(), testExpense(), "provisioningPercentage"},
		{"percentage above 100", testCategory(1, "STANDARD"), 0, 90, 100.5, testLiability(), testExpense(), "provisioningPercentage"},
		{"missing liability account", testCategory(1, "STANDARD"), 0, 90, 1.0, nil, testExpense(), "liabilityAccount"},
		{"liability account not liability-classified", testCategory(1, "STANDARD"), 0, 90, 1.0, testExpense(), testExpense(), "liabilityAccount"},
		{"missing expense account", testCategory(1, "STANDARD"), 0, 90, 1.0, testLiability(), nil, "expenseAccount"},
		{"expense account not expense-classified", testCategory(1, "STANDARD"), 0, 90, 1.0, testLiability(), testLiability(), "expenseAccount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(tt.category, tt.minAge, tt.maxAge, decimal.NewFromFloat(tt.percentage), tt.liability, tt.expense)
			require.Error(t, err)

			domainErr, ok := err.(*shared.DomainError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
			assert.Equal(t, tt.field, domainErr.Field)
		})
	}
}

func TestDefinition_Overlaps(t *testing.T) {
	standard := testCategory(1, "STANDARD")
	doubtful := testCategory(2, "DOUBTFUL")

	tests := []struct {
		name     string
		a, b     Definition
		overlaps bool
	}{
		{
			name:     "adjacent bands do not overlap",
			a:        mustDefinition(t, standard, 0, 90, 1),
			b:        mustDefinition(t, standard, 90, 180, 5),
			overlaps: false,
		},
		{
			name:     "intersecting bands overlap",
			a:        mustDefinition(t, standard, 0, 90, 1),
			b:        mustDefinition(t, standard, 60, 180, 5),
			overlaps: true,
		},
		{
			name:     "contained band overlaps",
			a:        mustDefinition(t, standard, 0, 365, 1),
			b:        mustDefinition(t, standard, 30, 60, 5),
			overlaps: true,
		},
		{
			name:     "identical ranges of different categories do not overlap",
			a:        mustDefinition(t, standard, 0, 90, 1),
			b:        mustDefinition(t, doubtful, 0, 90, 50),
			overlaps: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.overlaps, tt.b.Overlaps(tt.a))
		})
	}
}

func TestDefinition_Diff(t *testing.T) {
	standard := testCategory(1, "STANDARD")
	base := mustDefinition(t, standard, 0, 90, 1)

	t.Run("identical definitions produce no changes", func(t *testing.T) {
		assert.True(t, base.diff(base).IsEmpty())
	})

	t.Run("percentage change is reported", func(t *testing.T) {
		changed := mustDefinition(t, standard, 0, 90, 2.5)
		changes := base.diff(changed)
		assert.True(t, changes.Contains("provisioningPercentage"))
		assert.Len(t, changes.Fields(), 1)
	})

	t.Run("renamed account counts as a change", func(t *testing.T) {
		renamed := testLiability()
		renamed.Name = "Loan Loss Reserve (Restated)"
		changed, err := NewDefinition(standard, 0, 90, decimal.NewFromFloat(1), renamed, testExpense())
		require.NoError(t, err)

		changes := base.diff(changed)
		assert.True(t, changes.Contains("liabilityAccount"))
	})
}
