package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
)

func TestClassifyConstraint_PgConn(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		constraint string
		classified bool
	}{
		{"unique violation", "23505", provisioning.ConstraintCriteriaName, true},
		{"foreign key violation", "23503", "fk_definition_category", true},
		{"check violation", "23514", "chk_age_range", true},
		{"syntax error passes through", "42601", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := &pgconn.PgError{Code: tt.code, ConstraintName: tt.constraint, Message: "driver message"}
			err := classifyConstraint(fmt.Errorf("save failed: %w", cause))

			var violation *provisioning.ConstraintViolation
			if !tt.classified {
				assert.False(t, errors.As(err, &violation))
				return
			}
			require.True(t, errors.As(err, &violation))
			assert.Equal(t, tt.constraint, violation.Constraint)
			assert.ErrorIs(t, violation, cause)
		})
	}
}

func TestClassifyConstraint_Pq(t *testing.T) {
	cause := &pq.Error{Code: "23505", Constraint: provisioning.ConstraintCriteriaProduct}
	err := classifyConstraint(fmt.Errorf("save failed: %w", cause))

	var violation *provisioning.ConstraintViolation
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, provisioning.ConstraintCriteriaProduct, violation.Constraint)
}

func TestClassifyConstraint_GormDuplicatedKey(t *testing.T) {
	err := classifyConstraint(fmt.Errorf("save failed: %w", gorm.ErrDuplicatedKey))

	var violation *provisioning.ConstraintViolation
	require.True(t, errors.As(err, &violation))
	assert.Empty(t, violation.Constraint)
}

func TestClassifyConstraint_PassThrough(t *testing.T) {
	assert.NoError(t, classifyConstraint(nil))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classifyConstraint(plain))
}

func TestClassifyConstraint_TranslatesToDomainError(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", ConstraintName: provisioning.ConstraintCriteriaName}
	err := classifyConstraint(cause)

	var violation *provisioning.ConstraintViolation
	require.True(t, errors.As(err, &violation))

	domainErr, recognized := provisioning.TranslateConstraintViolation(violation, "Standard")
	assert.True(t, recognized)
	assert.Equal(t, provisioning.CodeDuplicateName, domainErr.Code)
}
