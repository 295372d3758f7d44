package provisioning

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
)

// MaxCriteriaNameLength mirrors the length of the name column.
const MaxCriteriaNameLength = 200

// Criteria is the provisioning criteria aggregate root. It owns an ordered
// set of age-band definitions and the loan products the criteria applies to.
// A loan product belongs to at most one criteria; the store enforces that
// with a unique constraint over the mapping table.
type Criteria struct {
	shared.BaseAggregateRoot
	CriteriaName string
	Definitions  []Definition
	LoanProducts []portfolio.LoanProduct
}

// NewCriteria creates a criteria from already-resolved definitions and
// products. At least one definition is required; the product list may be
// empty, in which case the criteria exists but applies to nothing yet.
func NewCriteria(name string, definitions []Definition, products []portfolio.LoanProduct) (*Criteria, error) {
	if err := validateCriteriaName(name); err != nil {
		return nil, err
	}
	if len(definitions) == 0 {
		return nil, shared.NewValidationError("definitions", "at least one provisioning definition is required")
	}
	if err := validateNoOverlap(definitions); err != nil {
		return nil, err
	}

	return &Criteria{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CriteriaName:      name,
		Definitions:       sortDefinitions(definitions),
		LoanProducts:      append([]portfolio.LoanProduct(nil), products...),
	}, nil
}

// DefinitionPatch describes one age band of an update request after its
// references have been resolved. A nil ID means the band is new; a non-nil
// ID must match an existing definition of the criteria.
type DefinitionPatch struct {
	ID               *int64
	Category         *Category
	MinAge           int
	MaxAge           int
	Percentage       decimal.Decimal
	LiabilityAccount *accounting.GLAccount
	ExpenseAccount   *accounting.GLAccount
}

// UpdateCommand carries the resolved fields of an update request. Nil slices
// and pointers mean "leave untouched"; an empty LoanProducts slice clears
// the product associations.
type UpdateCommand struct {
	Name         *string
	LoanProducts []portfolio.LoanProduct
	Definitions  []DefinitionPatch
}

// ApplyUpdate computes the difference between the stored state and the
// command and returns a new criteria snapshot together with the change set.
// The receiver is never mutated. An empty change set means the command was
// a no-op and nothing needs to be written.
//
// Header fields and definitions are diffed independently: a command that
// only touches definitions still yields definition changes even when the
// name and product list are untouched.
func (c *Criteria) ApplyUpdate(cmd UpdateCommand) (*Criteria, shared.ChangeSet, error) {
	next := c.clone()
	changes := shared.NewChangeSet()

	if cmd.Name != nil && *cmd.Name != c.CriteriaName {
		if err := validateCriteriaName(*cmd.Name); err != nil {
			return nil, nil, err
		}
		next.CriteriaName = *cmd.Name
		changes.Set("criteriaName", *cmd.Name)
	}

	if cmd.LoanProducts != nil {
		if !sameProductSet(c.LoanProducts, cmd.LoanProducts) {
			next.LoanProducts = append([]portfolio.LoanProduct(nil), cmd.LoanProducts...)
			changes.Set("loanProducts", productIDs(cmd.LoanProducts))
		}
	}

	if cmd.Definitions != nil {
		defChanges, updated, err := c.patchDefinitions(cmd.Definitions)
		if err != nil {
			return nil, nil, err
		}
		if len(defChanges) > 0 {
			if err := validateNoOverlap(updated); err != nil {
				return nil, nil, err
			}
			next.Definitions = sortDefinitions(updated)
			changes.Set("definitions", defChanges)
		}
	}

	if !changes.IsEmpty() {
		next.UpdatedAt = time.Now()
		next.IncrementVersion()
	}
	return next, changes, nil
}

// patchDefinitions merges the patches into the current band set. Bands not
// named by any patch survive unchanged; patches with an unknown ID fail the
// whole update.
func (c *Criteria) patchDefinitions(patches []DefinitionPatch) (map[string]shared.ChangeSet, []Definition, error) {
	byID := make(map[int64]Definition, len(c.Definitions))
	for _, d := range c.Definitions {
		if d.ID != 0 {
			byID[d.ID] = d
		}
	}

	defChanges := make(map[string]shared.ChangeSet)
	patched := make(map[int64]Definition)
	var added []Definition

	for _, p := range patches {
		candidate, err := NewDefinition(p.Category, p.MinAge, p.MaxAge, p.Percentage, p.LiabilityAccount, p.ExpenseAccount)
		if err != nil {
			return nil, nil, err
		}
		if p.ID == nil {
			// keyed by category as well: different categories may add
			// identical age bands in one command
			key := fmt.Sprintf("category:%d:band[%d,%d)", candidate.CategoryID, candidate.MinAge, candidate.MaxAge)
			bandSet := shared.NewChangeSet()
			bandSet.Set("added", candidate.AgeBand())
			defChanges[key] = bandSet
			added = append(added, candidate)
			continue
		}

		current, ok := byID[*p.ID]
		if !ok {
			return nil, nil, shared.NewDomainError(
				shared.ErrNotFound.Code,
				fmt.Sprintf("provisioning definition with id %d does not belong to criteria %q", *p.ID, c.CriteriaName),
			)
		}
		candidate.ID = *p.ID
		if bandSet := current.diff(candidate); !bandSet.IsEmpty() {
			defChanges[fmt.Sprintf("id:%d", *p.ID)] = bandSet
		}
		patched[*p.ID] = candidate
	}

	updated := make([]Definition, 0, len(c.Definitions)+len(added))
	for _, d := range c.Definitions {
		if replacement, ok := patched[d.ID]; ok && d.ID != 0 {
			updated = append(updated, replacement)
			continue
		}
		updated = append(updated, d)
	}
	updated = append(updated, added...)

	return defChanges, updated, nil
}

func (c *Criteria) clone() *Criteria {
	dup := *c
	dup.Definitions = append([]Definition(nil), c.Definitions...)
	dup.LoanProducts = append([]portfolio.LoanProduct(nil), c.LoanProducts...)
	return &dup
}

// DefinitionsForCategory returns the bands of one category ordered by age.
func (c *Criteria) DefinitionsForCategory(categoryID int64) []Definition {
	var out []Definition
	for _, d := range c.Definitions {
		if d.CategoryID == categoryID {
			out = append(out, d)
		}
	}
	return out
}

// HasProduct reports whether the criteria covers the given loan product.
func (c *Criteria) HasProduct(productID int64) bool {
	for _, p := range c.LoanProducts {
		if p.ID == productID {
			return true
		}
	}
	return false
}

func validateCriteriaName(name string) error {
	if name == "" {
		return shared.NewValidationError("criteriaName", "criteria name is required")
	}
	if len(name) > MaxCriteriaNameLength {
		return shared.NewValidationError("criteriaName",
			fmt.Sprintf("criteria name exceeds %d characters", MaxCriteriaNameLength))
	}
	return nil
}

// validateNoOverlap rejects band sets where two definitions of the same
// category cover a shared age range. Bands of different categories may
// overlap freely.
func validateNoOverlap(definitions []Definition) error {
	byCategory := make(map[int64][]Definition)
	for _, d := range definitions {
		byCategory[d.CategoryID] = append(byCategory[d.CategoryID], d)
	}
	for _, bands := range byCategory {
		sort.Slice(bands, func(i, j int) bool { return bands[i].MinAge < bands[j].MinAge })
		for i := 1; i < len(bands); i++ {
			if bands[i-1].Overlaps(bands[i]) {
				return shared.NewValidationError("definitions", fmt.Sprintf(
					"age bands %s and %s overlap for category %q",
					bands[i-1].AgeBand(), bands[i].AgeBand(), bands[i].CategoryName))
			}
		}
	}
	return nil
}

func sortDefinitions(definitions []Definition) []Definition {
	out := append([]Definition(nil), definitions...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].MinAge < out[j].MinAge
	})
	return out
}

func sameProductSet(a, b []portfolio.LoanProduct) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int64]struct{}, len(a))
	for _, p := range a {
		seen[p.ID] = struct{}{}
	}
	for _, p := range b {
		if _, ok := seen[p.ID]; !ok {
			return false
		}
	}
	return true
}

func productIDs(products []portfolio.LoanProduct) []int64 {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
