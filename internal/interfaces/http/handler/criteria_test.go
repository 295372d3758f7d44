package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	provapp "github.com/jrobgood/fineract-poc/internal/application/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/accounting"
	"github.com/jrobgood/fineract-poc/internal/domain/portfolio"
	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
	"github.com/jrobgood/fineract-poc/internal/interfaces/http/middleware"
)

// In-memory stubs backing the application services under the handlers.

type stubCriteriaRepo struct {
	byID     map[int64]*provisioning.Criteria
	saveErr  error
	saved    *provisioning.Criteria
	deleted  []int64
	assigned []int64
}

func (r *stubCriteriaRepo) FindByID(ctx context.Context, id int64) (*provisioning.Criteria, error) {
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *stubCriteriaRepo) FindByName(ctx context.Context, name string) (*provisioning.Criteria, error) {
	for _, c := range r.byID {
		if c.CriteriaName == name {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubCriteriaRepo) FindAll(ctx context.Context, filter shared.Filter) ([]provisioning.Criteria, error) {
	out := make([]provisioning.Criteria, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCriteriaRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return int64(len(r.byID)), nil
}

func (r *stubCriteriaRepo) Save(ctx context.Context, criteria *provisioning.Criteria) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if criteria.ID == 0 {
		criteria.ID = int64(len(r.byID) + 1)
	}
	if r.byID == nil {
		r.byID = make(map[int64]*provisioning.Criteria)
	}
	r.byID[criteria.ID] = criteria
	r.saved = criteria
	return nil
}

func (r *stubCriteriaRepo) Delete(ctx context.Context, id int64) error {
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubCriteriaRepo) FindAssignedProductIDs(ctx context.Context, excludeCriteriaID int64) ([]int64, error) {
	return r.assigned, nil
}

type stubEntriesLookup struct {
	exists bool
	err    error
}

func (s *stubEntriesLookup) ExistsForCriteria(ctx context.Context, criteriaID int64) (bool, error) {
	return s.exists, s.err
}

type stubCategoryResolver struct {
	categories map[int64]*provisioning.Category
}

func (s *stubCategoryResolver) Resolve(ctx context.Context, id int64) (*provisioning.Category, error) {
	if c, ok := s.categories[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

type stubAccountResolver struct {
	accounts map[int64]*accounting.GLAccount
}

func (s *stubAccountResolver) Resolve(ctx context.Context, id int64) (*accounting.GLAccount, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubAccountResolver) FindByClassification(ctx context.Context, classification accounting.AccountClassification) ([]accounting.GLAccount, error) {
	var out []accounting.GLAccount
	for _, a := range s.accounts {
		if a.Classification == classification {
			out = append(out, *a)
		}
	}
	return out, nil
}

type stubProductResolver struct {
	products map[int64]*portfolio.LoanProduct
}

func (s *stubProductResolver) Resolve(ctx context.Context, id int64) (*portfolio.LoanProduct, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubProductResolver) FindAll(ctx context.Context) ([]portfolio.LoanProduct, error) {
	out := make([]portfolio.LoanProduct, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

// criteriaHarness wires a CriteriaHandler over in-memory stubs with the
// standard reference data: category 1, liability account 101, expense
// account 201, loan products 11 and 12.
type criteriaHarness struct {
	handler  *CriteriaHandler
	repo     *stubCriteriaRepo
	entries  *stubEntriesLookup
	router   *gin.Engine
	category *provisioning.Category
}

func newCriteriaHarness(t *testing.T) *criteriaHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	category, err := provisioning.NewCategory("STANDARD", "Performing loans")
	require.NoError(t, err)
	category.ID = 1

	repo := &stubCriteriaRepo{byID: make(map[int64]*provisioning.Criteria)}
	entries := &stubEntriesLookup{}
	categories := &stubCategoryResolver{categories: map[int64]*provisioning.Category{1: category}}
	accounts := &stubAccountResolver{accounts: map[int64]*accounting.GLAccount{
		101: {ID: 101, Name: "Loan Loss Reserve", GLCode: "LLR-101", Classification: accounting.ClassificationLiability},
		201: {ID: 201, Name: "Provision Expense", GLCode: "PEX-201", Classification: accounting.ClassificationExpense},
	}}
	products := &stubProductResolver{products: map[int64]*portfolio.LoanProduct{
		11: {ID: 11, Name: "Micro Loan", ShortName: "ML"},
		12: {ID: 12, Name: "Agri Loan", ShortName: "AL"},
	}}

	assembler := provapp.NewCriteriaAssembler(categories, accounts, products)
	criteriaService := provapp.NewCriteriaService(repo, entries, assembler, zap.NewNop())
	categoryRepo := &stubCategoryRepo{byID: map[int64]*provisioning.Category{1: category}}
	templateService := provapp.NewTemplateService(categoryRepo, repo, accounts, products)

	h := NewCriteriaHandler(criteriaService, templateService)

	router := gin.New()
	group := router.Group("/api/v1/provisioning")
	group.POST("/criteria", h.Create)
	group.GET("/criteria", h.List)
	group.GET("/criteria/template", h.Template)
	group.GET("/criteria/:id", h.GetByID)
	group.PUT("/criteria/:id", h.Update)
	group.DELETE("/criteria/:id", h.Delete)

	return &criteriaHarness{handler: h, repo: repo, entries: entries, router: router, category: category}
}

func (h *criteriaHarness) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *criteriaHarness) seedCriteria(t *testing.T) *provisioning.Criteria {
	t.Helper()
	definition, err := provisioning.NewDefinition(h.category, 0, 90, decimal.NewFromFloat(1.0),
		&accounting.GLAccount{ID: 101, Name: "Loan Loss Reserve", GLCode: "LLR-101", Classification: accounting.ClassificationLiability},
		&accounting.GLAccount{ID: 201, Name: "Provision Expense", GLCode: "PEX-201", Classification: accounting.ClassificationExpense})
	require.NoError(t, err)
	definition.ID = 10

	criteria, err := provisioning.NewCriteria("Standard", []provisioning.Definition{definition},
		[]portfolio.LoanProduct{{ID: 11, Name: "Micro Loan", ShortName: "ML"}})
	require.NoError(t, err)
	require.NoError(t, h.repo.Save(context.Background(), criteria))
	return criteria
}

const createPayload = `{
	"criteria_name": "Standard",
	"definitions": [
		{"category_id": 1, "min_age": 0, "max_age": 90, "provisioning_percentage": "1.0",
		 "liability_account_id": 101, "expense_account_id": 201}
	],
	"loan_product_ids": [11]
}`

func TestCriteriaHandler_Create(t *testing.T) {
	t.Run("valid payload returns 201 with generated id", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("POST", "/api/v1/provisioning/criteria", createPayload)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				ID int64 `json:"id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(1), resp.Data.ID)
		require.NotNil(t, h.repo.saved)
		assert.Equal(t, "Standard", h.repo.saved.CriteriaName)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("POST", "/api/v1/provisioning/criteria", `{"criteria_name": `)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing criteria_name returns validation error", func(t *testing.T) {
		h := newCriteriaHarness(t)

		payload := `{"definitions": [{"category_id": 1, "max_age": 90, "liability_account_id": 101, "expense_account_id": 201}]}`
		w := h.do("POST", "/api/v1/provisioning/criteria", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		assert.Contains(t, w.Body.String(), "criteria_name")
	})

	t.Run("empty definitions returns validation error", func(t *testing.T) {
		h := newCriteriaHarness(t)

		payload := `{"criteria_name": "Standard", "definitions": []}`
		w := h.do("POST", "/api/v1/provisioning/criteria", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown category returns 404", func(t *testing.T) {
		h := newCriteriaHarness(t)

		payload := strings.Replace(createPayload, `"category_id": 1`, `"category_id": 999`, 1)
		w := h.do("POST", "/api/v1/provisioning/criteria", payload)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})

	t.Run("overlapping bands return validation error", func(t *testing.T) {
		h := newCriteriaHarness(t)

		payload := `{
			"criteria_name": "Overlapping",
			"definitions": [
				{"category_id": 1, "min_age": 0, "max_age": 90, "provisioning_percentage": "1.0",
				 "liability_account_id": 101, "expense_account_id": 201},
				{"category_id": 1, "min_age": 60, "max_age": 180, "provisioning_percentage": "5.0",
				 "liability_account_id": 101, "expense_account_id": 201}
			]
		}`
		w := h.do("POST", "/api/v1/provisioning/criteria", payload)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("duplicate name constraint returns 409", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.repo.saveErr = &provisioning.ConstraintViolation{
			Constraint: provisioning.ConstraintCriteriaName,
			Cause:      assert.AnError,
		}

		w := h.do("POST", "/api/v1/provisioning/criteria", createPayload)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_NAME")
	})

	t.Run("product already associated returns 409", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.repo.saveErr = &provisioning.ConstraintViolation{
			Constraint: provisioning.ConstraintCriteriaProduct,
			Cause:      assert.AnError,
		}

		w := h.do("POST", "/api/v1/provisioning/criteria", createPayload)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PRODUCT_ALREADY_ASSOCIATED")
	})

	t.Run("unrecognized constraint returns 500", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.repo.saveErr = &provisioning.ConstraintViolation{
			Constraint: "chk_some_unmapped_constraint",
			Cause:      assert.AnError,
		}

		w := h.do("POST", "/api/v1/provisioning/criteria", createPayload)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "DATA_INTEGRITY_VIOLATION")
	})
}

func TestCriteriaHandler_GetByID(t *testing.T) {
	t.Run("returns the full aggregate", func(t *testing.T) {
		h := newCriteriaHarness(t)
		seeded := h.seedCriteria(t)

		w := h.do("GET", "/api/v1/provisioning/criteria/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data provapp.CriteriaResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, seeded.ID, resp.Data.ID)
		assert.Equal(t, "Standard", resp.Data.CriteriaName)
		assert.Len(t, resp.Data.Definitions, 1)
		assert.Len(t, resp.Data.LoanProducts, 1)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("GET", "/api/v1/provisioning/criteria/99", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("GET", "/api/v1/provisioning/criteria/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCriteriaHandler_List(t *testing.T) {
	t.Run("returns items with pagination meta", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.seedCriteria(t)

		w := h.do("GET", "/api/v1/provisioning/criteria?page=1&page_size=10", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []provapp.CriteriaListResponse `json:"data"`
			Meta struct {
				Total    int64 `json:"total"`
				Page     int   `json:"page"`
				PageSize int   `json:"page_size"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, 1, resp.Data[0].DefinitionCount)
		assert.Equal(t, int64(1), resp.Meta.Total)
		assert.Equal(t, 10, resp.Meta.PageSize)
	})

	t.Run("defaults pagination when absent", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("GET", "/api/v1/provisioning/criteria", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"page_size":20`)
	})
}

func TestCriteriaHandler_Template(t *testing.T) {
	t.Run("returns categories, accounts and unassigned products", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.repo.assigned = []int64{11}

		w := h.do("GET", "/api/v1/provisioning/criteria/template", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data provapp.TemplateResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data.Categories, 1)
		assert.Len(t, resp.Data.LiabilityAccounts, 1)
		assert.Len(t, resp.Data.ExpenseAccounts, 1)
		require.Len(t, resp.Data.LoanProducts, 1)
		assert.Equal(t, int64(12), resp.Data.LoanProducts[0].ID)
	})

	t.Run("invalid exclude_criteria_id returns 400", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("GET", "/api/v1/provisioning/criteria/template?exclude_criteria_id=zero", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCriteriaHandler_Update(t *testing.T) {
	t.Run("changed percentage is applied and reported", func(t *testing.T) {
		h := newCriteriaHarness(t)
		seeded := h.seedCriteria(t)
		defID := seeded.Definitions[0].ID

		payload := `{
			"definitions": [
				{"id": ` + jsonInt(defID) + `, "category_id": 1, "min_age": 0, "max_age": 90,
				 "provisioning_percentage": "2.5", "liability_account_id": 101, "expense_account_id": 201}
			]
		}`
		w := h.do("PUT", "/api/v1/provisioning/criteria/1", payload)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data provapp.CommandResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, seeded.ID, resp.Data.ID)
		assert.Contains(t, resp.Data.Changes, "definitions")
	})

	t.Run("no-op update reports empty changes", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.seedCriteria(t)

		w := h.do("PUT", "/api/v1/provisioning/criteria/1", `{"criteria_name": "Standard"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data provapp.CommandResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data.Changes)
	})

	t.Run("unknown criteria returns 404", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("PUT", "/api/v1/provisioning/criteria/42", `{"criteria_name": "Renamed"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCriteriaHandler_Delete(t *testing.T) {
	t.Run("removes criteria without entries", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.seedCriteria(t)

		w := h.do("DELETE", "/api/v1/provisioning/criteria/1", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []int64{1}, h.repo.deleted)
	})

	t.Run("criteria with entries returns 409", func(t *testing.T) {
		h := newCriteriaHarness(t)
		h.seedCriteria(t)
		h.entries.exists = true

		w := h.do("DELETE", "/api/v1/provisioning/criteria/1", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "CRITERIA_IN_USE")
		assert.Empty(t, h.repo.deleted)
	})

	t.Run("unknown criteria returns 404", func(t *testing.T) {
		h := newCriteriaHarness(t)

		w := h.do("DELETE", "/api/v1/provisioning/criteria/5", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func jsonInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
