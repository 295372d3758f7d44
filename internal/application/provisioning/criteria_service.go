package provisioning

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jrobgood/fineract-poc/internal/domain/provisioning"
	"github.com/jrobgood/fineract-poc/internal/domain/shared"
	"github.com/jrobgood/fineract-poc/internal/infrastructure/telemetry"
)

// CriteriaService orchestrates provisioning criteria operations. Each
// operation is a single all-or-nothing write: the repository persists the
// header, the definitions and the product mappings in one transaction, and
// constraint violations are translated into domain errors at this boundary.
type CriteriaService struct {
	criteriaRepo provisioning.CriteriaRepository
	entries      provisioning.EntriesLookup
	assembler    *CriteriaAssembler
	logger       *zap.Logger
}

// NewCriteriaService creates a new CriteriaService
func NewCriteriaService(
	criteriaRepo provisioning.CriteriaRepository,
	entries provisioning.EntriesLookup,
	assembler *CriteriaAssembler,
	logger *zap.Logger,
) *CriteriaService {
	return &CriteriaService{
		criteriaRepo: criteriaRepo,
		entries:      entries,
		assembler:    assembler,
		logger:       logger,
	}
}

// Create assembles and persists a new provisioning criteria
func (s *CriteriaService) Create(ctx context.Context, req CreateCriteriaRequest) (*CommandResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "provisioning_criteria", "create")
	defer span.End()
	telemetry.SetAttributes(span, "criteria_name", req.CriteriaName)

	criteria, err := s.assembler.AssembleCriteria(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.criteriaRepo.Save(ctx, criteria); err != nil {
		err = s.translateSaveError(err, criteria.CriteriaName)
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("provisioning criteria created",
		zap.Int64("criteria_id", criteria.ID),
		zap.String("criteria_name", criteria.CriteriaName),
		zap.Int("definitions", len(criteria.Definitions)),
		zap.Int("loan_products", len(criteria.LoanProducts)))

	return &CommandResult{ID: criteria.ID}, nil
}

// Update applies an update payload to an existing criteria. Header fields,
// product associations and definitions are diffed independently; if nothing
// changed, no write happens and the returned change map is empty.
func (s *CriteriaService) Update(ctx context.Context, id int64, req UpdateCriteriaRequest) (*CommandResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "provisioning_criteria", "update")
	defer span.End()
	telemetry.SetAttributes(span, "criteria_id", id)

	criteria, err := s.loadCriteria(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	products, err := s.assembler.ResolveLoanProducts(ctx, req.LoanProductIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	patches, err := s.assembler.AssemblePatches(ctx, req.Definitions)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	next, changes, err := criteria.ApplyUpdate(provisioning.UpdateCommand{
		Name:         req.CriteriaName,
		LoanProducts: products,
		Definitions:  patches,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if changes.IsEmpty() {
		return &CommandResult{ID: criteria.ID, Changes: map[string]any{}}, nil
	}

	if err := s.criteriaRepo.Save(ctx, next); err != nil {
		err = s.translateSaveError(err, next.CriteriaName)
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("provisioning criteria updated",
		zap.Int64("criteria_id", next.ID),
		zap.Strings("changed_fields", changes.Fields()))

	return &CommandResult{ID: next.ID, Changes: changes}, nil
}

// Delete removes a criteria unless provisioning entries reference it
func (s *CriteriaService) Delete(ctx context.Context, id int64) (*CommandResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "provisioning_criteria", "delete")
	defer span.End()
	telemetry.SetAttributes(span, "criteria_id", id)

	criteria, err := s.loadCriteria(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	inUse, err := s.entries.ExistsForCriteria(ctx, criteria.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if inUse {
		err := provisioning.NewCriteriaInUseError(criteria.ID)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.criteriaRepo.Delete(ctx, criteria.ID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("provisioning criteria deleted",
		zap.Int64("criteria_id", criteria.ID),
		zap.String("criteria_name", criteria.CriteriaName))

	return &CommandResult{ID: criteria.ID}, nil
}

// GetByID retrieves a criteria with its definitions and loan products
func (s *CriteriaService) GetByID(ctx context.Context, id int64) (*CriteriaResponse, error) {
	criteria, err := s.loadCriteria(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCriteriaResponse(criteria), nil
}

// List retrieves criteria matching the filter
func (s *CriteriaService) List(ctx context.Context, filter CriteriaListFilter) ([]CriteriaListResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.Search = filter.Search
	if filter.Page > 0 && filter.PageSize > 0 {
		domainFilter.Page = filter.Page
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
		if filter.OrderDir != "" {
			domainFilter.OrderDir = filter.OrderDir
		}
	}

	criteria, err := s.criteriaRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.criteriaRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CriteriaListResponse, len(criteria))
	for i := range criteria {
		responses[i] = ToCriteriaListResponse(&criteria[i])
	}
	return responses, total, nil
}

func (s *CriteriaService) loadCriteria(ctx context.Context, id int64) (*provisioning.Criteria, error) {
	criteria, err := s.criteriaRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code,
				fmt.Sprintf("provisioning criteria with id %d does not exist", id))
		}
		return nil, err
	}
	return criteria, nil
}

// translateSaveError maps constraint violations raised by the repository to
// the domain errors clients see. Unrecognized constraints are logged with
// their full cause before the generic integrity error is surfaced.
func (s *CriteriaService) translateSaveError(err error, criteriaName string) error {
	var violation *provisioning.ConstraintViolation
	if !errors.As(err, &violation) {
		return err
	}
	domainErr, recognized := provisioning.TranslateConstraintViolation(violation, criteriaName)
	if !recognized {
		s.logger.Error("unrecognized integrity violation while saving provisioning criteria",
			zap.String("criteria_name", criteriaName),
			zap.String("constraint", violation.Constraint),
			zap.Error(violation.Cause))
	}
	return domainErr
}
