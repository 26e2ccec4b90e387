package relay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapbridge/leapbridge/internal/leap"
	"github.com/leapbridge/leapbridge/internal/observability"
	"github.com/leapbridge/leapbridge/internal/shared"
)

// CRM is the subset of the Leap API the relay depends on.
type CRM interface {
	SearchCustomers(ctx context.Context, email, phone string) ([]leap.CustomerRecord, error)
	CreateCustomer(ctx context.Context, in leap.CustomerRequest) (leap.CustomerRecord, error)
	CreateEstimate(ctx context.Context, in leap.EstimateRequest) (leap.EstimateRecord, error)
}

const dedupModule = "salespro-webhook"

// Result summarises one processed delivery.
type Result struct {
	Duplicate       bool
	CustomerID      int64
	CustomerCreated bool
	Customer        leap.CustomerRecord
	Estimate        leap.EstimateRecord
}

// Service sequences customer resolution and estimate creation against the CRM.
type Service struct {
	logger       *slog.Logger
	crm          CRM
	dedup        *shared.IdempotencyStore
	metrics      *observability.Metrics
	noSaleStatus string
}

// NewService constructs the relay service. dedup may be nil, in which case
// redelivered webhooks are relayed again (the CRM lookup remains the only
// dedup line of defence). metrics may be nil.
func NewService(logger *slog.Logger, crm CRM, dedup *shared.IdempotencyStore, metrics *observability.Metrics, noSaleStatus string) *Service {
	return &Service{
		logger:       logger,
		crm:          crm,
		dedup:        dedup,
		metrics:      metrics,
		noSaleStatus: noSaleStatus,
	}
}

// Process relays one normalized delivery: resolve the customer, then create
// the estimate. Estimate creation strictly follows customer resolution.
func (s *Service) Process(ctx context.Context, customer Customer, estimate Estimate) (Result, error) {
	if s.dedup != nil && estimate.ID != "" {
		err := s.dedup.CheckAndInsert(ctx, estimate.ID, dedupModule)
		switch {
		case errors.Is(err, shared.ErrIdempotencyConflict):
			s.logger.Info("duplicate delivery skipped", slog.String("estimate_id", estimate.ID))
			return Result{Duplicate: true}, nil
		case err != nil:
			// A dedup outage must not take the relay down.
			s.logger.Warn("idempotency check failed", slog.Any("error", err))
		}
	}

	customerRecord, created, err := s.resolveCustomer(ctx, customer)
	if err != nil {
		s.releaseDedupKey(ctx, estimate.ID)
		return Result{}, err
	}
	s.metrics.CustomerResolved(created)

	estimateRecord, err := s.crm.CreateEstimate(ctx, mapEstimate(customerRecord.ID, estimate, s.noSaleStatus))
	if err != nil {
		// No compensating delete of a freshly created customer; the CRM
		// keeps it and a redelivery will match it by contact info.
		s.releaseDedupKey(ctx, estimate.ID)
		return Result{}, err
	}

	return Result{
		CustomerID:      customerRecord.ID,
		CustomerCreated: created,
		Customer:        customerRecord,
		Estimate:        estimateRecord,
	}, nil
}

// resolveCustomer looks the customer up by primary email and phone and
// creates it when no match exists. Lookup failures are downgraded to
// "no match": the create path stays available when search is flaky.
func (s *Service) resolveCustomer(ctx context.Context, customer Customer) (leap.CustomerRecord, bool, error) {
	email := customer.PrimaryEmail()
	phone := customer.PrimaryPhone()

	if email != "" || phone != "" {
		matches, err := s.crm.SearchCustomers(ctx, email, phone)
		if err != nil {
			s.logger.Warn("customer lookup failed, falling back to create", slog.Any("error", err))
			s.metrics.LookupFallback()
		} else if len(matches) > 0 {
			// First result wins.
			return matches[0], false, nil
		}
	}

	record, err := s.crm.CreateCustomer(ctx, mapCustomer(customer))
	if err != nil {
		return leap.CustomerRecord{}, false, err
	}
	return record, true, nil
}

func (s *Service) releaseDedupKey(ctx context.Context, estimateID string) {
	if s.dedup == nil || estimateID == "" {
		return
	}
	if err := s.dedup.Delete(ctx, estimateID, dedupModule); err != nil {
		s.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}
