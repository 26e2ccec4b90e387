package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapbridge/leapbridge/internal/leap"
	"github.com/leapbridge/leapbridge/internal/shared"
)

type stubCRM struct {
	searchFn         func(ctx context.Context, email, phone string) ([]leap.CustomerRecord, error)
	createCustomerFn func(ctx context.Context, in leap.CustomerRequest) (leap.CustomerRecord, error)
	createEstimateFn func(ctx context.Context, in leap.EstimateRequest) (leap.EstimateRecord, error)

	searchCalls         int
	createCustomerCalls int
	createEstimateCalls int
}

func (s *stubCRM) SearchCustomers(ctx context.Context, email, phone string) ([]leap.CustomerRecord, error) {
	s.searchCalls++
	if s.searchFn != nil {
		return s.searchFn(ctx, email, phone)
	}
	return nil, nil
}

func (s *stubCRM) CreateCustomer(ctx context.Context, in leap.CustomerRequest) (leap.CustomerRecord, error) {
	s.createCustomerCalls++
	if s.createCustomerFn != nil {
		return s.createCustomerFn(ctx, in)
	}
	return leap.CustomerRecord{ID: 100, FirstName: in.FirstName, LastName: in.LastName}, nil
}

func (s *stubCRM) CreateEstimate(ctx context.Context, in leap.EstimateRequest) (leap.EstimateRecord, error) {
	s.createEstimateCalls++
	if s.createEstimateFn != nil {
		return s.createEstimateFn(ctx, in)
	}
	return leap.EstimateRecord{ID: 200, CustomerID: in.CustomerID, Status: in.Status, Total: in.Total}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCustomer() Customer {
	return Customer{
		FirstName: "Jane",
		LastName:  "Doe",
		Emails:    []string{"j@x.com"},
		Phones:    []string{"555-1"},
	}
}

func testEstimate() Estimate {
	return Estimate{ID: "E1", SaleAmount: 500, IsSale: true}
}

func TestProcessReusesMatchedCustomer(t *testing.T) {
	crm := &stubCRM{
		searchFn: func(ctx context.Context, email, phone string) ([]leap.CustomerRecord, error) {
			assert.Equal(t, "j@x.com", email)
			assert.Equal(t, "555-1", phone)
			return []leap.CustomerRecord{{ID: 7}, {ID: 8}}, nil
		},
	}
	svc := NewService(testLogger(), crm, nil, nil, "pending")

	result, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.CustomerID, "first search result wins")
	assert.False(t, result.CustomerCreated)
	assert.Equal(t, 0, crm.createCustomerCalls)
	assert.Equal(t, 1, crm.createEstimateCalls)
}

func TestProcessCreatesCustomerWhenNoMatch(t *testing.T) {
	crm := &stubCRM{}
	svc := NewService(testLogger(), crm, nil, nil, "pending")

	result, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	require.NoError(t, err)

	assert.True(t, result.CustomerCreated)
	assert.Equal(t, int64(100), result.CustomerID)
	assert.Equal(t, 1, crm.searchCalls)
	assert.Equal(t, 1, crm.createCustomerCalls)
	assert.Equal(t, 1, crm.createEstimateCalls)
}

func TestProcessFallsBackToCreateWhenLookupFails(t *testing.T) {
	crm := &stubCRM{
		searchFn: func(ctx context.Context, email, phone string) ([]leap.CustomerRecord, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(testLogger(), crm, nil, nil, "pending")

	result, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	require.NoError(t, err)
	assert.True(t, result.CustomerCreated)
	assert.Equal(t, 1, crm.createCustomerCalls)
}

func TestProcessSkipsLookupWithoutContactInfo(t *testing.T) {
	crm := &stubCRM{}
	svc := NewService(testLogger(), crm, nil, nil, "pending")

	_, err := svc.Process(context.Background(), Customer{FirstName: "Jane", LastName: "Doe"}, testEstimate())
	require.NoError(t, err)
	assert.Equal(t, 0, crm.searchCalls)
	assert.Equal(t, 1, crm.createCustomerCalls)
}

func TestProcessSurfacesCustomerCreateFailure(t *testing.T) {
	upstream := &leap.APIError{Op: "create customer", StatusCode: 422, Body: `{"error":"bad phone"}`}
	crm := &stubCRM{
		createCustomerFn: func(ctx context.Context, in leap.CustomerRequest) (leap.CustomerRecord, error) {
			return leap.CustomerRecord{}, upstream
		},
	}
	svc := NewService(testLogger(), crm, nil, nil, "pending")

	_, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	var apiErr *leap.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Equal(t, 0, crm.createEstimateCalls, "estimate creation requires a resolved customer")
}

func TestProcessSurfacesEstimateCreateFailure(t *testing.T) {
	crm := &stubCRM{
		createEstimateFn: func(ctx context.Context, in leap.EstimateRequest) (leap.EstimateRecord, error) {
			return leap.EstimateRecord{}, &leap.APIError{Op: "create estimate", StatusCode: 500}
		},
	}
	svc := NewService(testLogger(), crm, nil, nil, "pending")

	_, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	var apiErr *leap.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "create estimate", apiErr.Op)
}

func newTestDedup(t *testing.T) *shared.IdempotencyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewIdempotencyStore(client, time.Hour)
}

func TestProcessSkipsDuplicateDeliveries(t *testing.T) {
	crm := &stubCRM{}
	svc := NewService(testLogger(), crm, newTestDedup(t), nil, "pending")

	first, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	assert.Equal(t, 1, crm.searchCalls)
	assert.Equal(t, 1, crm.createCustomerCalls)
	assert.Equal(t, 1, crm.createEstimateCalls)
}

func TestProcessReleasesDedupKeyOnFailure(t *testing.T) {
	fail := true
	crm := &stubCRM{
		createEstimateFn: func(ctx context.Context, in leap.EstimateRequest) (leap.EstimateRecord, error) {
			if fail {
				return leap.EstimateRecord{}, &leap.APIError{Op: "create estimate", StatusCode: 503}
			}
			return leap.EstimateRecord{ID: 200}, nil
		},
	}
	svc := NewService(testLogger(), crm, newTestDedup(t), nil, "pending")

	_, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	require.Error(t, err)

	// Redelivery after a failure must go through again.
	fail = false
	result, err := svc.Process(context.Background(), testCustomer(), testEstimate())
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 2, crm.createEstimateCalls)
}
