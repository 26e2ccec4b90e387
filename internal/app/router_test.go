package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leapbridge/leapbridge/internal/leap"
	"github.com/leapbridge/leapbridge/internal/observability"
	"github.com/leapbridge/leapbridge/internal/relay"
)

type fakeCRM struct{}

func (fakeCRM) SearchCustomers(ctx context.Context, email, phone string) ([]leap.CustomerRecord, error) {
	return nil, nil
}

func (fakeCRM) CreateCustomer(ctx context.Context, in leap.CustomerRequest) (leap.CustomerRecord, error) {
	return leap.CustomerRecord{ID: 1}, nil
}

func (fakeCRM) CreateEstimate(ctx context.Context, in leap.EstimateRequest) (leap.EstimateRecord, error) {
	return leap.EstimateRecord{ID: 2, CustomerID: in.CustomerID}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{AppEnv: "development", AppRequestTimeout: 5 * time.Second, LeapNoSaleStatus: "pending"}
	metrics := observability.NewMetrics()
	service := relay.NewService(logger, fakeCRM{}, nil, metrics, cfg.LeapNoSaleStatus)
	handler := relay.NewHandler(logger, service, relay.NewSignatureVerifier(""), metrics, true)
	return NewRouter(RouterParams{
		Logger:       logger,
		Config:       cfg,
		RelayHandler: handler,
		Metrics:      metrics,
	})
}

func TestRootServesLivenessText(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "relay") {
		t.Fatalf("expected liveness text, got %q", rr.Body.String())
	}
}

func TestHealthEndpointsReportHealthy(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/health", "/healthz"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, rr.Code)
		}
		var body struct {
			Status    string `json:"status"`
			Timestamp string `json:"timestamp"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode body: %v", path, err)
		}
		if body.Status != "healthy" {
			t.Fatalf("%s: expected healthy, got %q", path, body.Status)
		}
		if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
			t.Fatalf("%s: timestamp not RFC3339: %v", path, err)
		}
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "leapbridge_http_requests_total") {
		t.Fatal("expected prometheus exposition output")
	}
}

func TestWebhookMountedThroughRouter(t *testing.T) {
	body := `{
		"customer": {"firstName": "Jane", "lastName": "Doe"},
		"estimate": {"id": "E1", "saleAmount": 0}
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}
