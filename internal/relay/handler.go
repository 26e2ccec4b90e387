package relay

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leapbridge/leapbridge/internal/leap"
	"github.com/leapbridge/leapbridge/internal/observability"
	"github.com/leapbridge/leapbridge/internal/platform/httpx"
)

const maxBodyBytes = 1 << 20

// Handler wires the webhook endpoint.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	verifier     *SignatureVerifier
	metrics      *observability.Metrics
	exposeErrors bool
}

// NewHandler constructs a Handler instance. exposeErrors echoes upstream
// error detail to callers and should be off in production.
func NewHandler(logger *slog.Logger, service *Service, verifier *SignatureVerifier, metrics *observability.Metrics, exposeErrors bool) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		verifier:     verifier,
		metrics:      metrics,
		exposeErrors: exposeErrors,
	}
}

// MountRoutes registers relay routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/webhook", h.handleWebhook)
}

type webhookResponse struct {
	DeliveryID      string              `json:"delivery_id"`
	Duplicate       bool                `json:"duplicate"`
	CustomerID      int64               `json:"customer_id"`
	CustomerCreated bool                `json:"customer_created"`
	EstimateID      int64               `json:"estimate_id"`
	Customer        leap.CustomerRecord `json:"customer"`
	Estimate        leap.EstimateRecord `json:"estimate"`
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unable to read request body")
		return
	}

	if h.verifier.Enabled() {
		if err := h.verifier.Verify(body, r.Header.Get(SignatureHeader)); err != nil {
			h.logger.Warn("webhook signature rejected", slog.String("remote", r.RemoteAddr))
			httpx.Problem(w, http.StatusUnauthorized, "Invalid Signature", "webhook signature verification failed")
			return
		}
	}

	customer, estimate, shape, err := ParsePayload(body)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			h.metrics.ObserveDelivery(string(shape), "rejected")
			httpx.ValidationProblem(w, validationErr.Fields)
			return
		}
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	deliveryID := uuid.NewString()
	logger := h.logger.With(
		slog.String("delivery_id", deliveryID),
		slog.String("shape", string(shape)),
		slog.String("estimate_id", estimate.ID),
	)

	result, err := h.service.Process(r.Context(), customer, estimate)
	if err != nil {
		detail := ""
		if h.exposeErrors {
			detail = err.Error()
		}
		var apiErr *leap.APIError
		if errors.As(err, &apiErr) {
			logger.Error("upstream call failed", slog.Any("error", err))
			h.metrics.ObserveDelivery(string(shape), "upstream_error")
			httpx.Problem(w, http.StatusInternalServerError, "Upstream Error", detail)
			return
		}
		logger.Error("webhook processing failed", slog.Any("error", err))
		h.metrics.ObserveDelivery(string(shape), "error")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", detail)
		return
	}

	if result.Duplicate {
		h.metrics.ObserveDelivery(string(shape), "duplicate")
		httpx.JSON(w, http.StatusOK, webhookResponse{DeliveryID: deliveryID, Duplicate: true})
		return
	}

	logger.Info("delivery relayed",
		slog.Int64("customer_id", result.CustomerID),
		slog.Bool("customer_created", result.CustomerCreated),
		slog.Int64("crm_estimate_id", result.Estimate.ID),
	)
	h.metrics.ObserveDelivery(string(shape), "success")
	httpx.JSON(w, http.StatusOK, webhookResponse{
		DeliveryID:      deliveryID,
		CustomerID:      result.CustomerID,
		CustomerCreated: result.CustomerCreated,
		EstimateID:      result.Estimate.ID,
		Customer:        result.Customer,
		Estimate:        result.Estimate,
	})
}
