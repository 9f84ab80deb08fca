// Package transport exposes the payment gateway over HTTP and gRPC.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/model"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/orchestrator"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/orders"
	"github.com/goodnatureofminers/blockinsight7000-paygate/internal/paygate/repository/gormstore"
	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxRequestBytes = 16 << 10

type createOrderRequest struct {
	OrderID     string          `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Email       string          `json:"email"`
	Description string          `json:"description"`
}

type orderResponse struct {
	OrderID        string           `json:"order_id"`
	Amount         decimal.Decimal  `json:"amount"`
	Currency       string           `json:"currency"`
	BitcoinAddress string           `json:"bitcoin_addr,omitempty"`
	TotalInBTC     string           `json:"total_in_btc,omitempty"`
	Rate           *decimal.Decimal `json:"exchange_rate,omitempty"`
	Paid           bool             `json:"paid"`
	PaidAmountBTC  string           `json:"paid_amount_btc,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// PaymentHandler serves checkout requests of the reference store.
type PaymentHandler struct {
	payments Payments
	store    OrderStore
	currency string
	logger   *zap.Logger
}

func NewPaymentHandler(payments Payments, store OrderStore, currency string, logger *zap.Logger) (*PaymentHandler, error) {
	if payments == nil {
		return nil, errors.New("payments service is required")
	}
	if store == nil {
		return nil, errors.New("order store is required")
	}
	return &PaymentHandler{
		payments: payments,
		store:    store,
		currency: strings.ToUpper(currency),
		logger:   logger.Named("payment_handler"),
	}, nil
}

// Register adds the handler routes to the gateway mux.
func (h *PaymentHandler) Register(mux *gwruntime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler gwruntime.HandlerFunc
	}{
		{method: http.MethodPost, pattern: "/v1/orders", handler: h.createOrder},
		{method: http.MethodGet, pattern: "/v1/orders/{order_id}", handler: h.getOrder},
		{method: http.MethodGet, pattern: "/v1/readiness", handler: h.readiness},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

func (h *PaymentHandler) createOrder(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createOrderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" || !req.Amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: orchestrator.ErrInvalidOrder.Error()})
		return
	}

	record := gormstore.OrderRecord{
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Currency:    h.currency,
		Email:       req.Email,
		Description: req.Description,
	}
	if err := h.store.CreateOrder(r.Context(), record); err != nil {
		if !errors.Is(err, gormstore.ErrOrderExists) {
			h.logger.Error("create order", zap.String("order_id", req.OrderID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		stored, err := h.store.GetOrder(r.Context(), req.OrderID)
		if err != nil {
			h.logger.Error("load existing order", zap.String("order_id", req.OrderID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		if !resumable(stored, record) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "order already exists"})
			return
		}
		h.logger.Info("retrying payment for stored order", zap.String("order_id", req.OrderID))
		record = stored
	}

	order := orders.NewOrder(record, h.store)
	if _, err := h.payments.Prepare(r.Context(), order, requesterIP(r)); err != nil {
		h.writePrepareError(w, req.OrderID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order.Record()))
}

// resumable reports whether a stored order left without an address by a failed prepare
// may be prepared again for the same request.
func resumable(stored, requested gormstore.OrderRecord) bool {
	return !stored.Paid && stored.BitcoinAddress == "" && stored.Amount.Equal(requested.Amount)
}

func (h *PaymentHandler) writePrepareError(w http.ResponseWriter, orderID string, err error) {
	var unavailable *orchestrator.PaymentUnavailableError
	switch {
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: unavailable.Message(), Reason: unavailable.Reason})
	case errors.Is(err, orchestrator.ErrInvalidOrder):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: orchestrator.ErrInvalidOrder.Error()})
	default:
		h.logger.Error("prepare payment", zap.String("order_id", orderID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *PaymentHandler) getOrder(w http.ResponseWriter, r *http.Request, params map[string]string) {
	record, err := h.store.GetOrder(r.Context(), params["order_id"])
	if err != nil {
		if errors.Is(err, gormstore.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
			return
		}
		h.logger.Error("get order", zap.String("order_id", params["order_id"]), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(record))
}

func (h *PaymentHandler) readiness(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if err := h.payments.Ready(r.Context()); err != nil {
		h.logger.Warn("not ready", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toOrderResponse(o gormstore.OrderRecord) orderResponse {
	resp := orderResponse{
		OrderID:        o.OrderID,
		Amount:         o.Amount,
		Currency:       o.Currency,
		BitcoinAddress: o.BitcoinAddress,
		Paid:           o.Paid,
	}
	if o.AmountBTC.IsPositive() {
		resp.TotalInBTC = o.AmountBTC.StringFixed(model.BTCPrecision)
		rate := o.Rate
		resp.Rate = &rate
	}
	if o.Paid {
		resp.PaidAmountBTC = o.PaidAmountBTC.StringFixed(model.BTCPrecision)
	}
	return resp
}

// requesterIP prefers the first X-Forwarded-For hop over the socket peer.
func requesterIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
