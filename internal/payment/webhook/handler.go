package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"

	"go.uber.org/zap"
)

// Handler receives asynchronous payment-status notifications from the
// gateway. It is stateless per request.
type Handler struct {
	orderSvc order.Service
	verifier *payment.Verifier
}

func NewHandler(orderSvc order.Service, verifier *payment.Verifier) *Handler {
	return &Handler{
		orderSvc: orderSvc,
		verifier: verifier,
	}
}

// Handle processes one notification. Signature failure and missing server
// config reject the request; every other failure is logged and acknowledged
// with 200, because the gateway retries non-200 responses indefinitely and
// duplicate deliveries pile up side effects.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Authenticity first: no state is touched on a bad signature.
	if err := h.verifier.Verify(body, r.Header.Get(payment.SignatureHeader)); err != nil {
		if errors.Is(err, payment.ErrMissingServerKey) {
			log.Error("payment server key missing")
			http.Error(w, "server misconfigured", http.StatusInternalServerError)
			return
		}
		log.Warn("rejected payment webhook", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var n payment.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Warn("malformed payment notification", zap.Error(err))
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if n.OrderID == "" {
		log.Warn("payment notification without order_id")
		h.ack(w)
		return
	}

	status := payment.ResolveStatus(n.TransactionStatus, n.FraudStatus)

	log = log.With(
		zap.String("order_id", n.OrderID),
		zap.String("transaction_status", n.TransactionStatus),
		zap.String("fraud_status", n.FraudStatus),
		zap.String("resolved_status", status),
	)

	if err := h.orderSvc.MarkPaymentStatus(ctx, n.OrderID, status); err != nil {
		// Acknowledge-then-log: a 200 stops the gateway's retry storm; the
		// miss stays visible in the logs.
		log.Error("failed to apply payment status", zap.Error(err))
		h.ack(w)
		return
	}

	log.Info("payment status updated")
	h.ack(w)
}

func (h *Handler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
}
