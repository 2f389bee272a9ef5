package shipping

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

// Handler receives asynchronous carrier status webhooks. The carrier retries
// any non-200 response indefinitely, so after the auth gate every outcome is
// acknowledged with 200 and failures are only logged.
type Handler struct {
	svc       Service
	authToken string
}

func NewHandler(svc Service, authToken string) *Handler {
	return &Handler{
		svc:       svc,
		authToken: authToken,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	// Carrier sends a GET to validate the URL when the webhook is installed.
	if r.Method == http.MethodGet {
		h.ack(w)
		return
	}

	if h.authToken != "" && r.Header.Get("Authorization") != h.authToken {
		log.Warn("rejected shipment webhook with bad auth token")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Empty and "{}" bodies are installation health checks.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) {
		h.ack(w)
		return
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Warn("malformed shipment event", zap.Error(err))
		h.ack(w)
		return
	}

	if ev.isEmpty() {
		h.ack(w)
		return
	}

	if err := h.svc.Apply(ctx, ev); err != nil {
		// Acknowledge-then-log: the miss stays visible in the logs while the
		// 200 stops the carrier's retry loop.
		log.Error("failed to apply shipment event",
			zap.String("order_id", ev.orderRef()),
			zap.String("waybill", ev.waybill()),
			zap.String("status", ev.Status),
			zap.Error(err),
		)
	}

	h.ack(w)
}

func (h *Handler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
}
