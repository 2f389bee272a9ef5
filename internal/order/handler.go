package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/pricing"
	"lokapasar-be/internal/utils"
	"lokapasar-be/internal/voucher"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type checkoutRequest struct {
	OrderID       string             `json:"order_id"`
	Items         []pricing.CartLine `json:"items"`
	ExpectedTotal int64              `json:"expected_total"`
	ShippingPrice int64              `json:"shipping_price"`
	Courier       *string            `json:"courier,omitempty"`
	VoucherCode   *string            `json:"voucher_code,omitempty"`
}

type checkoutResponse struct {
	OrderID        string `json:"order_id"`
	ItemsPrice     int64  `json:"items_price"`
	TaxPrice       int64  `json:"tax_price"`
	ShippingPrice  int64  `json:"shipping_price"`
	DiscountAmount int64  `json:"discount_amount"`
	TotalPrice     int64  `json:"total_price"`
	PaymentStatus  string `json:"payment_status"`
}

type orderDetailResponse struct {
	OrderID        string              `json:"order_id"`
	ItemsPrice     int64               `json:"items_price"`
	TaxPrice       int64               `json:"tax_price"`
	ShippingPrice  int64               `json:"shipping_price"`
	DiscountAmount int64               `json:"discount_amount"`
	TotalPrice     int64               `json:"total_price"`
	VoucherCode    *string             `json:"voucher_code,omitempty"`
	PaymentStatus  string              `json:"payment_status"`
	IsDelivered    bool                `json:"is_delivered"`
	DeliveredAt    *time.Time          `json:"delivered_at,omitempty"`
	TrackingOrder  *string             `json:"tracking_order,omitempty"`
	Courier        *string             `json:"courier,omitempty"`
	ShippingInfo   ShippingInfo        `json:"shipping_info"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"image_url"`
	Price     int64   `json:"price"`
	Quantity  int     `json:"quantity"`
}

type errorResponse struct {
	Error     string          `json:"error"`
	Conflicts []StockConflict `json:"conflicts,omitempty"`
}

// Checkout finalizes a cart into an order. Validation failures come back
// with specific messages; system failures surface as a generic error so
// internals never leak.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	defer r.Body.Close()

	if req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "order_id is required"})
		return
	}

	o, err := h.svc.Finalize(ctx, FinalizeInput{
		OrderID:       req.OrderID,
		UserID:        userID,
		Lines:         req.Items,
		ExpectedTotal: req.ExpectedTotal,
		ShippingPrice: req.ShippingPrice,
		Courier:       req.Courier,
		VoucherCode:   req.VoucherCode,
	})
	if err != nil {
		h.writeCheckoutError(w, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:        o.ID,
		ItemsPrice:     o.ItemsPrice,
		TaxPrice:       o.TaxPrice,
		ShippingPrice:  o.ShippingPrice,
		DiscountAmount: o.DiscountAmount,
		TotalPrice:     o.TotalPrice,
		PaymentStatus:  o.PaymentStatus,
	})
}

// GetOrder returns one order owned by the caller, including item snapshots
// and the carrier status history.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	orderID := chi.URLParam(r, "orderID")
	o, err := h.svc.GetOrder(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		log.Error("failed to load order", zap.String("order_id", orderID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load order"})
		return
	}

	// Not-found rather than forbidden: don't confirm the id exists.
	if o.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrOrderNotFound.Error()})
		return
	}

	resp := orderDetailResponse{
		OrderID:        o.ID,
		ItemsPrice:     o.ItemsPrice,
		TaxPrice:       o.TaxPrice,
		ShippingPrice:  o.ShippingPrice,
		DiscountAmount: o.DiscountAmount,
		TotalPrice:     o.TotalPrice,
		VoucherCode:    o.VoucherCode,
		PaymentStatus:  o.PaymentStatus,
		IsDelivered:    o.IsDelivered,
		DeliveredAt:    o.DeliveredAt,
		TrackingOrder:  o.TrackingOrder,
		Courier:        o.Courier,
		ShippingInfo:   o.ShippingInfo,
		CreatedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.Name,
			ImageURL:  it.ImageURL,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, log *zap.Logger, err error) {
	var stockErr *InsufficientStockError
	var mismatchErr *pricing.TotalMismatchError
	var voucherErr *VoucherRejectedError

	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:     stockErr.Error(),
			Conflicts: stockErr.Conflicts,
		})
	case errors.As(err, &mismatchErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: mismatchErr.Error()})
	case errors.As(err, &voucherErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: voucherErr.Reason})
	case errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, ErrEmptyOrder):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrCampaignExhausted),
		errors.Is(err, voucher.ErrRedeemExhausted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		log.Error("checkout failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to process order"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
