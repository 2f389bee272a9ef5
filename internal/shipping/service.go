package shipping

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"

	"go.uber.org/zap"
)

// OrderStore is the slice of order persistence the shipment flow needs.
// order.Repository satisfies it.
type OrderStore interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	GetShippingForUpdate(ctx context.Context, tx *sql.Tx, orderID string) (*order.Order, error)
	UpdateShipping(ctx context.Context, tx *sql.Tx, o *order.Order) error
	FindIDByWaybill(ctx context.Context, waybill string) (string, error)
}

type Service interface {
	// Apply folds one carrier event into the order's shipping state.
	Apply(ctx context.Context, ev Event) error
}

type service struct {
	store OrderStore
	now   func() time.Time
}

func NewService(store OrderStore) Service {
	return &service{
		store: store,
		now:   time.Now,
	}
}

// Apply resolves the order, locks its row, appends the event to the status
// history and updates the canonical status and delivery flags.
//
// The carrier delivers events at-least-once and out of order. Policy: every
// event is appended to the history, but the canonical status only moves
// forward along the happy path; correction and terminal statuses always
// apply. A stale "picked" arriving after "delivered" is therefore
// history-only, while a "cancelled" correction after "delivered" clears the
// delivery flags.
func (s *service) Apply(ctx context.Context, ev Event) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("function", "Apply"),
	)

	next, ok := MapVendorStatus(ev.Status)
	if !ok {
		log.Warn("unmapped carrier status", zap.String("status", ev.Status))
		return fmt.Errorf("%w: %q", ErrUnknownStatus, ev.Status)
	}

	// 1. Resolve the order: correlation id first, waybill as fallback.
	orderID := ev.orderRef()
	if orderID == "" {
		waybill := ev.waybill()
		if waybill == "" {
			return ErrNoReference
		}
		id, err := s.store.FindIDByWaybill(ctx, waybill)
		if err != nil {
			return err
		}
		orderID = id
	}

	eventTime := s.eventTime(ev)

	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		// 2. Lock the row; concurrent carrier events serialize here.
		o, err := s.store.GetShippingForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		// 3. History is append-only regardless of what the event changes.
		o.ShippingInfo.StatusHistory = append(o.ShippingInfo.StatusHistory, order.StatusEvent{
			Status:       string(next),
			VendorStatus: ev.Status,
			Timestamp:    eventTime,
		})

		current := Status(o.ShippingInfo.CurrentStatus)
		if ShouldAdvance(current, next) {
			o.ShippingInfo.CurrentStatus = string(next)
			applyCourierMeta(o, ev)
			s.applyFlags(o, next, eventTime)
		} else {
			log.Info("stale carrier event kept history-only",
				zap.String("order_id", orderID),
				zap.String("current_status", string(current)),
				zap.String("event_status", string(next)),
			)
		}

		// 4. Persist under the same lock.
		return s.store.UpdateShipping(ctx, tx, o)
	})
}

func (s *service) applyFlags(o *order.Order, st Status, at time.Time) {
	switch {
	case st == StatusDelivered:
		o.IsDelivered = true
		o.DeliveredAt = &at
	case clearsDelivery[st]:
		o.IsDelivered = false
		o.DeliveredAt = nil
	}
}

// applyCourierMeta refreshes the carrier metadata from the event, keeping
// previously known values when the event omits a field.
func applyCourierMeta(o *order.Order, ev Event) {
	if w := ev.waybill(); w != "" {
		o.TrackingOrder = &w
	}
	if ev.CourierCompany != "" {
		o.Courier = &ev.CourierCompany
		o.ShippingInfo.CourierCompany = ev.CourierCompany
	}
	if ev.CourierType != "" {
		o.ShippingInfo.CourierType = ev.CourierType
	}
	if ev.CourierDriverName != "" {
		o.ShippingInfo.DriverName = ev.CourierDriverName
	}
	if ev.CourierDriverPhone != "" {
		o.ShippingInfo.DriverPhone = ev.CourierDriverPhone
	}
}

func (s *service) eventTime(ev Event) time.Time {
	if ev.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, ev.UpdatedAt); err == nil {
			return t
		}
	}
	return s.now()
}
