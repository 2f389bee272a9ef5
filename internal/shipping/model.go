package shipping

// Event is the carrier webhook payload. Field names follow the vendor's
// snake_case JSON; unknown fields are ignored by the decoder.
type Event struct {
	Event              string `json:"event"`
	OrderID            string `json:"order_id"`
	ExternalID         string `json:"external_id"`
	CourierWaybillID   string `json:"courier_waybill_id"`
	CourierTrackingID  string `json:"courier_tracking_id"`
	Status             string `json:"status"`
	CourierCompany     string `json:"courier_company"`
	CourierType        string `json:"courier_type"`
	CourierDriverName  string `json:"courier_driver_name"`
	CourierDriverPhone string `json:"courier_driver_phone"`
	UpdatedAt          string `json:"updated_at"`
}

// orderRef returns the explicit correlation id carried by the event, if any.
// The carrier echoes our order id back as external_id; older payloads used
// order_id directly.
func (e Event) orderRef() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.ExternalID
}

// waybill returns the carrier-side tracking reference used as the fallback
// lookup key when no correlation id is present.
func (e Event) waybill() string {
	if e.CourierWaybillID != "" {
		return e.CourierWaybillID
	}
	return e.CourierTrackingID
}

// isEmpty reports whether the payload carries nothing actionable. The vendor
// sends empty bodies when a webhook URL is first installed.
func (e Event) isEmpty() bool {
	return e.Status == "" && e.orderRef() == "" && e.waybill() == ""
}
