package shipping

import "errors"

var (
	// ErrUnknownStatus marks a carrier token absent from the vendor map.
	ErrUnknownStatus = errors.New("unknown carrier status")

	// ErrNoReference marks a payload carrying neither a correlation id nor
	// a waybill, so no order can be resolved.
	ErrNoReference = errors.New("shipment event has no order reference")
)
