package shipping

// Status is the canonical shipment-status vocabulary. The carrier's raw
// tokens are mapped onto these before they touch order state.
type Status string

const (
	StatusConfirmed       Status = "confirmed"
	StatusAllocated       Status = "allocated"
	StatusPickingUp       Status = "picking_up"
	StatusPicked          Status = "picked"
	StatusDroppingOff     Status = "dropping_off"
	StatusDelivered       Status = "delivered"
	StatusReturnInTransit Status = "return_in_transit"
	StatusReturned        Status = "returned"
	StatusOnHold          Status = "on_hold"
	StatusRejected        Status = "rejected"
	StatusCourierNotFound Status = "courier_not_found"
	StatusCancelled       Status = "cancelled"
	StatusDisposed        Status = "disposed"
)

// happyPathRank orders the normal delivery progression. Events that would
// move the canonical status backward along this sequence are stale
// redeliveries and only land in the history.
var happyPathRank = map[Status]int{
	StatusConfirmed:   1,
	StatusAllocated:   2,
	StatusPickingUp:   3,
	StatusPicked:      4,
	StatusDroppingOff: 5,
	StatusDelivered:   6,
}

// vendorStatus maps carrier tokens to canonical statuses. Most tokens match
// one to one; the aliases cover older webhook versions.
var vendorStatus = map[string]Status{
	"confirmed":         StatusConfirmed,
	"allocated":         StatusAllocated,
	"picking_up":        StatusPickingUp,
	"pickingUp":         StatusPickingUp,
	"picked":            StatusPicked,
	"dropping_off":      StatusDroppingOff,
	"droppingOff":       StatusDroppingOff,
	"delivered":         StatusDelivered,
	"return_in_transit": StatusReturnInTransit,
	"returned":          StatusReturned,
	"on_hold":           StatusOnHold,
	"rejected":          StatusRejected,
	"courier_not_found": StatusCourierNotFound,
	"cancelled":         StatusCancelled,
	"disposed":          StatusDisposed,
}

// MapVendorStatus resolves a carrier token; ok is false for unknown tokens.
func MapVendorStatus(raw string) (Status, bool) {
	s, ok := vendorStatus[raw]
	return s, ok
}

// clearsDelivery lists the correction/terminal statuses that reset the
// delivered flag and timestamp.
var clearsDelivery = map[Status]bool{
	StatusCancelled:       true,
	StatusRejected:        true,
	StatusCourierNotFound: true,
	StatusReturned:        true,
	StatusDisposed:        true,
}

// ShouldAdvance decides whether next replaces current as the canonical
// status. Off-happy-path statuses (corrections, returns, holds) always
// apply; within the happy path the status only moves forward.
func ShouldAdvance(current, next Status) bool {
	nextRank, nextOnPath := happyPathRank[next]
	if !nextOnPath {
		return true
	}

	currentRank, currentOnPath := happyPathRank[current]
	if !currentOnPath {
		// Off-path or empty current: any happy-path event applies.
		return true
	}

	return nextRank > currentRank
}
