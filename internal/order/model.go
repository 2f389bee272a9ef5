package order

import "time"

// Order is the finalized aggregate. All money fields are integer rupiah.
// PaymentStatus mirrors the payment gateway vocabulary ("pending",
// "settlement", "deny", ...); downstream code branches on those strings.
type Order struct {
	ID             string
	UserID         uint
	ItemsPrice     int64
	TaxPrice       int64
	ShippingPrice  int64
	DiscountAmount int64
	TotalPrice     int64
	VoucherCode    *string
	PaymentStatus  string
	IsDelivered    bool
	DeliveredAt    *time.Time
	TrackingOrder  *string
	Courier        *string
	ShippingInfo   ShippingInfo
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	Items          []OrderItem
}

// OrderItem freezes price, name, image and dimensional data at the moment of
// finalization. Later catalog edits never change a placed order's economics.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	VariantID      *string
	Name           string
	ImageURL       string
	Price          int64
	Quantity       int
	Weight         int
	Length         int
	Width          int
	Height         int
	CampaignItemID *string
}

// ShippingInfo is the carrier-facing state stored on the order row. History
// is append-only: every received carrier event lands there, whether or not
// it moved the current status.
type ShippingInfo struct {
	CurrentStatus  string        `json:"current_status"`
	StatusHistory  []StatusEvent `json:"status_history"`
	CourierCompany string        `json:"courier_company,omitempty"`
	CourierType    string        `json:"courier_type,omitempty"`
	DriverName     string        `json:"driver_name,omitempty"`
	DriverPhone    string        `json:"driver_phone,omitempty"`
}

// StatusEvent keeps the vendor's raw status next to the mapped canonical one
// so support agents can reconstruct exactly what the carrier sent.
type StatusEvent struct {
	Status       string    `json:"status"`
	VendorStatus string    `json:"vendor_status"`
	Note         string    `json:"note,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

const PaymentStatusPending = "pending"
