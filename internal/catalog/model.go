package catalog

import "time"

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

// PriceInfo is the authoritative pricing row for a product or variant.
// Prices are integer rupiah; Discount is the permanent seller discount in
// percent (0-100).
type PriceInfo struct {
	ID           string
	Name         string
	RegularPrice int64
	Discount     int
	Stock        int
}

// CampaignItem links a running campaign to a product (and optionally one
// specific variant). StockLimit is a campaign-scoped ceiling independent of
// the product's own stock; nil means unlimited.
type CampaignItem struct {
	ID            string
	CampaignID    string
	CampaignName  string
	Priority      int
	ProductID     string
	VariantID     *string
	DiscountType  DiscountType
	DiscountValue int64
	StockLimit    *int
	SoldCount     int
}

// StockOpen reports whether the campaign-scoped stock gate is still open.
func (ci CampaignItem) StockOpen() bool {
	return ci.StockLimit == nil || ci.SoldCount < *ci.StockLimit
}

// ItemSnapshot carries everything an order line must freeze at finalization
// time, plus the current stock for the availability check.
type ItemSnapshot struct {
	ProductID string
	VariantID *string
	Name      string
	ImageURL  string
	Stock     int
	Weight    int
	Length    int
	Width     int
	Height    int
}

// Campaign is included for admin tooling; the pricing path only ever sees
// the flattened CampaignItem rows.
type Campaign struct {
	ID              string
	Name            string
	IsActive        bool
	Priority        int
	StartDate       time.Time
	EndDate         *time.Time
	DiscountType    DiscountType
	DefaultDiscount int64
}
