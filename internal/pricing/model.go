package pricing

import "lokapasar-be/internal/catalog"

type DiscountKind string

const (
	DiscountSeller   DiscountKind = "SELLER_DISCOUNT"
	DiscountCampaign DiscountKind = "CAMPAIGN"
)

// DiscountLine records a single price reduction applied while resolving a
// unit price.
type DiscountLine struct {
	Kind   DiscountKind `json:"kind"`
	Label  string       `json:"label"`
	Amount int64        `json:"amount"`
}

// Quote is the authoritative server-computed unit price for one product or
// variant. Resolving a quote never mutates campaign sold counts.
type Quote struct {
	RegularPrice   int64                 `json:"regular_price"`
	FinalPrice     int64                 `json:"final_price"`
	TotalSavings   int64                 `json:"total_savings"`
	Discounts      []DiscountLine        `json:"discounts"`
	ActiveCampaign *catalog.CampaignItem `json:"active_campaign,omitempty"`
}

// CartLine is one client-submitted cart row. Price is a display hint echoed
// by the client and is never trusted; the server re-derives it.
type CartLine struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     int64   `json:"price"`
}

type LineQuote struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	Unit      Quote   `json:"unit"`
	Subtotal  int64   `json:"subtotal"`
}

// CartQuote is the re-priced cart: line totals, 1% tax, and the grand total
// the client's claimed number is checked against.
type CartQuote struct {
	Lines      []LineQuote `json:"lines"`
	ItemsPrice int64       `json:"items_price"`
	TaxPrice   int64       `json:"tax_price"`
	TotalPrice int64       `json:"total_price"`
}
