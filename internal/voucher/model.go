package voucher

import "time"

type Type string

const (
	TypePercentage  Type = "PERCENTAGE"
	TypeFixedAmount Type = "FIXED_AMOUNT"
)

type ApplicationType string

const (
	ApplyAll              ApplicationType = "ALL"
	ApplySpecificProducts ApplicationType = "SPECIFIC_PRODUCTS"
	ApplySpecificVariants ApplicationType = "SPECIFIC_VARIANTS"
)

type Voucher struct {
	ID              string
	Code            string
	IsActive        bool
	StartDate       time.Time
	Expires         *time.Time
	TotalLimit      *int
	LimitPerUser    *int
	UsedCount       int
	Type            Type
	Value           int64
	ApplicationType ApplicationType
	MinPurchase     *int64
	ProductIDs      []string
	VariantIDs      []string
}

// Result is the outcome of one validation attempt. A failed validation is
// not an error: Reason carries the user-facing explanation and system
// errors travel separately.
type Result struct {
	Valid    bool
	Voucher  *Voucher
	Discount int64
	Reason   Reason
}

type ValidateInput struct {
	Code       string
	UserID     uint
	OrderTotal int64
	ProductIDs []string
	VariantIDs []string
}
