package pricing

import "lokapasar-be/internal/catalog"

// ResolveQuote computes the authoritative unit price: seller discount first,
// then the single best-priority campaign whose stock gate is open. Campaigns
// never stack with each other. Read-only: sold counts are untouched.
//
// campaignItems must already be filtered to running campaigns and ordered by
// priority descending (catalog.Repository guarantees both); ties keep input
// order.
func ResolveQuote(regularPrice int64, sellerDiscount int, campaignItems []catalog.CampaignItem) Quote {
	q := Quote{
		RegularPrice: regularPrice,
		FinalPrice:   regularPrice,
	}

	if sellerDiscount > 0 {
		amount := roundPercent(q.FinalPrice, int64(sellerDiscount))
		q.FinalPrice -= amount
		q.Discounts = append(q.Discounts, DiscountLine{
			Kind:   DiscountSeller,
			Label:  "seller discount",
			Amount: amount,
		})
	}

	for i := range campaignItems {
		ci := campaignItems[i]
		if !ci.StockOpen() {
			// Exhausted campaign: skip entirely, fall through to the
			// next-priority one.
			continue
		}

		var amount int64
		switch ci.DiscountType {
		case catalog.DiscountPercent:
			amount = roundPercent(q.FinalPrice, ci.DiscountValue)
		case catalog.DiscountFixed:
			amount = min(ci.DiscountValue, q.FinalPrice)
		}

		q.FinalPrice -= amount
		q.Discounts = append(q.Discounts, DiscountLine{
			Kind:   DiscountCampaign,
			Label:  ci.CampaignName,
			Amount: amount,
		})
		q.ActiveCampaign = &ci

		// Only the single best-priority available campaign applies.
		break
	}

	if q.FinalPrice < 0 {
		q.FinalPrice = 0
	}
	q.TotalSavings = q.RegularPrice - q.FinalPrice

	return q
}

// roundPercent returns pct% of amount in integer currency units, rounded
// half up.
func roundPercent(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}
