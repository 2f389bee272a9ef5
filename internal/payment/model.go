package payment

// Notification is the payment gateway's asynchronous status callback.
// The vocabulary is the gateway's own ("pending", "settlement", "capture",
// "deny", "cancel", "expire"); orders store it nearly verbatim.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code,omitempty"`
	GrossAmount       string `json:"gross_amount,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
}

// ResolveStatus maps the vendor status pair to the stored payment status.
// Pass-through except for "capture", which only counts as settled when the
// fraud screen accepted it; a challenged capture stays pending until the
// gateway re-notifies.
func ResolveStatus(transactionStatus, fraudStatus string) string {
	if transactionStatus == "capture" {
		switch fraudStatus {
		case "accept":
			return "settlement"
		case "challenge":
			return "pending"
		default:
			return "deny"
		}
	}
	return transactionStatus
}
