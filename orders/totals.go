package orders

import "snack-gateway/models"

// DeliveryFee is charged once per non-empty order.
const DeliveryFee int64 = 3000

type Breakdown struct {
	TotalQuantity int   `json:"totalQuantity"`
	ProductAmount int64 `json:"productAmount"`
	DeliveryFee   int64 `json:"deliveryFee"`
	TotalAmount   int64 `json:"totalAmount"`
}

func Totals(lines []models.CartLine) Breakdown {
	var b Breakdown
	for _, l := range lines {
		b.TotalQuantity += l.Quantity
		b.ProductAmount += l.Price * int64(l.Quantity)
	}
	if len(lines) > 0 {
		b.DeliveryFee = DeliveryFee
	}
	b.TotalAmount = b.ProductAmount + b.DeliveryFee
	return b
}
