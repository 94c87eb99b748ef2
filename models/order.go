package models

import "time"

// OrderStatus is the upstream status code of a purchase request.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderApproved  OrderStatus = "approved"
	OrderRejected  OrderStatus = "rejected"
	OrderCancelled OrderStatus = "cancelled"
)

var statusLabels = map[OrderStatus]string{
	OrderPending:   "승인 대기",
	OrderApproved:  "승인 완료",
	OrderRejected:  "구매 반려",
	OrderCancelled: "요청 반려",
}

// Label returns the display string shown to users.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s OrderStatus) IsPending() bool {
	return s == OrderPending
}

// ParseOrderStatus accepts either an upstream code or a display label.
func ParseOrderStatus(raw string) OrderStatus {
	for code, label := range statusLabels {
		if raw == string(code) || raw == label {
			return code
		}
	}
	switch raw {
	case "PENDING", "requested":
		return OrderPending
	case "APPROVED":
		return OrderApproved
	case "REJECTED":
		return OrderRejected
	case "CANCELLED", "canceled":
		return OrderCancelled
	}
	return OrderStatus(raw)
}

// Order is a persisted purchase request summary.
type Order struct {
	ID            string      `json:"id"`
	RequestDate   time.Time   `json:"requestDate"`
	ProductLabel  string      `json:"productLabel"`
	TotalQuantity int         `json:"totalQuantity"`
	OrderAmount   int64       `json:"orderAmount"`
	Status        OrderStatus `json:"status"`
	StatusLabel   string      `json:"statusLabel"`
}

type OrderDetailItem struct {
	Image      string `json:"image"`
	Category   string `json:"category"`
	Name       string `json:"name"`
	UnitPrice  int64  `json:"unitPrice"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"totalPrice"`
}

type Person struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// OrderDetail is read-only; totals are whatever the upstream reports.
type OrderDetail struct {
	Order
	Items          []OrderDetailItem `json:"items"`
	Requester      *Person           `json:"requester,omitempty"`
	Approver       *Person           `json:"approver,omitempty"`
	ApprovedAt     *time.Time        `json:"approvedAt,omitempty"`
	RequestMessage string            `json:"requestMessage,omitempty"`
	ResultMessage  string            `json:"resultMessage,omitempty"`
	TotalCount     int               `json:"totalCount"`
	TotalAmount    int64             `json:"totalAmount"`
}

type OrderLine struct {
	ItemID   string `json:"itemId"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
	Image    string `json:"image,omitempty"`
}

// CreateOrderRequest is the upstream order-create body.
type CreateOrderRequest struct {
	Items          []OrderLine `json:"items"`
	TotalQuantity  int         `json:"total_quantity"`
	ProductAmount  int64       `json:"product_amount"`
	DeliveryFee    int64       `json:"delivery_fee"`
	TotalAmount    int64       `json:"total_amount"`
	RequestMessage string      `json:"request_message,omitempty"`
}

// PurchaseComplete is the one-shot summary read by the confirmation screen.
type PurchaseComplete struct {
	FirstProductTitle string `json:"firstProductTitle"`
	FirstProductImage string `json:"firstProductImage"`
	TotalQuantity     int    `json:"totalQuantity"`
	TotalAmount       int64  `json:"totalAmount"`
	Message           string `json:"message,omitempty"`
}

type SubmitOrderRequest struct {
	ItemIDs []string `json:"itemIds"`
	Message string   `json:"message"`
}

type InstantOrderRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Price    int64  `json:"price" binding:"min=0"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Message  string `json:"message"`
}

type SubmitOrderResponse struct {
	Order            Order            `json:"order"`
	PurchaseComplete PurchaseComplete `json:"purchaseComplete"`
	Cart             []CartLine       `json:"cart"`
}
