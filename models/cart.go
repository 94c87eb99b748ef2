package models

// CartLine is one product entry in a user's cart.
type CartLine struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// ItemSnapshot carries the display fields of a catalog item at the moment it is added.
type ItemSnapshot struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
	Image string `json:"image"`
}

// AddCartItemRequest is the upstream add-to-cart body.
type AddCartItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	Title    string `json:"title,omitempty"`
	Price    int64  `json:"price,omitempty"`
	Image    string `json:"image,omitempty"`
}

type AddToCartRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Title    string `json:"title"`
	Price    int64  `json:"price" binding:"min=0"`
	Image    string `json:"image"`
}

// Quantity may be below 1, which removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type RemoveSelectedRequest struct {
	ItemIDs []string `json:"itemIds" binding:"required,min=1"`
}

type CartResponse struct {
	Items  []CartLine `json:"items"`
	Count  int        `json:"count"`
	Loaded bool       `json:"loaded"`
	// Warning is set when the upstream failed but the local state was still changed.
	Warning string `json:"warning,omitempty"`
}
