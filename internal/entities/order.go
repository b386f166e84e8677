package entities

import "time"

type OrderItemResponse struct {
	ProductID     int     `json:"productId,omitempty"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Quantity      float64 `json:"quantity"`
	Subtotal      float64 `json:"subtotal"`
	CapacityUnits float64 `json:"capacityUnits"`
	Image         string  `json:"image,omitempty"`
}

type OrderResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	Items []OrderItemResponse `json:"products"`

	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tip      float64 `json:"tip"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`

	PaymentMethod string `json:"paymentMethod"`
	IsPaid        bool   `json:"isPaid"`

	Address CheckoutAddress `json:"address"`

	DeliveryDate   string `json:"deliveryDate"`
	DeliveryTime   string `json:"deliveryTime"`
	DeliveryMethod string `json:"deliveryMethod"`
	DeliveryStatus string `json:"deliveryStatus"`

	Stage           string `json:"stage"`
	RejectionReason string `json:"rejectionReason,omitempty"`
	Notes           string `json:"notes,omitempty"`

	ReservedUnits    float64 `json:"reservedUnits"`
	CapacityReleased bool    `json:"capacityReleased"`

	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateOrderRequest carries the admin-editable order fields; nil/empty fields are ignored.
type UpdateOrderRequest struct {
	Stage           string `json:"stage"`
	DeliveryDate    string `json:"deliveryDate"`
	DeliveryTime    string `json:"deliveryTime"`
	DeliveryStatus  string `json:"deliveryStatus"`
	Notes           string `json:"notes"`
	RejectionReason string `json:"rejectionReason"`
	Address         *CheckoutAddress `json:"address"`
}
