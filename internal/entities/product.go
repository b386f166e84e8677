package entities

import "time"

type BundleItemPayload struct {
	Name       string  `json:"name"`
	Image      string  `json:"image,omitempty"`
	Quantity   float64 `json:"quantity"`
	ProductRef int     `json:"productRef,omitempty"`
}

// ProductRequest is the admin create/update payload for a catalog product.
type ProductRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Category      string   `json:"category"`
	Status        string   `json:"status"`
	DiscountType  string   `json:"discountType"`
	DiscountValue float64  `json:"discountValue"`
	Images        []string `json:"images"`
	MainImageIdx  int      `json:"mainImageIndex"`

	PreorderEnabled *bool   `json:"preorderEnabled"`
	LeadTimeDays    int     `json:"leadTimeDays"`
	CapacityUnits   float64 `json:"capacityUnits"`

	IsBundle    bool                `json:"isBundle"`
	BundleItems []BundleItemPayload `json:"bundleItems"`

	Tags []string `json:"tags"`
}

type ProductResponse struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	FinalPrice    float64  `json:"finalPrice"`
	Category      string   `json:"category"`
	Status        string   `json:"status"`
	DiscountType  string   `json:"discountType"`
	DiscountValue float64  `json:"discountValue"`
	Images        []string `json:"images"`
	MainImageIdx  int      `json:"mainImageIndex"`

	PreorderEnabled bool    `json:"preorderEnabled"`
	LeadTimeDays    int     `json:"leadTimeDays"`
	CapacityUnits   float64 `json:"capacityUnits"`
	DeliveryOnly    bool    `json:"deliveryOnly"`

	IsBundle    bool                `json:"isBundle"`
	BundleItems []BundleItemPayload `json:"bundleItems"`

	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
