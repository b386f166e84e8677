package entities

import "strings"

// CheckoutItem is one cart line as submitted by the storefront.
type CheckoutItem struct {
	ProductID     int     `json:"productId"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Quantity      float64 `json:"quantity"`
	CapacityUnits float64 `json:"capacityUnits"`
	Image         string  `json:"image"`
}

type CheckoutAddress struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	Zip          string `json:"zip"`
	Instructions string `json:"instructions"`
}

type CheckoutCustomer struct {
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	Phone   string           `json:"phone"`
	Address *CheckoutAddress `json:"address"`
}

// CheckoutRequest is the raw checkout body. Two client generations are in the wild: the
// current one nests customer data and uses scheduledFor/window, the legacy one put the same
// fields at the root as deliveryDate/deliveryTime. Normalize merges both into one shape so
// nothing past the API boundary has to know the history.
type CheckoutRequest struct {
	Items    []CheckoutItem    `json:"items"`
	Customer *CheckoutCustomer `json:"customer"`

	// Current shape.
	ScheduledFor string `json:"scheduledFor"` // YYYY-MM-DD
	Window       string `json:"window"`       // HH:MM-HH:MM

	// Legacy root fields.
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone"`
	Address      *CheckoutAddress `json:"address"`
	DeliveryDate string           `json:"deliveryDate"`
	DeliveryTime string           `json:"deliveryTime"`

	DeliveryFee *float64 `json:"deliveryFee"`
	Discount    float64  `json:"discount"`
	Tip         float64  `json:"tip"`
	Tax         float64  `json:"tax"`
	Total       float64  `json:"total"`
	Notes       string   `json:"notes"`
}

// CheckoutOrder is the canonical internal checkout request produced by Normalize.
type CheckoutOrder struct {
	Name    string
	Email   string
	Phone   string
	Address CheckoutAddress

	Date   string // canonical YYYY-MM-DD
	Window string

	Items []CheckoutItem

	DeliveryFee float64
	Discount    float64
	Tip         float64
	Tax         float64
	Total       float64
	Notes       string
}

// Normalize merges the current and legacy field shapes, preferring the current one, and
// canonicalizes the delivery date. The returned missing list names any required field that
// could not be resolved from either shape; the order is only usable when it is empty.
func (r CheckoutRequest) Normalize(defaultDeliveryFee float64) (CheckoutOrder, []string) {
	out := CheckoutOrder{
		Items:    r.Items,
		Discount: r.Discount,
		Tip:      r.Tip,
		Tax:      r.Tax,
		Total:    r.Total,
		Notes:    r.Notes,
	}

	if r.Customer != nil {
		out.Name = strings.TrimSpace(r.Customer.Name)
		out.Email = strings.TrimSpace(r.Customer.Email)
		out.Phone = strings.TrimSpace(r.Customer.Phone)
		if r.Customer.Address != nil {
			out.Address = *r.Customer.Address
		}
	}
	if out.Name == "" {
		out.Name = strings.TrimSpace(r.Name)
	}
	if out.Email == "" {
		out.Email = strings.TrimSpace(r.Email)
	}
	if out.Phone == "" {
		out.Phone = strings.TrimSpace(r.Phone)
	}
	if out.Address == (CheckoutAddress{}) && r.Address != nil {
		out.Address = *r.Address
	}

	if r.ScheduledFor != "" {
		out.Date = NormalizeDate(r.ScheduledFor)
	} else {
		out.Date = NormalizeDate(r.DeliveryDate)
	}
	out.Window = strings.TrimSpace(r.Window)
	if out.Window == "" {
		out.Window = strings.TrimSpace(r.DeliveryTime)
	}

	if r.DeliveryFee != nil {
		out.DeliveryFee = *r.DeliveryFee
	} else {
		out.DeliveryFee = defaultDeliveryFee
	}

	var missing []string
	if out.Name == "" {
		missing = append(missing, "name")
	}
	if out.Date == "" {
		missing = append(missing, "scheduledFor/deliveryDate")
	}
	if out.Window == "" {
		missing = append(missing, "window/deliveryTime")
	}
	return out, missing
}
