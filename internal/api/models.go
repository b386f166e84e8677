package api

import (
	"encoding/json"
	"net/http"

	"petale/internal/db"
	"petale/internal/entities"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func toOrderResponse(o *db.Order) entities.OrderResponse {
	resp := entities.OrderResponse{
		ID:    o.ID,
		Name:  o.Name,
		Email: o.Email,
		Phone: o.Phone,

		Subtotal: o.Subtotal,
		Discount: o.Discount,
		Tip:      o.Tip,
		Tax:      o.Tax,
		Total:    o.Total,

		PaymentMethod: o.PaymentMethod,
		IsPaid:        o.IsPaid,

		Address: entities.CheckoutAddress{
			Street:       o.AddressStreet,
			City:         o.AddressCity,
			Zip:          o.AddressZip,
			Instructions: o.AddressInstructions,
		},

		DeliveryDate:   o.DeliveryDate,
		DeliveryTime:   o.DeliveryTime,
		DeliveryMethod: o.DeliveryMethod,
		DeliveryStatus: o.DeliveryStatus,

		Stage:           o.Stage,
		RejectionReason: o.RejectionReason,
		Notes:           o.Notes,

		ReservedUnits:    o.ReservedUnits,
		CapacityReleased: o.CapacityReleased,

		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, entities.OrderItemResponse{
			ProductID:     item.ProductID,
			Name:          item.Name,
			Price:         item.Price,
			Quantity:      item.Quantity,
			Subtotal:      item.Subtotal,
			CapacityUnits: item.CapacityUnits,
			Image:         item.Image,
		})
	}
	return resp
}

func toProductResponse(p *db.Product) entities.ProductResponse {
	resp := entities.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price,
		FinalPrice:    p.FinalPrice(),
		Category:      p.Category,
		Status:        p.Status,
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		Images:        p.Images,
		MainImageIdx:  p.MainImageIdx,

		PreorderEnabled: p.PreorderEnabled,
		LeadTimeDays:    p.LeadTimeDays,
		CapacityUnits:   p.CapacityUnits,
		DeliveryOnly:    p.DeliveryOnly,

		IsBundle: p.IsBundle,

		Tags:      p.Tags,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, item := range p.BundleItems {
		resp.BundleItems = append(resp.BundleItems, entities.BundleItemPayload{
			Name:       item.Name,
			Image:      item.Image,
			Quantity:   item.Quantity,
			ProductRef: item.ProductRef,
		})
	}
	return resp
}

func toExpenseResponse(e *db.Expense) entities.ExpenseResponse {
	return entities.ExpenseResponse{
		ID:       e.ID,
		Label:    e.Label,
		Category: e.Category,
		Amount:   e.Amount,
		SpentAt:  e.SpentAt,
		Notes:    e.Notes,
	}
}
