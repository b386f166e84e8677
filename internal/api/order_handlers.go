package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"petale/internal/entities"
	"petale/internal/service"

	"github.com/gorilla/mux"
)

type OrderHandler struct {
	Service     *service.OrderService
	DeliveryFee float64
}

func NewOrderHandler(svc *service.OrderService, deliveryFee float64) *OrderHandler {
	return &OrderHandler{Service: svc, DeliveryFee: deliveryFee}
}

// CreateOrder handles POST /api/checkout/create-order. Accepts both the current and the
// legacy checkout body shape.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req entities.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	checkout, missing := req.Normalize(h.DeliveryFee)
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Missing required fields",
			"missing": missing,
		})
		return
	}

	order, err := h.Service.CreateOrder(checkout)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSoldOut):
			http.Error(w, "That delivery window is no longer available, please pick another slot", http.StatusConflict)
		case errors.Is(err, service.ErrInvalidReservation), errors.Is(err, service.ErrEmptyOrder):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"orderId": order.ID,
		"order":   toOrderResponse(order),
	})
}

// ListOrders handles GET /api/admin/orders?stage=&date=.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	stage := r.URL.Query().Get("stage")
	date := r.URL.Query().Get("date")

	orders, err := h.Service.ListOrders(stage, date)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	resp := make([]entities.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	order, err := h.Service.GetOrder(id)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateOrder handles PUT /api/admin/orders/{id}: stage moves, reschedules, notes.
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req entities.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	order, err := h.Service.UpdateOrder(id, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReservation) {
			http.Error(w, "Invalid delivery date", http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not update order", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order updated successfully",
		"order":   toOrderResponse(order),
	})
}

// RejectOrder handles POST /api/admin/orders/{id}/reject: releases held capacity exactly
// once, emails the customer and removes the order.
func (h *OrderHandler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.Service.RejectOrder(id, req.Reason); err != nil {
		http.Error(w, "Could not reject order", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order rejected, slots released, and deleted."})
}

func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteOrder(id); err != nil {
		http.Error(w, "Could not delete order", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}
