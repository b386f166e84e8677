package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"petale/internal/entities"
	"petale/internal/service"
)

type PreorderHandler struct {
	Service *service.PreorderService
}

func NewPreorderHandler(svc *service.PreorderService) *PreorderHandler {
	return &PreorderHandler{Service: svc}
}

// Availability handles GET /api/preorder/availability?date=YYYY-MM-DD.
func (h *PreorderHandler) Availability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date required", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.Availability(date)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReservation) {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		http.Error(w, "Error checking availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetCapacity handles POST /api/admin/preorder/capacity.
func (h *PreorderHandler) SetCapacity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date     string `json:"date"`
		Window   string `json:"window"`
		Capacity *int   `json:"capacity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.Window == "" || req.Capacity == nil {
		http.Error(w, "Missing date/window/capacity", http.StatusBadRequest)
		return
	}

	slot, err := h.Service.SetCapacity(req.Date, req.Window, *req.Capacity)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReservation) {
			http.Error(w, "Invalid date/window/capacity", http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not update capacity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entities.WindowAvailability{
		Window:    slot.SlotWindow,
		Capacity:  slot.Capacity,
		Reserved:  slot.Reserved,
		Remaining: slot.Remaining(),
	})
}

// SetBlackout handles POST /api/admin/preorder/blackout. Applies to every window of the
// date's weekday.
func (h *PreorderHandler) SetBlackout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date       string `json:"date"`
		IsBlackout *bool  `json:"isBlackout"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		http.Error(w, "Missing date", http.StatusBadRequest)
		return
	}
	isBlackout := true
	if req.IsBlackout != nil {
		isBlackout = *req.IsBlackout
	}

	if _, err := h.Service.SetBlackout(req.Date, isBlackout); err != nil {
		if errors.Is(err, service.ErrInvalidReservation) {
			http.Error(w, "Invalid date", http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not update blackout", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
