package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"petale/internal/config"
	"petale/internal/db"
	"petale/internal/entities"
)

var (
	// ErrInvalidReservation means the date, window or quantity was malformed. Storage is
	// never touched in that case.
	ErrInvalidReservation = errors.New("invalid reservation parameters")
	// ErrSoldOut means the reservation would exceed the window's capacity. The attempted
	// increment has already been compensated when this is returned.
	ErrSoldOut = errors.New("sold out")
)

// CompensationError reports that the rollback of an oversold reservation attempt could not
// be applied. The slot's reserved count is left inflated by Qty until an operator fixes it,
// so this must never be swallowed.
type CompensationError struct {
	Date   string
	Window string
	Qty    float64
	Err    error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("failed to compensate oversold reservation of %v for %s (%s): %v", e.Qty, e.Date, e.Window, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// SlotStore is the persistence contract the ledger needs. The Postgres implementation lives
// in repository.SlotRepository; tests use an in-memory store with the same atomicity.
type SlotStore interface {
	// EnsureSlot creates the (date, window) row with the given capacity if absent.
	// Must be idempotent under concurrent creators.
	EnsureSlot(date, window string, capacity int) error
	// AddReserved atomically adds delta to the slot's reserved count and returns the
	// post-update row, or nil when no row exists.
	AddReserved(date, window string, delta float64) (*db.Slot, error)
	// GetSlot returns the slot or nil when absent.
	GetSlot(date, window string) (*db.Slot, error)
	// GetSlots returns stored rows for the date restricted to the given windows.
	GetSlots(date string, windows []string) ([]db.Slot, error)
	UpsertCapacity(date, window string, capacity int) (*db.Slot, error)
	UpsertBlackout(date, window string, capacity int, isBlackout bool) (*db.Slot, error)
}

const compensationAttempts = 5

// PreorderService is the capacity ledger: it derives availability from the schedule rules
// plus stored slot state, and performs the atomic reserve/release operations orders depend
// on. All methods are safe for concurrent use; correctness comes from the store's atomic
// primitives, not from any in-process lock.
type PreorderService struct {
	Rules config.ScheduleRules
	Store SlotStore

	now func() time.Time
}

func NewPreorderService(rules config.ScheduleRules, store SlotStore) *PreorderService {
	return &PreorderService{Rules: rules, Store: store, now: time.Now}
}

// minOrderableDate is the earliest delivery day currently accepted. The lead time counts
// full calendar days between the business-local current day and the delivery date, so with
// a 2-day lead time on a Wednesday the earliest delivery is Saturday. Past the cutoff hour
// the current day no longer counts and everything moves one day further out.
func (s *PreorderService) minOrderableDate() time.Time {
	now := s.now().In(s.Rules.Location)
	days := s.Rules.LeadTimeDays + 1
	if now.Hour() >= s.Rules.CutoffHour {
		days++
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Rules.Location)
	return today.AddDate(0, 0, days)
}

// Availability computes the orderable windows for a date. Pure read: schedule rules plus
// current slot state, no side effects.
func (s *PreorderService) Availability(date string) (*entities.AvailabilityResponse, error) {
	normalized := entities.NormalizeDate(date)
	if normalized == "" {
		return nil, ErrInvalidReservation
	}
	target, err := time.ParseInLocation("2006-01-02", normalized, s.Rules.Location)
	if err != nil {
		return nil, ErrInvalidReservation
	}

	resp := &entities.AvailabilityResponse{Date: normalized, Windows: []entities.WindowAvailability{}}

	if target.Before(s.minOrderableDate()) {
		resp.IsBlackout = true
		resp.Reason = entities.ReasonLeadTime
		return resp, nil
	}
	if s.Rules.BlackoutWeekdays[target.Weekday()] {
		resp.IsBlackout = true
		resp.Reason = entities.ReasonBlackout
		return resp, nil
	}

	windows := s.Rules.WindowsFor(target.Weekday())
	slots, err := s.Store.GetSlots(normalized, windows)
	if err != nil {
		return nil, fmt.Errorf("error loading slots for %s: %w", normalized, err)
	}
	byWindow := make(map[string]db.Slot, len(slots))
	for _, slot := range slots {
		byWindow[slot.SlotWindow] = slot
	}

	for _, w := range windows {
		capacity := s.Rules.DefaultCapacityPerWindow
		reserved := 0.0
		if slot, ok := byWindow[w]; ok {
			capacity = slot.Capacity
			reserved = slot.Reserved
			if slot.IsBlackout {
				// An admin blacked out this day: the whole date is unavailable.
				resp.Windows = resp.Windows[:0]
				resp.IsBlackout = true
				resp.Reason = entities.ReasonBlackout
				return resp, nil
			}
		}
		remaining := float64(capacity) - reserved
		if remaining < 0 {
			remaining = 0
		}
		resp.Windows = append(resp.Windows, entities.WindowAvailability{
			Window:    w,
			Capacity:  capacity,
			Reserved:  reserved,
			Remaining: remaining,
		})
	}
	return resp, nil
}

// Reserve atomically claims qty capacity units for (date, window). The slot row is created
// lazily with the default capacity. The increment and the read-back happen in one atomic
// step; when the post-increment total exceeds capacity the increment is undone and
// ErrSoldOut is returned, leaving the slot as if the attempt never happened.
//
// Under contention this is deliberately not first-come-first-served: whichever caller's
// increment pushed the total over capacity is the one rolled back. The invariant that no
// confirmed reservation oversells the slot holds at all times.
func (s *PreorderService) Reserve(date, window string, qty float64) (*db.Slot, error) {
	normalized := entities.NormalizeDate(date)
	if normalized == "" || window == "" || qty <= 0 {
		return nil, ErrInvalidReservation
	}

	if err := s.Store.EnsureSlot(normalized, window, s.Rules.DefaultCapacityPerWindow); err != nil {
		return nil, fmt.Errorf("error ensuring slot %s %s: %w", normalized, window, err)
	}

	slot, err := s.Store.AddReserved(normalized, window, qty)
	if err != nil {
		return nil, fmt.Errorf("error reserving capacity for %s %s: %w", normalized, window, err)
	}
	if slot == nil {
		return nil, fmt.Errorf("capacity reservation failed for %s %s: slot missing after ensure", normalized, window)
	}

	if slot.Reserved > float64(slot.Capacity) {
		if err := s.compensate(normalized, window, qty); err != nil {
			return nil, err
		}
		return nil, ErrSoldOut
	}

	log.Printf("Reserved %v units for %s (%s), total reserved now %v", qty, normalized, window, slot.Reserved)
	return slot, nil
}

// compensate undoes an oversold increment. A failed compensation would permanently corrupt
// the reserved count, so it is retried with backoff and escalated loudly if it still fails.
func (s *PreorderService) compensate(date, window string, qty float64) error {
	var lastErr error
	for attempt := 1; attempt <= compensationAttempts; attempt++ {
		if _, lastErr = s.Store.AddReserved(date, window, -qty); lastErr == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * 20 * time.Millisecond)
	}
	cerr := &CompensationError{Date: date, Window: window, Qty: qty, Err: lastErr}
	log.Printf("ALERT: %v", cerr)
	return cerr
}

// Release returns qty units to the slot. Best effort: it clamps at the currently reserved
// amount and never fails the calling workflow; an order rejection must go through even when
// the ledger state has drifted.
func (s *PreorderService) Release(date, window string, qty float64) {
	normalized := entities.NormalizeDate(date)
	if normalized == "" || window == "" || qty <= 0 {
		log.Printf("WARN: skipping capacity release, invalid parameters (date=%q window=%q qty=%v)", date, window, qty)
		return
	}

	slot, err := s.Store.GetSlot(normalized, window)
	if err != nil {
		log.Printf("ALERT: error loading slot for release %s (%s): %v", normalized, window, err)
		return
	}
	if slot == nil {
		log.Printf("WARN: slot not found for release: %s %s", normalized, window)
		return
	}

	dec := qty
	if slot.Reserved < dec {
		dec = slot.Reserved
	}
	if dec <= 0 {
		return
	}

	if _, err := s.Store.AddReserved(normalized, window, -dec); err != nil {
		log.Printf("ALERT: failed to release %v units for %s (%s): %v", dec, normalized, window, err)
		return
	}
	log.Printf("Released %v units for %s (%s)", dec, normalized, window)
}

// SetCapacity overrides a single slot's capacity and clears its blackout flag. Existing
// reservations are preserved.
func (s *PreorderService) SetCapacity(date, window string, capacity int) (*db.Slot, error) {
	normalized := entities.NormalizeDate(date)
	if normalized == "" || window == "" || capacity < 0 {
		return nil, ErrInvalidReservation
	}
	return s.Store.UpsertCapacity(normalized, window, capacity)
}

// SetBlackout marks every window valid on the date's weekday as (un)available, creating
// missing rows with the default capacity. Batch edit across the whole day.
func (s *PreorderService) SetBlackout(date string, isBlackout bool) ([]db.Slot, error) {
	normalized := entities.NormalizeDate(date)
	if normalized == "" {
		return nil, ErrInvalidReservation
	}
	target, err := time.ParseInLocation("2006-01-02", normalized, s.Rules.Location)
	if err != nil {
		return nil, ErrInvalidReservation
	}

	var slots []db.Slot
	for _, w := range s.Rules.WindowsFor(target.Weekday()) {
		slot, err := s.Store.UpsertBlackout(normalized, w, s.Rules.DefaultCapacityPerWindow, isBlackout)
		if err != nil {
			return nil, fmt.Errorf("error setting blackout for %s %s: %w", normalized, w, err)
		}
		slots = append(slots, *slot)
	}
	return slots, nil
}
