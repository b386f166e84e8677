package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"petale/internal/db"

	"github.com/lib/pq"
)

// SlotRepository persists pre-order capacity slots. One row exists per (slot_date,
// slot_window) pair, enforced by a unique key; all reserved-count changes go through
// single-statement updates so concurrent requests never see a read-then-write gap.
type SlotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(database *sql.DB) *SlotRepository {
	return &SlotRepository{DB: database}
}

const slotColumns = `id, slot_date, slot_window, capacity, reserved, is_blackout, created_at, updated_at`

func scanSlot(row *sql.Row) (*db.Slot, error) {
	var s db.Slot
	err := row.Scan(&s.ID, &s.SlotDate, &s.SlotWindow, &s.Capacity, &s.Reserved, &s.IsBlackout, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// EnsureSlot creates the row with the given default capacity if it does not exist yet.
// ON CONFLICT DO NOTHING keeps concurrent creators from clobbering each other.
func (r *SlotRepository) EnsureSlot(date, window string, capacity int) error {
	query := `
		INSERT INTO preorder_slots (slot_date, slot_window, capacity, reserved, is_blackout)
		VALUES ($1, $2, $3, 0, FALSE)
		ON CONFLICT (slot_date, slot_window) DO NOTHING`
	if _, err := r.DB.Exec(query, date, window, capacity); err != nil {
		return fmt.Errorf("error ensuring slot %s %s: %w", date, window, err)
	}
	return nil
}

// AddReserved atomically adds delta (which may be negative) to the slot's reserved count
// and returns the post-update row. Returns nil when no row exists for the key.
func (r *SlotRepository) AddReserved(date, window string, delta float64) (*db.Slot, error) {
	query := `
		UPDATE preorder_slots
		SET reserved = reserved + $3, updated_at = now()
		WHERE slot_date = $1 AND slot_window = $2
		RETURNING ` + slotColumns
	slot, err := scanSlot(r.DB.QueryRow(query, date, window, delta))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error updating reserved for %s %s: %w", date, window, err)
	}
	return slot, nil
}

// GetSlot returns the slot for the key, or nil when none exists.
func (r *SlotRepository) GetSlot(date, window string) (*db.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM preorder_slots WHERE slot_date = $1 AND slot_window = $2`
	slot, err := scanSlot(r.DB.QueryRow(query, date, window))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying slot %s %s: %w", date, window, err)
	}
	return slot, nil
}

// GetSlots returns the stored rows for a date restricted to the given windows. Windows
// without a row are simply absent from the result.
func (r *SlotRepository) GetSlots(date string, windows []string) ([]db.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM preorder_slots
		WHERE slot_date = $1 AND slot_window = ANY($2)
		ORDER BY slot_window`
	rows, err := r.DB.Query(query, date, pq.Array(windows))
	if err != nil {
		return nil, fmt.Errorf("error querying slots for %s: %w", date, err)
	}
	defer rows.Close()

	var slots []db.Slot
	for rows.Next() {
		var s db.Slot
		if err := rows.Scan(&s.ID, &s.SlotDate, &s.SlotWindow, &s.Capacity, &s.Reserved, &s.IsBlackout, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning slot row: %w", err)
		}
		slots = append(slots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating slot rows: %w", err)
	}
	return slots, nil
}

// UpsertCapacity sets the slot's capacity and clears any blackout override. An existing
// reserved count is preserved; it only defaults to zero on first creation.
func (r *SlotRepository) UpsertCapacity(date, window string, capacity int) (*db.Slot, error) {
	query := `
		INSERT INTO preorder_slots (slot_date, slot_window, capacity, reserved, is_blackout)
		VALUES ($1, $2, $3, 0, FALSE)
		ON CONFLICT (slot_date, slot_window)
		DO UPDATE SET capacity = EXCLUDED.capacity, is_blackout = FALSE, updated_at = now()
		RETURNING ` + slotColumns
	slot, err := scanSlot(r.DB.QueryRow(query, date, window, capacity))
	if err != nil {
		return nil, fmt.Errorf("error upserting capacity for %s %s: %w", date, window, err)
	}
	return slot, nil
}

// UpsertBlackout sets the blackout flag, creating the row with the given default capacity
// when missing. Capacity and reserved on an existing row are left untouched.
func (r *SlotRepository) UpsertBlackout(date, window string, capacity int, isBlackout bool) (*db.Slot, error) {
	query := `
		INSERT INTO preorder_slots (slot_date, slot_window, capacity, reserved, is_blackout)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (slot_date, slot_window)
		DO UPDATE SET is_blackout = EXCLUDED.is_blackout, updated_at = now()
		RETURNING ` + slotColumns
	slot, err := scanSlot(r.DB.QueryRow(query, date, window, capacity, isBlackout))
	if err != nil {
		return nil, fmt.Errorf("error upserting blackout for %s %s: %w", date, window, err)
	}
	return slot, nil
}
