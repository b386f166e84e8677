package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"petale/internal/db"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetForDeliveryOrderIDsPastDate returns orders still marked "For Delivery" whose delivery
// date is before the given business-local day.
func (r *JobRepository) GetForDeliveryOrderIDsPastDate(today string) ([]int, error) {
	query := `SELECT id FROM orders WHERE stage = $1 AND delivery_date < $2`
	rows, err := r.DB.Query(query, db.StageForDelivery, today)
	if err != nil {
		return nil, fmt.Errorf("error querying for-delivery orders past date: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning order ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// UpdateOrderStages moves a batch of orders to a new stage.
func (r *JobRepository) UpdateOrderStages(ids []int, stage string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE orders SET stage = $1, updated_at = now() WHERE id = ANY($2)`
	result, err := r.DB.Exec(query, stage, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error updating order stages: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
	} else {
		log.Printf("Updated stage for %d orders to '%s'", rowsAffected, stage)
	}
	return nil
}

// GetStalePendingOrders returns Pending orders created before the given time, with the
// fields the purge job needs to release their reserved capacity.
func (r *JobRepository) GetStalePendingOrders(before time.Time) ([]db.Order, error) {
	query := `
		SELECT id, name, email, delivery_date, delivery_time, reserved_units, capacity_released
		FROM orders WHERE stage = $1 AND created_at < $2`
	rows, err := r.DB.Query(query, db.StagePending, before)
	if err != nil {
		return nil, fmt.Errorf("error querying stale pending orders: %w", err)
	}
	defer rows.Close()

	var orders []db.Order
	for rows.Next() {
		var o db.Order
		if err := rows.Scan(&o.ID, &o.Name, &o.Email, &o.DeliveryDate, &o.DeliveryTime, &o.ReservedUnits, &o.CapacityReleased); err != nil {
			return nil, fmt.Errorf("error scanning stale pending order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
