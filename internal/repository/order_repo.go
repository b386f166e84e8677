package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"petale/internal/db"

	"github.com/lib/pq"
)

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(database *sql.DB) *OrderRepository {
	return &OrderRepository{DB: database}
}

const orderColumns = `
	id, name, email, phone,
	subtotal, discount, tip, tax, total,
	payment_method, is_paid, transaction_id,
	address_street, address_city, address_zip, address_instructions,
	delivery_date, delivery_time, delivery_method, delivery_status,
	stage, rejection_reason, notes,
	reserved_units, capacity_released,
	created_by, created_at, updated_at`

func scanOrder(scanner interface{ Scan(...interface{}) error }) (*db.Order, error) {
	var o db.Order
	err := scanner.Scan(
		&o.ID, &o.Name, &o.Email, &o.Phone,
		&o.Subtotal, &o.Discount, &o.Tip, &o.Tax, &o.Total,
		&o.PaymentMethod, &o.IsPaid, &o.TransactionID,
		&o.AddressStreet, &o.AddressCity, &o.AddressZip, &o.AddressInstructions,
		&o.DeliveryDate, &o.DeliveryTime, &o.DeliveryMethod, &o.DeliveryStatus,
		&o.Stage, &o.RejectionReason, &o.Notes,
		&o.ReservedUnits, &o.CapacityReleased,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts the order and its line items in one transaction and fills in the
// generated ID and timestamps.
func (r *OrderRepository) CreateOrder(o *db.Order) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting order transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders
		(name, email, phone, subtotal, discount, tip, tax, total,
		 payment_method, is_paid, transaction_id,
		 address_street, address_city, address_zip, address_instructions,
		 delivery_date, delivery_time, delivery_method, delivery_status,
		 stage, rejection_reason, notes, reserved_units, capacity_released, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(query,
		o.Name, o.Email, o.Phone, o.Subtotal, o.Discount, o.Tip, o.Tax, o.Total,
		o.PaymentMethod, o.IsPaid, o.TransactionID,
		o.AddressStreet, o.AddressCity, o.AddressZip, o.AddressInstructions,
		o.DeliveryDate, o.DeliveryTime, o.DeliveryMethod, o.DeliveryStatus,
		o.Stage, o.RejectionReason, o.Notes, o.ReservedUnits, o.CapacityReleased, o.CreatedBy,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		_, err = tx.Exec(`
			INSERT INTO order_items (order_id, product_id, name, price, quantity, subtotal, capacity_units, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.OrderID, item.ProductID, item.Name, item.Price, item.Quantity, item.Subtotal, item.CapacityUnits, item.Image)
		if err != nil {
			return fmt.Errorf("error inserting order item %q: %w", item.Name, err)
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetOrderByID(id int) (*db.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.DB.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("error querying order %d: %w", id, err)
	}
	if err := r.loadItems([]*db.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders newest first, optionally filtered by stage and delivery date.
func (r *OrderRepository) ListOrders(stage, deliveryDate string) ([]db.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if stage != "" {
		query += " AND stage = $" + strconv.Itoa(idx)
		args = append(args, stage)
		idx++
	}
	if deliveryDate != "" {
		query += " AND delivery_date = $" + strconv.Itoa(idx)
		args = append(args, deliveryDate)
		idx++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing orders: %w", err)
	}
	defer rows.Close()

	var orders []db.Order
	var refs []*db.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating order rows: %w", err)
	}
	for i := range orders {
		refs = append(refs, &orders[i])
	}
	if err := r.loadItems(refs); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) loadItems(orders []*db.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int, 0, len(orders))
	byID := make(map[int]*db.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := r.DB.Query(`
		SELECT order_id, product_id, name, price, quantity, subtotal, capacity_units, image
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error loading order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item db.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.Subtotal, &item.CapacityUnits, &item.Image); err != nil {
			return fmt.Errorf("error scanning order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// UpdateOrder persists the admin-editable fields.
func (r *OrderRepository) UpdateOrder(o *db.Order) error {
	query := `
		UPDATE orders
		SET stage = $2, delivery_date = $3, delivery_time = $4, delivery_status = $5,
		    notes = $6, rejection_reason = $7,
		    address_street = $8, address_city = $9, address_zip = $10, address_instructions = $11,
		    updated_at = now()
		WHERE id = $1`
	result, err := r.DB.Exec(query, o.ID, o.Stage, o.DeliveryDate, o.DeliveryTime, o.DeliveryStatus,
		o.Notes, o.RejectionReason, o.AddressStreet, o.AddressCity, o.AddressZip, o.AddressInstructions)
	if err != nil {
		return fmt.Errorf("error updating order %d: %w", o.ID, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("order %d not found", o.ID)
	}
	return nil
}

// MarkCapacityReleased flips the order's release flag. Returns true when this call did the
// flip, false when the flag was already set, so a retried rejection cannot release twice.
func (r *OrderRepository) MarkCapacityReleased(id int) (bool, error) {
	result, err := r.DB.Exec(`
		UPDATE orders SET capacity_released = TRUE, updated_at = now()
		WHERE id = $1 AND capacity_released = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("error marking capacity released for order %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected for order %d: %w", id, err)
	}
	return affected > 0, nil
}

func (r *OrderRepository) DeleteOrder(id int) error {
	result, err := r.DB.Exec(`DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting order %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("order %d not found", id)
	}
	return nil
}

// RevenueSummary aggregates order revenue excluding rejected orders, optionally bounded by
// delivery date (inclusive YYYY-MM-DD bounds).
func (r *OrderRepository) RevenueSummary(from, to string) (count int, revenue, tips float64, err error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(tip), 0)
		FROM orders WHERE stage <> $1`
	args := []interface{}{db.StageRejected}
	idx := 2
	if from != "" {
		query += " AND delivery_date >= $" + strconv.Itoa(idx)
		args = append(args, from)
		idx++
	}
	if to != "" {
		query += " AND delivery_date <= $" + strconv.Itoa(idx)
		args = append(args, to)
		idx++
	}
	if err = r.DB.QueryRow(query, args...).Scan(&count, &revenue, &tips); err != nil {
		err = fmt.Errorf("error aggregating order revenue: %w", err)
	}
	return count, revenue, tips, err
}
