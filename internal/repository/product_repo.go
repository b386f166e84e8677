package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"petale/internal/db"

	"github.com/lib/pq"
)

type ProductRepository struct {
	DB *sql.DB
}

func NewProductRepository(database *sql.DB) *ProductRepository {
	return &ProductRepository{DB: database}
}

const productColumns = `
	id, name, slug, description, price, category, status,
	discount_type, discount_value, images, main_image_idx,
	preorder_enabled, lead_time_days, capacity_units, delivery_only,
	is_bundle, tags, created_at, updated_at`

func scanProduct(scanner interface{ Scan(...interface{}) error }) (*db.Product, error) {
	var p db.Product
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Category, &p.Status,
		&p.DiscountType, &p.DiscountValue, pq.Array(&p.Images), &p.MainImageIdx,
		&p.PreorderEnabled, &p.LeadTimeDays, &p.CapacityUnits, &p.DeliveryOnly,
		&p.IsBundle, pq.Array(&p.Tags), &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) CreateProduct(p *db.Product) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting product transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products
		(name, slug, description, price, category, status, discount_type, discount_value,
		 images, main_image_idx, preorder_enabled, lead_time_days, capacity_units,
		 delivery_only, is_bundle, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(query,
		p.Name, p.Slug, p.Description, p.Price, p.Category, p.Status, p.DiscountType, p.DiscountValue,
		pq.Array(p.Images), p.MainImageIdx, p.PreorderEnabled, p.LeadTimeDays, p.CapacityUnits,
		p.DeliveryOnly, p.IsBundle, pq.Array(p.Tags),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting product %q: %w", p.Name, err)
	}

	if err := insertBundleItems(tx, p.ID, p.BundleItems); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ProductRepository) UpdateProduct(p *db.Product) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting product transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, category = $6, status = $7,
		    discount_type = $8, discount_value = $9, images = $10, main_image_idx = $11,
		    preorder_enabled = $12, lead_time_days = $13, capacity_units = $14,
		    is_bundle = $15, tags = $16, updated_at = now()
		WHERE id = $1`
	result, err := tx.Exec(query,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Category, p.Status,
		p.DiscountType, p.DiscountValue, pq.Array(p.Images), p.MainImageIdx,
		p.PreorderEnabled, p.LeadTimeDays, p.CapacityUnits,
		p.IsBundle, pq.Array(p.Tags))
	if err != nil {
		return fmt.Errorf("error updating product %d: %w", p.ID, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("product %d not found", p.ID)
	}

	if _, err := tx.Exec(`DELETE FROM product_bundle_items WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("error clearing bundle items for product %d: %w", p.ID, err)
	}
	if err := insertBundleItems(tx, p.ID, p.BundleItems); err != nil {
		return err
	}
	return tx.Commit()
}

func insertBundleItems(tx *sql.Tx, productID int, items []db.BundleItem) error {
	for _, item := range items {
		_, err := tx.Exec(`
			INSERT INTO product_bundle_items (product_id, name, image, quantity, product_ref)
			VALUES ($1, $2, $3, $4, $5)`,
			productID, item.Name, item.Image, item.Quantity, item.ProductRef)
		if err != nil {
			return fmt.Errorf("error inserting bundle item %q: %w", item.Name, err)
		}
	}
	return nil
}

// GetProductByID returns the product with its bundle items, or nil when it does not exist.
// Callers computing capacity units treat a nil product as "use the submitted fallback".
func (r *ProductRepository) GetProductByID(id int) (*db.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.DB.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying product %d: %w", id, err)
	}
	if err := r.loadBundleItems(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) GetProductBySlug(slug string) (*db.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	p, err := scanProduct(r.DB.QueryRow(query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying product %q: %w", slug, err)
	}
	if err := r.loadBundleItems(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) loadBundleItems(p *db.Product) error {
	if !p.IsBundle {
		return nil
	}
	rows, err := r.DB.Query(`
		SELECT product_id, name, image, quantity, product_ref
		FROM product_bundle_items WHERE product_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("error loading bundle items for product %d: %w", p.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item db.BundleItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Image, &item.Quantity, &item.ProductRef); err != nil {
			return fmt.Errorf("error scanning bundle item: %w", err)
		}
		p.BundleItems = append(p.BundleItems, item)
	}
	return rows.Err()
}

// ListProducts returns products, optionally filtered by category and status.
func (r *ProductRepository) ListProducts(category, status string) ([]db.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, category)
		idx++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY name"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	defer rows.Close()

	var products []db.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating product rows: %w", err)
	}
	for i := range products {
		if err := r.loadBundleItems(&products[i]); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *ProductRepository) DeleteProduct(id int) error {
	result, err := r.DB.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting product %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("product %d not found", id)
	}
	return nil
}
