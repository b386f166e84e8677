package db

import (
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS preorder_slots (
	id SERIAL PRIMARY KEY,
	slot_date TEXT NOT NULL,
	slot_window TEXT NOT NULL,
	capacity INTEGER NOT NULL DEFAULT 0,
	reserved DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_blackout BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (slot_date, slot_window)
);

CREATE TABLE IF NOT EXISTS orders (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	subtotal DOUBLE PRECISION NOT NULL DEFAULT 0,
	discount DOUBLE PRECISION NOT NULL DEFAULT 0,
	tip DOUBLE PRECISION NOT NULL DEFAULT 0,
	tax DOUBLE PRECISION NOT NULL DEFAULT 0,
	total DOUBLE PRECISION NOT NULL DEFAULT 0,
	payment_method TEXT NOT NULL DEFAULT 'Unpaid',
	is_paid BOOLEAN NOT NULL DEFAULT FALSE,
	transaction_id TEXT NOT NULL DEFAULT '',
	address_street TEXT NOT NULL DEFAULT '',
	address_city TEXT NOT NULL DEFAULT '',
	address_zip TEXT NOT NULL DEFAULT '',
	address_instructions TEXT NOT NULL DEFAULT '',
	delivery_date TEXT NOT NULL,
	delivery_time TEXT NOT NULL,
	delivery_method TEXT NOT NULL DEFAULT 'Delivery',
	delivery_status TEXT NOT NULL DEFAULT 'Not Assigned',
	stage TEXT NOT NULL DEFAULT 'Pending',
	rejection_reason TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	reserved_units DOUBLE PRECISION NOT NULL DEFAULT 0,
	capacity_released BOOLEAN NOT NULL DEFAULT FALSE,
	created_by TEXT NOT NULL DEFAULT 'System',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_stage ON orders(stage);
CREATE INDEX IF NOT EXISTS idx_orders_delivery_date ON orders(delivery_date);

CREATE TABLE IF NOT EXISTS order_items (
	id SERIAL PRIMARY KEY,
	order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id INTEGER NOT NULL DEFAULT 0,
	name TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
	subtotal DOUBLE PRECISION NOT NULL DEFAULT 0,
	capacity_units DOUBLE PRECISION NOT NULL DEFAULT 1,
	image TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT UNIQUE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT 'Uncategorized',
	status TEXT NOT NULL DEFAULT 'Active',
	discount_type TEXT NOT NULL DEFAULT 'none',
	discount_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	images TEXT[] NOT NULL DEFAULT '{}',
	main_image_idx INTEGER NOT NULL DEFAULT 0,
	preorder_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	lead_time_days INTEGER NOT NULL DEFAULT 2,
	capacity_units DOUBLE PRECISION NOT NULL DEFAULT 1,
	delivery_only BOOLEAN NOT NULL DEFAULT TRUE,
	is_bundle BOOLEAN NOT NULL DEFAULT FALSE,
	tags TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_bundle_items (
	id SERIAL PRIMARY KEY,
	product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
	product_ref INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS expenses (
	id SERIAL PRIMARY KEY,
	label TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT 'General',
	amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	spent_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS admins (
	id SERIAL PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL
);
`

// Migrate creates the schema if it does not exist. Safe to run on every startup.
func Migrate(database *sql.DB) error {
	if _, err := database.Exec(schemaSQL); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}
	return nil
}
