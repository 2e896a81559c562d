// Package db embeds the database schema applied on startup.
package db

import _ "embed"

// Schema contains the DDL for every table the engine persists to:
// currencies, products, orders, order items, promotions, and bulk
// promotion coupon codes.
//
//go:embed migrations/001_schema.sql
var Schema string
