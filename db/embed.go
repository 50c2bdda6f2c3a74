// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the catalog, inventory, pricing, and order
// tables. Statements are idempotent (CREATE TABLE IF NOT EXISTS).
//
//go:embed migrations/001_schema.sql
var Schema string
