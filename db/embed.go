// Package db provides the embedded database schema and catalog seed data.
package db

import _ "embed"

// Schema contains the DDL statements for the catalog and admin key tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// CatalogSeed is the JSON snapshot of the storefront reference tables used
// when no database is configured and by the seed-db tool.
//
//go:embed seed/catalog.json
var CatalogSeed []byte
