// Package models contains GORM persistence models for the ledger tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags; each model carries ToDomain/FromDomain mappers and repositories
// only ever read and write models.
//
//   - base.go: shared columns (id, timestamps, version, tenant)
//   - inventory.go: inventory_items, stock_movements
//   - trade.go: sales, sale_items, sale_number_sequences
//   - catalog.go: read-only warehouses and medicines
package models
