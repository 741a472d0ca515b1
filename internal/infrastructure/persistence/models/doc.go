// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free from ORM concerns.
//
// Structure:
//   - base.go: BaseModel shared by every table
//   - employee.go: employees roster
//   - punch.go: time_punches
//   - audit_log.go: audit_log (append-only)
//
// Column types are left to the dialect where Postgres and SQLite disagree, so the same
// models back both the production schema and in-memory repository tests.
package models
