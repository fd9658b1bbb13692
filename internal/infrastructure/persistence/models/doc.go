// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, ChannelModel)
// - organization.go: Channel, Activity, Branch, Register and register_sequences
// - catalog.go: reference classifications, datasets and tenant overrides
// - access.go: channel memberships
//
// The migrations under migrations/ are the source of truth for production
// schemas; the tags here mirror them so tests can AutoMigrate on SQLite.
package models
