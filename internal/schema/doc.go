// Package schema provides the entity metadata layer for Tessera.
//
// This package contains the foundational value objects: template entities,
// concrete partition entities, their fields, and the catalog that names
// them. All other internal packages import schema; schema imports nothing
// internal. This keeps the metadata layer free of circular dependencies.
//
// Key design constraints:
//   - Templates are abstract and are never bound into the catalog
//   - Concrete partition names are deterministic for a (template, key) pair
//   - Relationship fields are a tagged variant: Pending or Resolved.
//     Resolution produces a new field record, never an in-place mutation
//   - The catalog is append-only for the life of the process
package schema
