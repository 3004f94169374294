// Package store provides SQLite-backed storage for the SupaHarris catalogue.
//
// The store exposes the four collaborator operations the ingestion core
// depends on, one family per entity:
//   - get-or-create by semantic key (GetOrCreateAstroObject, GetOrCreateParameter, ...)
//   - filter (ListAstroObjects, FilterObservations, FilterProfiles)
//   - get, returning ErrNotFound on a miss (GetParameter, GetReference, ...)
//   - bulk create (CreateObservations, CreateProfiles)
//
// plus the destructive operations used by replace-on-reingest datasets.
// ReplaceObservations and ReplaceProfiles delete a reference's rows and
// insert the new ones in one transaction, so a failed insert leaves the
// old rows in place; an empty batch deletes them. The ingestion engine
// itself never deletes; only the orchestrator does, and only when a
// dataset asks for it.
//
// # Idempotency
//
// Get-or-create runs as INSERT ... ON CONFLICT DO NOTHING followed by a
// SELECT of the existing row when nothing was inserted, inside one
// transaction. The returned bool is true only if this call created the row.
//
// Observations are unique on (astro_object_id, parameter_id, reference_id).
// Databases created before that index existed are upgraded by migration v1,
// which refuses to run while duplicate keys are present (ErrLegacyDuplicates).
// Which duplicate to keep is an operator decision.
//
// # Concurrency
//
// One process, one writer. The connection pool is capped at a single
// connection; concurrent ingestion runs against the same file are not
// defended against beyond the uniqueness constraints.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
