// Package ingest runs one dataset through the ingestion pipeline.
//
// A run is a fixed sequence of stages:
//
//	ensure_prerequisites  fixture parameters and classifications exist
//	register_reference    the dataset's paper has a Reference
//	parse_source          every table and profile file is read
//	resolve_identities    every row's designation maps to an object id
//	upsert_facts          observations and profiles are written
//	report_summary        the Summary is logged and recorded
//
// The stages run strictly in order. The name map used by
// resolve_identities is built from storage before any row is resolved,
// and no observation is written before every row is resolved. A failure
// in any stage aborts the dataset; report_summary always runs.
//
// Row-level parse errors skip the row. What happens to a designation
// that resolves to no known object is the dataset's MissPolicy.
//
// Runs are not safe to execute concurrently against one database.
package ingest
