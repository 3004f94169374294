// Package catalogue defines the entities produced by the ingestion
// pipeline: astronomical objects, the physical parameters measured for
// them, the bibliographic references reporting the measurements, the
// scalar observations tying the three together, and profiles (x/y data
// series such as surface density curves).
//
// The types carry no persistence logic. Storage backends in
// internal/store map them to tables; the orchestrator in internal/ingest
// creates them.
//
// # Keys
//
// Every entity has a semantic key that storage enforces as unique:
//
//	AstroObject  name
//	Parameter    name
//	Reference    ads_url (normalized)
//	Observation  (astro_object, parameter, reference)
//
// Re-ingesting a source therefore never duplicates facts: creation is
// always get-or-create on the semantic key.
package catalogue
