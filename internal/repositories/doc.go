// Package repositories implements SQLite persistence for sync run history.
//
// Every completed sync run is recorded with its per-playlist outcomes and the
// tracks that could not be resolved against the target catalog, so unmatched
// ISRCs can be reviewed (and re-attempted) after the fact.
//
// Sequence numbers provide stable, human-readable ordering (run #12)
// independent of UUIDs and timestamps. [NextSequence] atomically increments a
// per-table counter held in a dedicated sequence table.
package repositories
