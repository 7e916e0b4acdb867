// Package history records completed sync runs in a local SQLite ledger.
//
// Each run stores the raw, calibrated, and applied offsets alongside the
// files involved, so `subsync learn` can pair a user's corrected offset with
// the automatic estimate of the latest run for the same video. The ledger is
// advisory: sync runs log ledger failures and continue.
//
// Schema changes bump schemaVersion in schema.go; users delete the database to
// adopt the new schema.
package history
