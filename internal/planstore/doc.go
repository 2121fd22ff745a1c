// Package planstore persists encoded plans in SQLite, keyed by their
// canonical fingerprint. Writes are idempotent: storing the same plan twice
// keeps the first record. Reads decode and re-validate before returning, so
// a consumer never sees a tree the validator would reject.
package planstore
