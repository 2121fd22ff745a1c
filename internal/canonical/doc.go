// Package canonical renders a relation tree as deterministic canonical JSON
// and derives content-addressed fingerprints from it.
//
// The rendering follows RFC 8785: object keys sorted by UTF-16 code units,
// strings NFC-normalized, no HTML escaping, byte payloads as base64. Two
// structurally equal plans always produce identical bytes, so the fingerprint
// is a stable identity across processes and restarts.
//
// Canonical JSON is a reporting and identity surface only; the wire codec is
// the interchange format.
package canonical
