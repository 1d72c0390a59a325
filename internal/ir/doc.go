// Package ir provides the canonical serialized form of stored configuration
// records.
//
// Every record written to the config repository passes through Canonicalize,
// so equal values always produce byte-identical payloads and the same content
// hash. ir imports nothing internal.
//
// Key constraints:
//   - NO floats in payloads; numbers must be integers
//   - null members are dropped; null at top level or in an array is an error
//   - Object keys sorted by UTF-16 code units (RFC 8785)
package ir
