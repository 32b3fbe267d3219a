// Package canon builds the JSON documents written into generated packs
// (pack metadata, the generated marker, tag lists and tellraw components)
// and computes content fingerprints over them.
//
// Every document is serialised as RFC 8785 canonical JSON so the same
// program always yields byte-identical files:
//   - object keys sorted by UTF-16 code units
//   - strings NFC-normalised, no HTML escaping
//   - no floats; numbers are int64
package canon
