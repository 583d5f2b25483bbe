// Package catalog turns a raw pawprint exposure into a typed columnar
// array.
//
// The flow mirrors the survey reduction chain: an external
// flux-to-magnitude converter writes a whitespace-separated ASCII
// table with a fixed 27-column schema, the table is parsed strictly
// into an ndarray.Array, and Normalize prepends the decimal-degree
// coordinate columns to produce the 29-column artifact consumed by
// tile matching.
//
// Failures carry typed errors (ExternalToolError,
// MalformedCatalogError, HeaderExtractionError) so the pipeline engine
// can record a fault code per entity without aborting a batch.
package catalog
