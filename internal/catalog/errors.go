package catalog

import "fmt"

// MalformedCatalogError means the converter output failed the strict
// schema parse. The whole operation fails; no partial records survive.
type MalformedCatalogError struct {
	Path   string
	Line   int // 1-based, 0 when the failure is not line-scoped
	Reason string
}

func (e *MalformedCatalogError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed catalog %s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed catalog %s: %s", e.Path, e.Reason)
}

// FaultCode marks the error for per-entity fault recording.
func (e *MalformedCatalogError) FaultCode() string { return "MALFORMED_CATALOG" }

// ExternalToolError means the converter exited non-zero, was missing,
// or timed out.
type ExternalToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("external tool %s: %v: %s", e.Tool, e.Err, e.Stderr)
	}
	return fmt.Sprintf("external tool %s: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// FaultCode marks the error for per-entity fault recording.
func (e *ExternalToolError) FaultCode() string { return "EXTERNAL_TOOL" }

// HeaderExtractionError means a required metadata key is missing or
// unreadable in the raw file's header. Fatal for the entity, never for
// the batch.
type HeaderExtractionError struct {
	Path string
	Key  string
	Err  error
}

func (e *HeaderExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("header extraction %s: key %q: %v", e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("header extraction %s: key %q missing", e.Path, e.Key)
}

func (e *HeaderExtractionError) Unwrap() error { return e.Err }

// FaultCode marks the error for per-entity fault recording.
func (e *HeaderExtractionError) FaultCode() string { return "HEADER_EXTRACTION" }
