package types

// Event is the wire-level record of a completed state change. The Type string
// uses a dotted {family}.{operation} scheme so downstream consumers can filter
// on either level; all attribute values are rendered as decimal or hex strings.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
