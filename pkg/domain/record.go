package domain

// ExecutionRecord is the result of one node invocation.
type ExecutionRecord struct {
	// NodeID identifies the node that produced the record. The executor
	// stamps it after each invocation; record 0 carries StartNodeID.
	NodeID   string         `json:"node_id"`
	Input    string         `json:"input"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Clone returns a copy whose metadata map is not shared with r.
func (r ExecutionRecord) Clone() ExecutionRecord {
	if r.Metadata == nil {
		return r
	}
	md := make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		md[k] = v
	}
	r.Metadata = md
	return r
}
