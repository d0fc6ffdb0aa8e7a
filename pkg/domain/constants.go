package domain

const (
	// End is the reserved terminal node identifier. It can be used as an edge
	// target or a routing decision but can never be registered as a node.
	End = "END"

	// StartNodeID marks the synthetic record seeded from the request input.
	StartNodeID = "__start__"
)

// Metadata keys written by the engine and its agents.
const (
	KeyRunID      = "run_id"
	KeySessionID  = "session_id"
	KeyModel      = "model"
	KeyStopReason = "stop_reason"
)
