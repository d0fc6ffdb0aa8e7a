/*
Package graph holds the static half of the engine: the node registry, the
edge table and the compiler that turns them into an immutable CompiledGraph.

A graph has one entry point. Every node has at most one outgoing edge, either
static (always go to X) or conditional (a pure function of the accumulated
records decides). Nodes without an edge are terminal leaves and end the run.

	b := graph.NewBuilder().
		AddNode("classify", classify).
		AddNode("answer", answer).
		AddEdge("classify", "answer").
		SetEntryPoint("classify")
	g, err := b.Compile()

Compilation never invokes a node. Execution lives in the runtime.
*/
package graph
