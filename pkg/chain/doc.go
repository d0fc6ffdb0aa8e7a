// Package chain wires a supervisor and its agents into a compiled graph.
//
// The supervisor is the entry node. Its output is scanned for a routing
// marker of the form "Agent=<name>;" and the run continues at the named agent.
// Each agent may name a Next agent, forming a linear chain that ends at
// domain.End. Agents directly after the supervisor answer the original
// request; agents further down a chain receive the previous agent's output.
package chain
