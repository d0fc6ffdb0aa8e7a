/*
Package relay is a supervisor-routed multi-agent engine.

A request first reaches a supervisor agent. If its answer carries a routing
marker such as "Agent=billing;", the request is handed to that agent, and to
every agent chained after it, until a chain ends. Without a marker the
supervisor's own answer is the reply.

# Concept

For every request relay compiles a small graph: the supervisor as entry point,
one conditional edge fanning out to the configured agents, and static edges
linking each agent to the next one in its chain. The executor then walks the
graph, appending one record per node to an append-only accumulator, until a
node routes to END. Chat history lives behind the ChatMemory port and is
written only when a run succeeds.

# Key Features

  - Marker routing: the supervisor's free-form text decides the next agent.
  - Fail-fast configuration: unknown nodes, mixed edge kinds and missing ids
    are reported before any model is called.
  - Bounded runs: a hop ceiling turns a miswired chain into an error.
  - Pluggable memory: in-memory, file or Redis, with encryption and PII masking.

# Usage

	billing := &chain.Descriptor{
		ID:          "billing",
		Description: "Answers questions about invoices",
		Agent:       llm.New(model, llm.WithSystemPrompt("You handle billing.")),
	}
	sup, _ := llm.NewSupervisor(model, "Front desk of ACME", []*chain.Descriptor{billing})

	eng, err := relay.New(
		&chain.Descriptor{ID: chain.DefaultSupervisorID, Agent: sup},
		[]*chain.Descriptor{billing},
	)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := eng.Invoke(ctx, domain.Request{Input: "Was invoice 42 paid?", SessionID: "s-1"})
*/
package relay
