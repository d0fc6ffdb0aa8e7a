/*
Package domain contains the core types of the relay engine.

It defines what flows through an agent graph during a single request: the
execution records produced by each node, the append-only accumulator that
carries them, the messages kept in chat memory and the errors the graph
compiler and executor report. The package is pure and free of I/O.

# Key Entities

  - ExecutionRecord: the output of one node invocation (input, output, metadata).
  - StateAccumulator: the ordered records of one run. Index 0 is the request.
  - Message: one entry of a session's chat history.
  - Request / Response: the invocation boundary of the engine.
*/
package domain
