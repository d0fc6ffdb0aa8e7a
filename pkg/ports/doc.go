/*
Package ports defines the driven ports (interfaces) of the relay engine.

These interfaces decouple graph orchestration from the models that answer
and the backends that remember, so the engine can run against a language
model or a scripted test double, and keep chat history in memory, on disk
or in Redis.

# Key Interfaces

  - Agent: answers one node invocation (an LLM-backed agent or a plain function).
  - ChatMemory: stores the message history of each session.
  - DistributedLocker: serializes turns of the same session across replicas.
*/
package ports
