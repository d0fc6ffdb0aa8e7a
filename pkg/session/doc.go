/*
Package session serializes the turns of a chat session.

Two requests for the same session must not interleave: each reads the prior
messages, runs the graph and appends exactly one user/assistant pair. The
Manager holds a per-session mutex, optionally backed by a distributed lock
for deployments with several replicas, and only appends after a turn
succeeds.
*/
package session
