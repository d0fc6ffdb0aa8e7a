/*
Package observability turns engine lifecycle events into logs and metrics.

Both LoggingHooks and Metrics.Hooks return domain.LifecycleHooks; combine
them with domain.CombineHooks and pass the result to relay.WithLifecycleHooks.
*/
package observability
