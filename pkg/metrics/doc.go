/*
Package metrics provides Prometheus metrics for the shard.

Metrics are package-level collectors registered at init and updated inline by
the subsystems that own the measured work: zone ticks, command dispatch,
ledger settlement, gate lifecycle, sessions, and the API surface. The
Collector loop samples world-level gauges (zones, entities by kind) on a
fixed interval.

The /metrics endpoint is served from the API listener via Handler().
*/
package metrics
