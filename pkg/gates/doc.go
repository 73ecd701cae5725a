/*
Package gates runs the dungeon-gate subsystem: periodic gate surges across
eligible zones, expiry of unopened gates, and the lifecycle of instanced
dungeon zones.

The Keeper is a single loop on a 5 second cadence, independent of per-zone
ticks. Surges are throttled by the last surge timestamp, so re-running the
surge routine within the interval is idempotent. The keeper addresses zones
only through the world's locked helpers and never holds zone state of its
own beyond the instance table.

An instance is created when a party opens a gate, populated from the rank's
dungeon template, and torn down on timeout or shortly after the last mob
falls; teardown always returns surviving party members to the source zone.
*/
package gates
