/*
Package world is the zone runtime: the authoritative owner of every live
zone and the tick loop that advances them.

# Architecture

	┌───────────────────────── WORLD ─────────────────────────┐
	│                                                          │
	│  API handlers          gate keeper        serializer     │
	│      │                      │                  ▲         │
	│      ▼                      ▼                  │         │
	│  ┌────────┐  inbox   ┌──────────────┐   mints/burns      │
	│  │Dispatch│─────────►│ Zone (x N)   │────────┘           │
	│  └────────┘          │  entities    │                    │
	│                      │  tick loop   │──► event ring      │
	│                      │  rng         │──► event feed      │
	│                      └──────────────┘                    │
	└──────────────────────────────────────────────────────────┘

Each zone is driven by its own goroutine at the configured cadence. A tick
runs entirely under the zone lock, in a fixed order: drain the command
inbox, expire effects and apply heal-over-time, respawn resource nodes and
mobs, expire corpses, execute one step of every pending order, run mob AI,
resolve deaths, flush events, advance the counter. Observers (snapshots,
dispatch validation) take the same lock, so no reader ever sees a partial
tick.

Orders are the unit of intent: the dispatcher validates a command, then
either queues an order on the zone inbox (move, attack, gather, cast, skin)
or applies it synchronously (interact, use-item, unequip). The tick either
sees the new order or the previous one, never a torn write.

Portal transitions are the only cross-zone interaction; they lock the two
zones in zoneID order, so an observer between ticks finds the entity in
exactly one zone.

A panic inside one entity's order handler is recovered: the order is
cleared, a system event is logged, and the tick continues. A panic in the
loop plumbing itself is fatal and surfaces to process supervision.
*/
package world
