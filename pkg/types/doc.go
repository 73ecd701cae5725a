/*
Package types defines the shard's shared data model.

An Entity is the unit a zone simulates: players, mobs, bosses, NPCs, resource
nodes, corpses, dungeon gates, and portals all share one header (id, kind,
name, position, vitals) and carry kind-specific payloads behind pointers that
are nil for every other kind. A kind may carry more than one payload (players
carry both Combat and Player); code checks a payload pointer before reading it.

The package also holds the Order type (an entity's pending intent, consumed
by the next tick), loot tables, equipment and effect records, and the
compile-time gameplay constants shared by every subsystem.

types has no dependencies on other shard packages so that every subsystem can
import it freely.
*/
package types
