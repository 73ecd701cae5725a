/*
Package catalog holds the static content the shard runs against: races,
classes, items, mobs and their loot tables, techniques, zone definitions
(spawn tables, resource nodes, portals, NPCs, death rules, gate weights),
and the dungeon templates keyed by gate rank.

A built-in default set ships in the binary; deployments overlay YAML files
from a content directory on top of it. References are validated at load so
a zone can never point at a mob or portal destination that does not exist.
*/
package catalog
