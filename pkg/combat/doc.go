/*
Package combat resolves attacks, durability wear, death penalties, XP and
level-ups, and loot rolls.

The functions here mutate entities but own no scheduling and no side
channels: the zone tick calls them, then turns their results into events and
ledger operations. Every random draw comes through the caller's *rand.Rand so
tests can run combat deterministically.
*/
package combat
