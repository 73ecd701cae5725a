/*
Package storage provides the BoltDB-backed character progress store.

Live entity state is deliberately not persisted: zones rebuild from spawn
tables and the asset ledger is the durable store for ownership. The only
local record is per-character level and xp, written through on level-up and
read back on spawn so a returning character keeps its progress even if the
ledger metadata update lagged.
*/
package storage
