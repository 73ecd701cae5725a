/*
Package shop handles merchant purchases and equipment repair.

Both flows follow the same settlement shape: read the authoritative gold
balance, reserve the cost against the local intent ledger, run the burn (and
mint, for purchases) through the transaction serializer, then release the
reservation. A failed settlement leaves the wallet untouched on-chain and
the reservation released; a successful repair additionally restores
durability in-world.

The repair price is (copperPrice / maxDurability) x missingDurability
x (1 + level x 0.04), rounded up per damaged slot.
*/
package shop
