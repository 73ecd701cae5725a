package combat

import (
	"math/rand"

	"github.com/DasilvaKareem/wogshard/pkg/types"
)

// ItemAward is one item stack produced by a loot roll
type ItemAward struct {
	TokenID int64
	Qty     int
}

// LootResult is the outcome of rolling a loot table
type LootResult struct {
	Copper int64
	Items  []ItemAward
}

// RollLoot rolls the copper range and the auto drops of a loot table.
// Skinning drops are rolled separately via RollDrops when a corpse is
// skinned.
func RollLoot(rng *rand.Rand, table types.LootTable) LootResult {
	var result LootResult

	if table.CopperMax > 0 {
		spread := table.CopperMax - table.CopperMin
		result.Copper = table.CopperMin
		if spread > 0 {
			result.Copper += rng.Int63n(spread + 1)
		}
	}

	result.Items = RollDrops(rng, table.AutoDrops)
	return result
}

// RollDrops rolls each drop entry independently against its chance
func RollDrops(rng *rand.Rand, drops []types.LootDrop) []ItemAward {
	var items []ItemAward
	for _, drop := range drops {
		if drop.Chance < 1 && rng.Float64() >= drop.Chance {
			continue
		}
		qty := drop.MinQty
		if drop.MaxQty > drop.MinQty {
			qty += rng.Intn(drop.MaxQty - drop.MinQty + 1)
		}
		if qty <= 0 {
			continue
		}
		items = append(items, ItemAward{TokenID: drop.TokenID, Qty: qty})
	}
	return items
}
