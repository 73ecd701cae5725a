package shop

import (
	"context"
	"testing"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/DasilvaKareem/wogshard/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShop(t *testing.T) (*Shop, *world.World, *ledger.StubAdapter) {
	t.Helper()

	adapter := ledger.NewStubAdapter()
	serializer := ledger.NewSerializer(adapter)
	serializer.Start()
	t.Cleanup(serializer.Stop)

	feed := events.NewFeed()
	feed.Start()
	t.Cleanup(feed.Stop)

	w := world.New(catalog.Default(), adapter, serializer, ledger.NewGoldLedger(), feed, nil,
		world.Config{TickInterval: time.Hour})
	t.Cleanup(w.Stop)
	w.GetOrCreateZone("meadowbrook")

	return New(w), w, adapter
}

func TestBuyDebitsAndMints(t *testing.T) {
	s, w, adapter := newTestShop(t)
	ctx := context.Background()

	require.NoError(t, adapter.MintGold(ctx, "buyer", 1000))

	item := w.Catalog().Items[catalog.TokenRustySword]
	result, err := s.Buy(ctx, "buyer", catalog.TokenRustySword, 2)
	require.NoError(t, err)
	assert.Equal(t, item.CopperPrice*2, result.Cost)

	gold, err := adapter.GoldBalance(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(1000)-result.Cost, gold)

	qty, err := adapter.ItemBalance(ctx, "buyer", catalog.TokenRustySword)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	// Settlement complete: no reservation left behind
	assert.Zero(t, w.Gold().Reserved("buyer"))
}

func TestBuyInsufficientGold(t *testing.T) {
	s, _, adapter := newTestShop(t)
	ctx := context.Background()

	require.NoError(t, adapter.MintGold(ctx, "buyer", 10))

	_, err := s.Buy(ctx, "buyer", catalog.TokenIronSword, 1)
	var werr *world.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "insufficient gold", werr.Reason)

	// Nothing changed on-chain
	gold, err := adapter.GoldBalance(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(10), gold)
}

func TestBuyValidation(t *testing.T) {
	s, _, _ := newTestShop(t)
	ctx := context.Background()

	_, err := s.Buy(ctx, "buyer", 99999, 1)
	var werr *world.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, world.KindValidation, werr.Kind)

	_, err = s.Buy(ctx, "buyer", catalog.TokenRustySword, 0)
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, world.KindValidation, werr.Kind)
}

func TestRepairCostFormula(t *testing.T) {
	cat := catalog.Default()

	// Iron sword: price 120, maxDurability 80, missing 40, level 5
	// (120/80) x 40 x (1 + 5x0.04) = 60 x 1.2 = 72
	e := &types.Entity{
		Kind:   types.KindPlayer,
		Combat: &types.CombatData{Level: 5},
		Player: &types.PlayerData{
			Equipment: map[types.EquipSlot]*types.EquippedItem{
				types.SlotWeapon: {TokenID: catalog.TokenIronSword, Durability: 40, MaxDurability: 80},
			},
		},
	}

	cost, slots := RepairCost(cat, e)
	assert.Equal(t, int64(72), cost)
	assert.Equal(t, []types.EquipSlot{types.SlotWeapon}, slots)
}

func TestRepairCostSkipsUndamaged(t *testing.T) {
	cat := catalog.Default()
	e := &types.Entity{
		Kind:   types.KindPlayer,
		Combat: &types.CombatData{Level: 5},
		Player: &types.PlayerData{
			Equipment: map[types.EquipSlot]*types.EquippedItem{
				types.SlotWeapon: {TokenID: catalog.TokenIronSword, Durability: 80, MaxDurability: 80},
			},
		},
	}

	cost, slots := RepairCost(cat, e)
	assert.Zero(t, cost)
	assert.Empty(t, slots)
}

func TestRepairRestoresDurability(t *testing.T) {
	s, w, adapter := newTestShop(t)
	ctx := context.Background()

	p, err := w.SpawnPlayer("wallet-r", "Smith", "human", "warrior", "meadowbrook")
	require.NoError(t, err)
	require.NoError(t, w.MutateEntity("meadowbrook", p.ID, func(e *types.Entity) {
		e.Player.Equipment[types.SlotWeapon] = &types.EquippedItem{
			TokenID: catalog.TokenIronSword, Durability: 0, MaxDurability: 80, Broken: true,
		}
	}))
	require.NoError(t, adapter.MintGold(ctx, "wallet-r", 10000))

	result, err := s.Repair(ctx, "wallet-r", "meadowbrook", p.ID)
	require.NoError(t, err)
	assert.Greater(t, result.Cost, int64(0))

	z, _ := w.Zone("meadowbrook")
	got, _ := z.Entity(p.ID)
	weapon := got.Player.Equipment[types.SlotWeapon]
	assert.Equal(t, weapon.MaxDurability, weapon.Durability)
	assert.False(t, weapon.Broken)
}

func TestRepairRejectsForeignWallet(t *testing.T) {
	s, w, _ := newTestShop(t)

	p, err := w.SpawnPlayer("wallet-r", "Smith", "human", "warrior", "meadowbrook")
	require.NoError(t, err)

	_, err = s.Repair(context.Background(), "wallet-x", "meadowbrook", p.ID)
	var werr *world.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, world.KindAuthorization, werr.Kind)
}
