package combat

import (
	"math/rand"
	"testing"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlayer(t *testing.T, cat *catalog.Catalog, level int) *types.Entity {
	t.Helper()
	stats, err := cat.BaseStats("human", "warrior", level)
	require.NoError(t, err)

	e := &types.Entity{
		ID:   "player-1",
		Kind: types.KindPlayer,
		Name: "Tester",
		Combat: &types.CombatData{
			Level:   level,
			RaceID:  "human",
			ClassID: "warrior",
			Stats:   stats,
		},
		Player: &types.PlayerData{
			Wallet:    "wallet-1",
			Equipment: make(map[types.EquipSlot]*types.EquippedItem),
		},
	}
	RecomputeEffective(e, cat)
	e.HP = e.MaxHP
	return e
}

func testMob(cat *catalog.Catalog, mobID string) *types.Entity {
	def := cat.Mobs[mobID]
	return &types.Entity{
		ID:    "mob-1",
		Kind:  types.KindMob,
		Name:  def.Name,
		HP:    def.MaxHP,
		MaxHP: def.MaxHP,
		Combat: &types.CombatData{
			Level:          def.Level,
			Stats:          def.Stats,
			EffectiveStats: def.Stats,
			XPReward:       def.XPReward,
			MobID:          def.ID,
		},
	}
}

func TestResolveExchangeDamagesDefender(t *testing.T) {
	cat := catalog.Default()
	rng := rand.New(rand.NewSource(1))

	attacker := testPlayer(t, cat, 5)
	defender := testMob(cat, "gray-wolf")
	before := defender.HP

	ex := ResolveExchange(rng, attacker, defender, cat)

	assert.GreaterOrEqual(t, ex.Damage, 1)
	assert.Equal(t, before-ex.Damage, defender.HP)
	assert.GreaterOrEqual(t, defender.HP, 0)
}

func TestResolveExchangeTagsOnFirstPlayerDamage(t *testing.T) {
	cat := catalog.Default()
	rng := rand.New(rand.NewSource(1))

	attacker := testPlayer(t, cat, 5)
	defender := testMob(cat, "gray-wolf")

	ex := ResolveExchange(rng, attacker, defender, cat)
	require.True(t, ex.Tagged)
	assert.Equal(t, attacker.ID, defender.Combat.TaggedBy)

	// A second attacker never steals the tag
	other := testPlayer(t, cat, 10)
	other.ID = "player-2"
	ex = ResolveExchange(rng, other, defender, cat)
	assert.False(t, ex.Tagged)
	assert.Equal(t, attacker.ID, defender.Combat.TaggedBy)
}

func TestShieldAbsorbsBeforeHP(t *testing.T) {
	cat := catalog.Default()
	rng := rand.New(rand.NewSource(1))

	attacker := testMob(cat, "gray-wolf")
	defender := testPlayer(t, cat, 5)
	defender.Player.Effects = []types.Effect{
		{Name: "Wardshell", Kind: types.EffectShield, RemainingTicks: 40, ShieldHP: 1000},
	}
	before := defender.HP

	ex := ResolveExchange(rng, attacker, defender, cat)

	assert.Equal(t, ex.Damage, ex.ShieldAbsorbed)
	assert.Equal(t, before, defender.HP)
	assert.Equal(t, 1000-ex.Damage, defender.Player.Effects[0].ShieldHP)
}

func TestWeaponDurabilityWear(t *testing.T) {
	cat := catalog.Default()
	rng := rand.New(rand.NewSource(1))

	attacker := testPlayer(t, cat, 5)
	attacker.Player.Equipment[types.SlotWeapon] = &types.EquippedItem{
		TokenID: catalog.TokenRustySword, Durability: 1, MaxDurability: 40,
	}
	RecomputeEffective(attacker, cat)
	defender := testMob(cat, "gray-wolf")

	ex := ResolveExchange(rng, attacker, defender, cat)

	assert.True(t, ex.WeaponBroke)
	weapon := attacker.Player.Equipment[types.SlotWeapon]
	assert.True(t, weapon.Broken)
	assert.Equal(t, 0, weapon.Durability)
}

func TestBrokenItemContributesNoStats(t *testing.T) {
	cat := catalog.Default()

	p := testPlayer(t, cat, 5)
	bare := p.Combat.EffectiveStats

	p.Player.Equipment[types.SlotChest] = &types.EquippedItem{
		TokenID: catalog.TokenLeatherChest, Durability: 60, MaxDurability: 60,
	}
	RecomputeEffective(p, cat)
	assert.Greater(t, p.Combat.EffectiveStats.Def, bare.Def)

	p.Player.Equipment[types.SlotChest].Broken = true
	RecomputeEffective(p, cat)
	assert.Equal(t, bare, p.Combat.EffectiveStats)
}

func TestEquipUnequipRoundTrip(t *testing.T) {
	cat := catalog.Default()

	p := testPlayer(t, cat, 5)
	before := p.Combat.EffectiveStats

	p.Player.Equipment[types.SlotChest] = &types.EquippedItem{
		TokenID: catalog.TokenLeatherChest, Durability: 60, MaxDurability: 60,
	}
	RecomputeEffective(p, cat)
	require.NotEqual(t, before, p.Combat.EffectiveStats)

	delete(p.Player.Equipment, types.SlotChest)
	RecomputeEffective(p, cat)
	assert.Equal(t, before, p.Combat.EffectiveStats)
}

func TestAwardXPLevelsUp(t *testing.T) {
	cat := catalog.Default()

	p := testPlayer(t, cat, 1)
	ups := AwardXP(p, catalog.XPForLevel(2), cat)

	require.Len(t, ups, 1)
	assert.Equal(t, 2, p.Combat.Level)
	assert.Equal(t, p.MaxHP, p.HP, "level-up tops off vitals")

	stats, err := cat.BaseStats("human", "warrior", 2)
	require.NoError(t, err)
	assert.Equal(t, stats, p.Combat.Stats)
}

func TestAwardXPMultipleLevels(t *testing.T) {
	cat := catalog.Default()

	p := testPlayer(t, cat, 1)
	ups := AwardXP(p, catalog.XPForLevel(4), cat)
	assert.Len(t, ups, 3)
	assert.Equal(t, 4, p.Combat.Level)
}

func TestAwardXPCapsAtMaxLevel(t *testing.T) {
	cat := catalog.Default()

	p := testPlayer(t, cat, types.MaxLevel-1)
	ups := AwardXP(p, catalog.XPForLevel(types.MaxLevel)*10, cat)

	require.Len(t, ups, 1)
	assert.Equal(t, types.MaxLevel, p.Combat.Level)

	// Further XP is banked without another level
	banked := p.Combat.XP
	ups = AwardXP(p, 100000, cat)
	assert.Empty(t, ups)
	assert.Equal(t, types.MaxLevel, p.Combat.Level)
	assert.Equal(t, banked+100000, p.Combat.XP)
}

func TestXPTonicScalesAward(t *testing.T) {
	cat := catalog.Default()

	p := testPlayer(t, cat, 1)
	p.Player.XPTonicFactor = 1.5
	AwardXP(p, 100, cat)
	assert.Equal(t, int64(150), p.Combat.XP)
}

func TestApplyDeathPenalty(t *testing.T) {
	cat := catalog.Default()
	zdef := cat.Zone("meadowbrook")

	p := testPlayer(t, cat, 5)
	p.Player.Equipment[types.SlotChest] = &types.EquippedItem{
		TokenID: catalog.TokenLeatherChest, Durability: 60, MaxDurability: 60,
	}
	RecomputeEffective(p, cat)
	p.HP = 0
	p.Position = types.Position{X: 900, Y: 900}

	ApplyDeathPenalty(p, zdef, cat)

	assert.Equal(t, zdef.Graveyard, p.Position)
	assert.Equal(t, int(float64(p.MaxHP)*zdef.DeathHPFraction), p.HP)
	assert.Equal(t, 54, p.Player.Equipment[types.SlotChest].Durability, "durability hit applied")
}

func TestRollLootCopperRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	table := types.LootTable{CopperMin: 10, CopperMax: 10}

	for i := 0; i < 20; i++ {
		result := RollLoot(rng, table)
		assert.Equal(t, int64(10), result.Copper)
	}
}

func TestRollLootGuaranteedDrop(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	table := types.LootTable{
		AutoDrops: []types.LootDrop{{TokenID: 20, MinQty: 1, MaxQty: 1, Chance: 1.0}},
	}

	result := RollLoot(rng, table)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(20), result.Items[0].TokenID)
	assert.Equal(t, 1, result.Items[0].Qty)
}

func TestRollDropsRespectsChance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	drops := []types.LootDrop{{TokenID: 9, MinQty: 1, MaxQty: 1, Chance: 0}}

	for i := 0; i < 50; i++ {
		assert.Empty(t, RollDrops(rng, drops))
	}
}

func TestDamageFloorsAtOne(t *testing.T) {
	cat := catalog.Default()
	rng := rand.New(rand.NewSource(1))

	weak := testMob(cat, "gray-wolf")
	weak.Combat.EffectiveStats.Str = 0

	tank := testPlayer(t, cat, 5)
	tank.Combat.EffectiveStats.Def = 100000

	ex := ResolveExchange(rng, weak, tank, cat)
	assert.Equal(t, 1, ex.Damage)
}
