package world

import (
	"context"
	"testing"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "wallet-a"

// newTestWorld builds a world whose zone loops effectively never fire, so
// tests drive ticks by hand with RunTick
func newTestWorld(t *testing.T) (*World, *ledger.StubAdapter) {
	t.Helper()

	cat := catalog.Default()
	cat.Mobs["training-dummy"] = &catalog.MobDef{
		ID: "training-dummy", Name: "Training Dummy", Level: 4, MaxHP: 100,
		XPReward: 50, AggroRange: 0,
		Loot: types.LootTable{
			CopperMin: 10, CopperMax: 10,
			AutoDrops: []types.LootDrop{{TokenID: 20, MinQty: 1, MaxQty: 1, Chance: 1.0}},
		},
	}

	adapter := ledger.NewStubAdapter()
	serializer := ledger.NewSerializer(adapter)
	serializer.Start()
	t.Cleanup(serializer.Stop)

	feed := events.NewFeed()
	feed.Start()
	t.Cleanup(feed.Stop)

	w := New(cat, adapter, serializer, ledger.NewGoldLedger(), feed, nil, Config{
		TickInterval: time.Hour,
		Seed:         42,
	})
	t.Cleanup(w.Stop)
	return w, adapter
}

// spawnAt creates a player and drops it at pos
func spawnAt(t *testing.T, w *World, z *Zone, name string, wallet string, level int, pos types.Position) *types.Entity {
	t.Helper()

	clone, err := w.SpawnPlayer(wallet, name, "human", "warrior", z.ID)
	require.NoError(t, err)

	z.mu.Lock()
	defer z.mu.Unlock()
	e := z.entities[clone.ID]
	e.Position = pos
	if level > 1 {
		e.Combat.Level = level
		stats, err := w.catalog.BaseStats("human", "warrior", level)
		require.NoError(t, err)
		e.Combat.Stats = stats
		e.Combat.EffectiveStats = stats
		e.MaxHP = stats.HP
		e.HP = stats.HP
	}
	return e
}

// addMobAt places a mob with a known position and returns it
func addMobAt(t *testing.T, w *World, z *Zone, mobID string, pos types.Position) *types.Entity {
	t.Helper()
	mob := newMobEntity(w.catalog, mobID, pos)
	require.NotNil(t, mob)
	z.mu.Lock()
	z.addEntity(mob)
	z.mu.Unlock()
	return mob
}

func runTicks(w *World, z *Zone, n int) {
	for i := 0; i < n; i++ {
		w.RunTick(z)
	}
}

func hasEventType(z *Zone, typ events.EventType) bool {
	for _, e := range z.log.Since(time.Time{}, 0) {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestGetOrCreateZoneIdempotent(t *testing.T) {
	w, _ := newTestWorld(t)

	z1 := w.GetOrCreateZone("meadowbrook")
	z2 := w.GetOrCreateZone("meadowbrook")
	assert.Same(t, z1, z2)
}

func TestMoveOrderStepsAndClears(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Runner", testWallet, 1, types.Position{X: 0, Y: 0})

	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "move", X: 100, Y: 0,
	})
	require.NoError(t, err)

	w.RunTick(z)
	got, _ := z.Entity(p.ID)
	assert.InDelta(t, types.MoveSpeed, got.Position.X, 0.01)
	assert.NotNil(t, got.Order)

	runTicks(w, z, 3)
	got, _ = z.Entity(p.ID)
	assert.Nil(t, got.Order, "order clears on arrival")
	assert.InDelta(t, 100, got.Position.X, types.ArrivalThreshold)
}

func TestMoveToCurrentPositionClearsImmediately(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Idler", testWallet, 1, types.Position{X: 50, Y: 50})

	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "move", X: 50, Y: 50,
	})
	require.NoError(t, err)

	w.RunTick(z)
	got, _ := z.Entity(p.ID)
	assert.Nil(t, got.Order)
	assert.Equal(t, types.Position{X: 50, Y: 50}, got.Position)
}

// TestSoloKillSoloLoot is the canonical kill flow: corpse replacement, XP
// award, scheduled gold+item mint, and a kill event in the zone log
func TestSoloKillSoloLoot(t *testing.T) {
	w, adapter := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")

	p := spawnAt(t, w, z, "Slayer", testWallet, 5, types.Position{X: 0, Y: 0})
	mob := addMobAt(t, w, z, "training-dummy", types.Position{X: 10, Y: 0})

	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "attack", TargetID: mob.ID,
	})
	require.NoError(t, err)

	xpBefore := p.Combat.XP
	runTicks(w, z, 30)

	// Mob replaced by a corpse at its position
	_, alive := z.Entity(mob.ID)
	assert.False(t, alive)
	var corpse *types.Entity
	for _, e := range z.Snapshot().Entities {
		if e.Kind == types.KindCorpse {
			corpse = e
		}
	}
	require.NotNil(t, corpse)
	assert.Equal(t, "Training Dummy", corpse.Corpse.MobName)
	assert.Equal(t, p.ID, corpse.Corpse.LootOwner)

	// XP awarded to the tagger
	got, _ := z.Entity(p.ID)
	assert.Equal(t, xpBefore+50, got.Combat.XP)
	assert.Equal(t, 1, got.Combat.Kills)

	// Kill event present
	assert.True(t, hasEventType(z, events.EventKill))

	// Gold and item mint settle through the serializer
	require.Eventually(t, func() bool {
		gold, err := adapter.GoldBalance(context.Background(), testWallet)
		if err != nil || gold != 10 {
			return false
		}
		qty, err := adapter.ItemBalance(context.Background(), testWallet, 20)
		return err == nil && qty == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// TestTagGuaranteesLoot: the first player to damage the mob receives the
// loot even when another player lands the killing blow
func TestTagGuaranteesLoot(t *testing.T) {
	w, adapter := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")

	tagger := spawnAt(t, w, z, "Tagger", "wallet-tag", 1, types.Position{X: 0, Y: 0})
	finisher := spawnAt(t, w, z, "Finisher", "wallet-fin", 30, types.Position{X: 0, Y: 20})
	mob := addMobAt(t, w, z, "training-dummy", types.Position{X: 10, Y: 0})

	// Tagger lands the first hit
	_, err := w.Dispatch("wallet-tag", Command{
		ZoneID: z.ID, EntityID: tagger.ID, Action: "attack", TargetID: mob.ID,
	})
	require.NoError(t, err)
	w.RunTick(z)

	z.mu.Lock()
	assert.Equal(t, tagger.ID, z.entities[mob.ID].Combat.TaggedBy)
	z.entities[tagger.ID].Order = nil
	z.mu.Unlock()

	// Finisher does the real damage
	_, err = w.Dispatch("wallet-fin", Command{
		ZoneID: z.ID, EntityID: finisher.ID, Action: "attack", TargetID: mob.ID,
	})
	require.NoError(t, err)
	runTicks(w, z, 30)

	_, alive := z.Entity(mob.ID)
	require.False(t, alive, "mob should be dead")

	require.Eventually(t, func() bool {
		gold, err := adapter.GoldBalance(context.Background(), "wallet-tag")
		return err == nil && gold == 10
	}, 2*time.Second, 10*time.Millisecond)

	gold, err := adapter.GoldBalance(context.Background(), "wallet-fin")
	require.NoError(t, err)
	assert.Zero(t, gold, "finisher gets nothing")
}

func TestTaggedByImmutableWhileAlive(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")

	a := spawnAt(t, w, z, "First", "wallet-1", 1, types.Position{X: 0, Y: 0})
	b := spawnAt(t, w, z, "Second", "wallet-2", 1, types.Position{X: 0, Y: 20})
	mob := addMobAt(t, w, z, "gray-wolf", types.Position{X: 10, Y: 10})

	_, err := w.Dispatch("wallet-1", Command{ZoneID: z.ID, EntityID: a.ID, Action: "attack", TargetID: mob.ID})
	require.NoError(t, err)
	w.RunTick(z)

	z.mu.Lock()
	z.entities[a.ID].Order = nil
	z.mu.Unlock()

	_, err = w.Dispatch("wallet-2", Command{ZoneID: z.ID, EntityID: b.ID, Action: "attack", TargetID: mob.ID})
	require.NoError(t, err)
	w.RunTick(z)

	z.mu.RLock()
	defer z.mu.RUnlock()
	if m, ok := z.entities[mob.ID]; ok && m.Alive() {
		assert.Equal(t, a.ID, m.Combat.TaggedBy)
	}
}

// TestResourceRespawn gathers a node to depletion and waits out the
// respawn window
func TestResourceRespawn(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")

	var node *types.Entity
	z.mu.Lock()
	for _, e := range z.entities {
		if e.Kind == types.KindOreNode {
			node = e
		}
	}
	z.mu.Unlock()
	require.NotNil(t, node)
	require.Equal(t, 3, node.Node.MaxCharges)

	p := spawnAt(t, w, z, "Miner", testWallet, 1, node.Position)
	z.mu.Lock()
	z.entities[p.ID].Player.Equipment[types.SlotWeapon] = &types.EquippedItem{
		TokenID: catalog.TokenCopperPickaxe, Durability: 50, MaxDurability: 50,
	}
	z.mu.Unlock()

	for i := 0; i < 3; i++ {
		_, err := w.Dispatch(testWallet, Command{
			ZoneID: z.ID, EntityID: p.ID, Action: "gather", TargetID: node.ID,
		})
		require.NoError(t, err)
		w.RunTick(z)
	}

	z.mu.RLock()
	charges := node.Node.Charges
	depletedAt := node.Node.DepletedAtTick
	z.mu.RUnlock()
	require.Equal(t, 0, charges)

	// Depleted gathers fail with the stable reason
	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "gather", TargetID: node.ID,
	})
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "node depleted", werr.Reason)

	// After respawnTicks the node is full again
	for z.Tick() < depletedAt+node.Node.RespawnTicks {
		w.RunTick(z)
	}
	w.RunTick(z)

	z.mu.RLock()
	defer z.mu.RUnlock()
	assert.Equal(t, 3, node.Node.Charges)
}

func TestGatherToolGating(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("duskfen")

	var node *types.Entity
	z.mu.Lock()
	for _, e := range z.entities {
		if e.Kind == types.KindOreNode {
			node = e // iron node, tool tier 2
		}
	}
	z.mu.Unlock()
	require.NotNil(t, node)

	p := spawnAt(t, w, z, "Miner", testWallet, 1, node.Position)

	// No tool at all
	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "gather", TargetID: node.ID,
	})
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "missing tool", werr.Reason)

	// Tier-1 pickaxe against a tier-2 node
	z.mu.Lock()
	z.entities[p.ID].Player.Equipment[types.SlotWeapon] = &types.EquippedItem{
		TokenID: catalog.TokenCopperPickaxe, Durability: 50, MaxDurability: 50,
	}
	z.mu.Unlock()
	_, err = w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "gather", TargetID: node.ID,
	})
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "tool insufficient", werr.Reason)
}

func TestAttackCorpseFails(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Slayer", testWallet, 5, types.Position{X: 0, Y: 0})

	corpse := &types.Entity{
		ID: "corpse-1", Kind: types.KindCorpse, Name: "Wolf corpse",
		Position: types.Position{X: 5, Y: 0},
		Corpse:   &types.CorpseData{MobName: "Wolf", SkinnableUntil: time.Now().Add(time.Minute)},
	}
	z.mu.Lock()
	z.addEntity(corpse)
	z.mu.Unlock()

	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "attack", TargetID: corpse.ID,
	})
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "target dead", werr.Reason)
}

// TestPortalProximity: a transition out of range fails without any zone
// change; moving into range makes it succeed
func TestPortalProximity(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")

	// Portal to duskfen sits at (1180, 600), range 30, level 8
	p := spawnAt(t, w, z, "Walker", testWallet, 10, types.Position{X: 1130, Y: 600})

	_, err := w.Transition(testWallet, z.ID, "meadowbrook-duskfen", p.ID)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "too far", werr.Reason)

	_, stillHere := z.Entity(p.ID)
	assert.True(t, stillHere, "failed transition changes nothing")

	// Step into range and retry
	z.mu.Lock()
	z.entities[p.ID].Position = types.Position{X: 1170, Y: 600}
	z.mu.Unlock()

	moved, err := w.Transition(testWallet, z.ID, "meadowbrook-duskfen", p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Position{X: 80, Y: 600}, moved.Position)
	assert.Nil(t, moved.Order)

	// In exactly one zone
	_, inSrc := z.Entity(p.ID)
	assert.False(t, inSrc)
	dst, ok := w.Zone("duskfen")
	require.True(t, ok)
	_, inDst := dst.Entity(p.ID)
	assert.True(t, inDst)

	assert.True(t, hasEventType(z, events.EventTransition))
	assert.True(t, hasEventType(dst, events.EventTransition))
}

func TestTransitionLevelGate(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Fresh", testWallet, 1, types.Position{X: 1175, Y: 600})

	_, err := w.Transition(testWallet, z.ID, "meadowbrook-duskfen", p.ID)
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "level too low", werr.Reason)
}

func TestDispatchRejectsForeignWallet(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Victim", testWallet, 1, types.Position{X: 0, Y: 0})

	_, err := w.Dispatch("wallet-other", Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "move", X: 10, Y: 10,
	})
	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, KindAuthorization, werr.Kind)
}

func TestDispatchValidation(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Tester", testWallet, 1, types.Position{X: 0, Y: 0})

	tests := []struct {
		name string
		cmd  Command
	}{
		{name: "unknown zone", cmd: Command{ZoneID: "nowhere", EntityID: p.ID, Action: "move"}},
		{name: "unknown entity", cmd: Command{ZoneID: z.ID, EntityID: "ghost", Action: "move"}},
		{name: "unknown action", cmd: Command{ZoneID: z.ID, EntityID: p.ID, Action: "dance"}},
		{name: "attack without target", cmd: Command{ZoneID: z.ID, EntityID: p.ID, Action: "attack"}},
		{name: "unknown technique", cmd: Command{ZoneID: z.ID, EntityID: p.ID, Action: "cast", TechniqueID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Dispatch(testWallet, tt.cmd)
			var werr *Error
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, KindValidation, werr.Kind)
		})
	}
}

func TestPlayerDeathPenaltyOnTick(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Doomed", testWallet, 1, types.Position{X: 900, Y: 900})

	z.mu.Lock()
	z.entities[p.ID].HP = 0
	z.mu.Unlock()
	w.RunTick(z)

	got, ok := z.Entity(p.ID)
	require.True(t, ok, "players are not deleted on death")
	assert.Equal(t, z.def.Graveyard, got.Position)
	assert.Greater(t, got.HP, 0)
	assert.True(t, hasEventType(z, events.EventDeath))
}

func TestHoTHealsBeforeDeathCheck(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Patient", testWallet, 1, types.Position{X: 0, Y: 0})

	z.mu.Lock()
	e := z.entities[p.ID]
	e.HP = 1
	e.Player.Effects = []types.Effect{
		{Name: "Mending", Kind: types.EffectHoT, RemainingTicks: 5, HotHealPerTick: 4},
	}
	z.mu.Unlock()

	w.RunTick(z)
	got, _ := z.Entity(p.ID)
	assert.Equal(t, 5, got.HP)
}

func TestBuffExpiryRecomputesStats(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Buffed", testWallet, 1, types.Position{X: 0, Y: 0})

	z.mu.Lock()
	e := z.entities[p.ID]
	base := e.Combat.Stats
	e.Player.Effects = []types.Effect{
		{Name: "Battlecry", Kind: types.EffectBuff, RemainingTicks: 1, StatModifiers: types.Stats{Str: 5}},
	}
	e.Combat.EffectiveStats = base.Add(types.Stats{Str: 5})
	z.mu.Unlock()

	w.RunTick(z)

	got, _ := z.Entity(p.ID)
	assert.Empty(t, got.Player.Effects)
	assert.Equal(t, base, got.Combat.EffectiveStats)
}

func TestCorpseExpiry(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")

	corpse := &types.Entity{
		ID: "corpse-old", Kind: types.KindCorpse, Name: "old corpse",
		Corpse: &types.CorpseData{MobName: "Wolf", SkinnableUntil: time.Now().Add(-time.Second)},
	}
	z.mu.Lock()
	z.addEntity(corpse)
	z.mu.Unlock()

	w.RunTick(z)
	_, ok := z.Entity(corpse.ID)
	assert.False(t, ok)
}

func TestMobAIAttacksTagger(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Bait", testWallet, 5, types.Position{X: 0, Y: 0})
	mob := addMobAt(t, w, z, "gray-wolf", types.Position{X: 10, Y: 0})

	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "attack", TargetID: mob.ID,
	})
	require.NoError(t, err)
	w.RunTick(z)
	w.RunTick(z)

	hpBefore := func() int {
		got, _ := z.Entity(p.ID)
		return got.HP
	}()
	runTicks(w, z, 3)
	got, _ := z.Entity(p.ID)
	assert.Less(t, got.HP, hpBefore, "tagged wolf bites back")
}

func TestVitalsStayBounded(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Subject", testWallet, 5, types.Position{X: 0, Y: 0})
	mob := addMobAt(t, w, z, "gray-wolf", types.Position{X: 10, Y: 0})

	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "attack", TargetID: mob.ID,
	})
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		w.RunTick(z)
		for _, e := range z.Snapshot().Entities {
			if e.Kind.IsCombatant() {
				assert.GreaterOrEqual(t, e.HP, 0)
				assert.LessOrEqual(t, e.HP, e.MaxHP)
			}
		}
	}
}

func TestEventLogAppendOnly(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")
	p := spawnAt(t, w, z, "Noisy", testWallet, 5, types.Position{X: 0, Y: 0})
	mob := addMobAt(t, w, z, "training-dummy", types.Position{X: 10, Y: 0})

	_, err := w.Dispatch(testWallet, Command{
		ZoneID: z.ID, EntityID: p.ID, Action: "attack", TargetID: mob.ID,
	})
	require.NoError(t, err)
	w.RunTick(z)

	before := z.log.Since(time.Time{}, 0)
	ids := make([]string, len(before))
	for i, e := range before {
		ids[i] = e.ID
	}

	runTicks(w, z, 5)
	after := z.log.Since(time.Time{}, 0)
	require.GreaterOrEqual(t, len(after), len(before))
	for i, id := range ids {
		assert.Equal(t, id, after[i].ID, "existing events never mutate or reorder")
	}
}

func TestMobRespawnsFromSpawnTable(t *testing.T) {
	w, _ := newTestWorld(t)
	z := w.GetOrCreateZone("meadowbrook")

	countWolves := func() int {
		n := 0
		for _, e := range z.Snapshot().Entities {
			if e.Kind == types.KindMob && e.Combat != nil && e.Combat.MobID == "gray-wolf" {
				n++
			}
		}
		return n
	}
	initial := countWolves()
	require.Greater(t, initial, 0)

	// Kill one wolf directly
	z.mu.Lock()
	for _, e := range z.entities {
		if e.Kind == types.KindMob && e.Combat.MobID == "gray-wolf" {
			e.Combat.TaggedBy = ""
			e.HP = 0
			break
		}
	}
	z.mu.Unlock()
	w.RunTick(z)
	assert.Equal(t, initial-1, countWolves())

	// Wolf spawn table says 60 ticks
	runTicks(w, z, 61)
	assert.Equal(t, initial, countWolves())
}
