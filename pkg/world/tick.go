package world

import (
	"context"
	"fmt"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/combat"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/google/uuid"
)

// RunTick advances the zone by exactly one tick. It is the only writer of
// zone state besides portal transitions, which take the same lock.
func (w *World) RunTick(z *Zone) {
	z.mu.Lock()
	defer z.mu.Unlock()

	now := time.Now()

	z.drainInbox()

	// 1. Expire effects, apply HoTs before movement and combat so dying
	// players benefit from end-of-tick heals consistently
	w.tickEffects(z)

	// 2. Resource respawn
	w.tickNodeRespawns(z)

	// 2b. Mob respawn from spawn tables
	w.tickMobRespawns(z)

	// 3. Corpse expiry
	w.tickCorpseExpiry(z, now)

	// 4. Order execution, one step per entity
	w.tickOrders(z)

	// 5. Mob AI: tagged mobs chase their tagger
	w.tickMobAI(z)

	// 6. Deaths
	w.tickDeaths(z, now)

	// 7. Event flush
	for _, ev := range z.pendingEvents {
		z.log.Append(ev)
		w.feed.Publish(ev)
	}
	z.pendingEvents = z.pendingEvents[:0]

	// 8. Advance the counter
	z.tick++
	metrics.TicksTotal.WithLabelValues(z.ID).Inc()
}

func (w *World) tickEffects(z *Zone) {
	for _, e := range z.entities {
		if e.Player == nil {
			continue
		}
		kept := e.Player.Effects[:0]
		changed := false
		for _, eff := range e.Player.Effects {
			eff.RemainingTicks--
			if eff.Kind == types.EffectHoT && eff.HotHealPerTick > 0 && e.HP > 0 {
				e.HP += eff.HotHealPerTick
				e.ClampVitals()
			}
			if eff.RemainingTicks > 0 && !(eff.Kind == types.EffectShield && eff.ShieldHP <= 0) {
				kept = append(kept, eff)
			} else {
				changed = true
			}
		}
		e.Player.Effects = kept
		if changed {
			combat.RecomputeEffective(e, w.catalog)
		}
	}
}

func (w *World) tickNodeRespawns(z *Zone) {
	for _, e := range z.entities {
		if e.Node == nil || e.Node.Charges > 0 {
			continue
		}
		if z.tick-e.Node.DepletedAtTick >= e.Node.RespawnTicks {
			e.Node.Charges = e.Node.MaxCharges
			e.Node.DepletedAtTick = 0
		}
	}
}

func (w *World) tickMobRespawns(z *Zone) {
	if len(z.respawns) == 0 {
		return
	}
	kept := z.respawns[:0]
	for _, r := range z.respawns {
		if z.tick < r.atTick {
			kept = append(kept, r)
			continue
		}
		if mob := newMobEntity(w.catalog, r.mobID, r.pos); mob != nil {
			z.addEntity(mob)
		}
	}
	z.respawns = kept
}

func (w *World) tickCorpseExpiry(z *Zone, now time.Time) {
	for id, e := range z.entities {
		if e.Corpse != nil && now.After(e.Corpse.SkinnableUntil) {
			delete(z.entities, id)
		}
	}
}

// tickOrders executes at most one step of every pending order. A panic in
// one entity's order is contained: it clears the order, emits a system
// event, and the tick continues.
func (w *World) tickOrders(z *Zone) {
	for _, e := range z.entities {
		if e.Order == nil {
			continue
		}
		w.executeOrder(z, e)
	}
}

func (w *World) executeOrder(z *Zone, e *types.Entity) {
	defer func() {
		if r := recover(); r != nil {
			metrics.OrderFaults.Inc()
			entityLogger := log.WithEntityID(e.ID)
			entityLogger.Error().
				Str("zone_id", z.ID).
				Interface("panic", r).
				Msg("Order handler fault")
			ev := events.New(events.EventSystem, z.ID, z.tick,
				fmt.Sprintf("order fault for %s", e.Name))
			ev.ActorID = e.ID
			z.emit(ev)
			e.Order = nil
		}
	}()

	switch e.Order.Action {
	case types.ActionMove:
		w.stepMove(z, e)
	case types.ActionAttack:
		w.stepAttack(z, e)
	case types.ActionGather:
		w.stepGather(z, e)
	case types.ActionCast:
		w.stepCast(z, e)
	case types.ActionSkin:
		w.stepSkin(z, e)
	default:
		e.Order = nil
	}
}

// stepMove advances the entity toward the order target at the movement
// speed, clearing the order inside the arrival threshold
func (w *World) stepMove(z *Zone, e *types.Entity) {
	target := types.Position{X: e.Order.X, Y: e.Order.Y}
	if stepToward(e, target, types.ArrivalThreshold) {
		e.Order = nil
	}
}

// stepToward moves e one tick toward target; reports arrival
func stepToward(e *types.Entity, target types.Position, threshold float64) bool {
	dist := e.Position.DistanceTo(target)
	if dist <= threshold {
		return true
	}
	step := types.MoveSpeed
	if step >= dist {
		e.Position = target
		return true
	}
	e.Position.X += (target.X - e.Position.X) / dist * step
	e.Position.Y += (target.Y - e.Position.Y) / dist * step
	return false
}

func (w *World) stepAttack(z *Zone, e *types.Entity) {
	target, ok := z.entities[e.Order.TargetID]
	if !ok || !target.Alive() {
		e.Order = nil
		return
	}

	if e.Position.DistanceTo(target.Position) > types.AttackRange {
		stepToward(e, target.Position, types.AttackRange)
		return
	}

	ex := combat.ResolveExchange(z.rng, e, target, w.catalog)

	ev := events.New(events.EventCombat, z.ID, z.tick,
		fmt.Sprintf("%s hits %s for %d", e.Name, target.Name, ex.Damage))
	ev.ActorID = e.ID
	ev.TargetID = target.ID
	ev.Data = map[string]string{"damage": fmt.Sprintf("%d", ex.Damage)}
	z.emit(ev)

	if ex.DefenderDied {
		// Death resolution happens in the deaths pass this same tick
		e.Order = nil
	}
}

func (w *World) stepCast(z *Zone, e *types.Entity) {
	// Casting always consumes the order; cooldown/essence misses simply fizzle
	order := e.Order
	e.Order = nil

	if e.Player == nil {
		return
	}
	tech, ok := w.catalog.Techniques[order.TechniqueID]
	if !ok || !hasTechnique(e, order.TechniqueID) {
		return
	}
	if ready, exists := e.Player.Cooldowns[tech.ID]; exists && z.tick < ready {
		return
	}
	if e.Essence < tech.EssenceCost {
		return
	}

	e.Essence -= tech.EssenceCost
	if e.Player.Cooldowns == nil {
		e.Player.Cooldowns = make(map[string]int64)
	}
	e.Player.Cooldowns[tech.ID] = z.tick + tech.CooldownTicks

	switch tech.Kind {
	case catalog.TechDamage:
		target, ok := z.entities[order.TargetID]
		if !ok || !target.Alive() || e.Position.DistanceTo(target.Position) > types.InteractRange*2 {
			return
		}
		dmg := tech.Power + e.Combat.EffectiveStats.Int
		target.HP -= dmg
		target.ClampVitals()
		if target.Combat != nil && target.Kind != types.KindPlayer && target.Combat.TaggedBy == "" {
			target.Combat.TaggedBy = e.ID
		}
		ev := events.New(events.EventCombat, z.ID, z.tick,
			fmt.Sprintf("%s casts %s on %s for %d", e.Name, tech.Name, target.Name, dmg))
		ev.ActorID = e.ID
		ev.TargetID = target.ID
		z.emit(ev)
	case catalog.TechHeal:
		heal := tech.Power + e.Combat.EffectiveStats.Int/2
		e.HP += heal
		e.ClampVitals()
		if tech.HotHealPerTick > 0 {
			e.Player.Effects = append(e.Player.Effects, types.Effect{
				Name: tech.Name, Kind: types.EffectHoT,
				RemainingTicks: tech.DurationTicks, HotHealPerTick: tech.HotHealPerTick,
			})
		}
	case catalog.TechShield:
		e.Player.Effects = append(e.Player.Effects, types.Effect{
			Name: tech.Name, Kind: types.EffectShield,
			RemainingTicks: tech.DurationTicks, ShieldHP: tech.Power,
		})
	case catalog.TechBuff:
		e.Player.Effects = append(e.Player.Effects, types.Effect{
			Name: tech.Name, Kind: types.EffectBuff,
			RemainingTicks: tech.DurationTicks, StatModifiers: tech.StatModifiers,
		})
		combat.RecomputeEffective(e, w.catalog)
	}
}

// toolForNode maps a node kind to the tool type that harvests it
func toolForNode(kind types.Kind) string {
	switch kind {
	case types.KindOreNode:
		return "pickaxe"
	case types.KindFlowerNode, types.KindNectarNode:
		return "sickle"
	}
	return ""
}

// professionXPByRarity is the profession XP credited per successful gather
var professionXPByRarity = map[string]int64{"": 5, "common": 5, "uncommon": 12, "rare": 30}

func (w *World) stepGather(z *Zone, e *types.Entity) {
	order := e.Order
	e.Order = nil

	if e.Player == nil {
		return
	}
	node, ok := z.entities[order.TargetID]
	if !ok || node.Node == nil {
		return
	}
	if err := w.checkGather(e, node); err != nil {
		ev := events.New(events.EventSystem, z.ID, z.tick,
			fmt.Sprintf("%s cannot gather: %s", e.Name, err.Reason))
		ev.ActorID = e.ID
		z.emit(ev)
		return
	}

	node.Node.Charges--
	if node.Node.Charges == 0 {
		node.Node.DepletedAtTick = z.tick
	}

	// Yield quantity 1..2, with the node's rarity driving profession XP
	qty := 1 + z.rng.Intn(2)
	prof := toolForNode(node.Kind)
	if e.Player.ProfessionXP == nil {
		e.Player.ProfessionXP = make(map[string]int64)
	}
	e.Player.ProfessionXP[prof] += professionXPByRarity[node.Node.Rarity]

	ev := events.New(events.EventGather, z.ID, z.tick,
		fmt.Sprintf("%s gathers %s x%d", e.Name, node.Name, qty))
	ev.ActorID = e.ID
	ev.TargetID = node.ID
	z.emit(ev)

	w.mintLoot(z, e.Player.Wallet, e.ID, 0, []itemAward{{tokenID: node.Node.YieldTokenID, qty: qty}}, z.tick)
}

// checkGather validates a gather attempt when the tick executes it; the
// dispatcher's precheckGather repeats these checks except range
func (w *World) checkGather(e *types.Entity, node *types.Entity) *Error {
	if node.Node.Charges <= 0 {
		return NewPrecondition("cannot gather", "node depleted")
	}
	if e.Position.DistanceTo(node.Position) > types.InteractRange {
		return NewPrecondition("cannot gather", "too far")
	}
	toolType := toolForNode(node.Kind)
	weapon, ok := e.Player.Equipment[types.SlotWeapon]
	if !ok || weapon.Broken {
		return NewPrecondition("cannot gather", "missing tool")
	}
	def, ok := w.catalog.Items[weapon.TokenID]
	if !ok || def.ToolType != toolType {
		return NewPrecondition("cannot gather", "missing tool")
	}
	if def.ToolTier < node.Node.RequiredToolTier {
		return NewPrecondition("cannot gather", "tool insufficient")
	}
	return nil
}

func (w *World) stepSkin(z *Zone, e *types.Entity) {
	order := e.Order
	e.Order = nil

	if e.Player == nil {
		return
	}
	corpse, ok := z.entities[order.TargetID]
	if !ok || corpse.Corpse == nil {
		return
	}
	if err := w.checkSkin(e, corpse); err != nil {
		ev := events.New(events.EventSystem, z.ID, z.tick,
			fmt.Sprintf("%s cannot skin: %s", e.Name, err.Reason))
		ev.ActorID = e.ID
		z.emit(ev)
		return
	}

	corpse.Corpse.Skinned = true
	items := combat.RollDrops(z.rng, corpse.Corpse.SkinningDrops)
	awards := make([]itemAward, 0, len(items))
	for _, item := range items {
		awards = append(awards, itemAward{tokenID: item.TokenID, qty: item.Qty})
	}

	ev := events.New(events.EventGather, z.ID, z.tick,
		fmt.Sprintf("%s skins %s", e.Name, corpse.Corpse.MobName))
	ev.ActorID = e.ID
	ev.TargetID = corpse.ID
	z.emit(ev)

	w.mintLoot(z, e.Player.Wallet, e.ID, 0, awards, z.tick)
}

func (w *World) checkSkin(e *types.Entity, corpse *types.Entity) *Error {
	if corpse.Corpse.Skinned {
		return NewPrecondition("cannot skin", "already skinned")
	}
	if time.Now().After(corpse.Corpse.SkinnableUntil) {
		return NewPrecondition("cannot skin", "corpse decayed")
	}
	if corpse.Corpse.LootOwner != "" && corpse.Corpse.LootOwner != e.ID {
		return NewPrecondition("cannot skin", "not your kill")
	}
	if e.Position.DistanceTo(corpse.Position) > types.InteractRange {
		return NewPrecondition("cannot skin", "too far")
	}
	weapon, ok := e.Player.Equipment[types.SlotWeapon]
	if !ok || weapon.Broken {
		return NewPrecondition("cannot skin", "missing tool")
	}
	def, ok := w.catalog.Items[weapon.TokenID]
	if !ok || def.ToolType != "skinning-knife" {
		return NewPrecondition("cannot skin", "missing tool")
	}
	return nil
}

// tickMobAI issues internal attack orders for tagged mobs whose tagger is
// alive and within aggro range. Untagged mobs stand still.
func (w *World) tickMobAI(z *Zone) {
	for _, e := range z.entities {
		if e.Combat == nil || e.Kind == types.KindPlayer || e.Combat.TaggedBy == "" || !e.Alive() {
			continue
		}
		tagger, ok := z.entities[e.Combat.TaggedBy]
		if !ok || !tagger.Alive() {
			continue
		}
		if e.Position.DistanceTo(tagger.Position) > e.Combat.AggroRange {
			continue
		}
		if e.Order == nil || e.Order.Action != types.ActionAttack {
			e.Order = &types.Order{Action: types.ActionAttack, TargetID: tagger.ID}
		}
	}
}

// tickDeaths resolves every combatant at zero hit points: players take the
// death penalty, mobs become corpses and pay out loot and XP
func (w *World) tickDeaths(z *Zone, now time.Time) {
	for id, e := range z.entities {
		if e.Combat == nil || e.HP > 0 {
			continue
		}

		if e.Kind == types.KindPlayer {
			combat.ApplyDeathPenalty(e, z.def, w.catalog)
			e.Order = nil
			ev := events.New(events.EventDeath, z.ID, z.tick,
				fmt.Sprintf("%s has died", e.Name))
			ev.ActorID = e.ID
			z.emit(ev)
			continue
		}

		// Mob or boss: replace with a corpse and pay out the tagger
		w.resolveMobDeath(z, e, now)
		delete(z.entities, id)
	}
}

func (w *World) resolveMobDeath(z *Zone, mob *types.Entity, now time.Time) {
	def := w.catalog.Mobs[mob.Combat.MobID]

	corpse := &types.Entity{
		ID:       uuid.New().String(),
		Kind:     types.KindCorpse,
		Name:     mob.Name + " corpse",
		Position: mob.Position,
		Corpse: &types.CorpseData{
			MobName:        mob.Name,
			SkinnableUntil: now.Add(types.CorpseSkinWindow),
			LootOwner:      mob.Combat.TaggedBy,
		},
	}
	if def != nil {
		corpse.Corpse.SkinningDrops = def.Loot.SkinningDrops
	}
	z.addEntity(corpse)

	// Schedule respawn from the spawn table
	if def != nil {
		respawnTicks := int64(0)
		for _, spawn := range z.def.Spawns {
			if spawn.MobID == def.ID {
				respawnTicks = spawn.RespawnTicks
				break
			}
		}
		if respawnTicks > 0 {
			z.respawns = append(z.respawns, respawnEntry{
				atTick: z.tick + respawnTicks,
				mobID:  def.ID,
				pos:    scatter(z.rng, mob.Position, 60),
			})
		}
	}

	ev := events.New(events.EventKill, z.ID, z.tick, fmt.Sprintf("%s was slain", mob.Name))
	ev.TargetID = mob.ID
	z.emit(ev)

	tagger, ok := z.entities[mob.Combat.TaggedBy]
	if !ok || tagger.Player == nil {
		return
	}
	ev.ActorID = tagger.ID
	tagger.Combat.Kills++

	// XP to the tagger, split evenly with party members alive in the zone
	recipients := w.partyMembersIn(z, tagger)
	share := mob.Combat.XPReward / int64(len(recipients))
	for _, p := range recipients {
		ups := combat.AwardXP(p, share, w.catalog)
		for _, up := range ups {
			lev := events.New(events.EventLevelUp, z.ID, z.tick,
				fmt.Sprintf("%s reached level %d", p.Name, up.NewLevel))
			lev.ActorID = p.ID
			z.emit(lev)
			w.persistProgress(p)
		}
	}

	// Loot rolls settle through the transaction serializer
	if def != nil {
		result := combat.RollLoot(z.rng, def.Loot)
		awards := make([]itemAward, 0, len(result.Items))
		for _, item := range result.Items {
			awards = append(awards, itemAward{tokenID: item.TokenID, qty: item.Qty})
		}
		w.mintLoot(z, tagger.Player.Wallet, tagger.ID, result.Copper, awards, z.tick)
	}
}

// partyMembersIn returns the tagger plus any party members alive in z
func (w *World) partyMembersIn(z *Zone, tagger *types.Entity) []*types.Entity {
	members := []*types.Entity{tagger}
	if tagger.Player == nil || tagger.Player.PartyID == "" {
		return members
	}
	for _, e := range z.entities {
		if e.ID == tagger.ID || e.Player == nil || !e.Alive() {
			continue
		}
		if e.Player.PartyID == tagger.Player.PartyID {
			members = append(members, e)
		}
	}
	return members
}

// persistProgress writes level/xp to the progress store and schedules the
// on-ledger character metadata update
func (w *World) persistProgress(p *types.Entity) {
	if p.Player == nil || p.Combat == nil {
		return
	}
	if w.progress != nil {
		if err := w.progress.SaveProgress(p.Player.Wallet, p.Name, p.Combat.Level, p.Combat.XP); err != nil {
			w.logger.Error().Err(err).Str("entity_id", p.ID).Msg("Failed to persist progress")
		}
	}
	meta := ledger.CharacterMetadata{Name: p.Name, Level: p.Combat.Level, XP: p.Combat.XP}
	wallet := p.Player.Wallet
	w.serializer.Submit("update-metadata", func(ctx context.Context, a ledger.Adapter) error {
		return a.UpdateCharacterMetadata(ctx, wallet, meta)
	})
}

func lootGoldMessage(copper int64) string {
	return fmt.Sprintf("looted %d copper", copper)
}

func lootItemMessage(cat *catalog.Catalog, tokenID int64, qty int) string {
	name := fmt.Sprintf("token %d", tokenID)
	if def, ok := cat.Items[tokenID]; ok {
		name = def.Name
	}
	return fmt.Sprintf("looted %s x%d", name, qty)
}
