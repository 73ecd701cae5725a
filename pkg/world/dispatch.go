package world

import (
	"context"
	"fmt"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/combat"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/google/uuid"
)

// Command is an external intent for one entity
type Command struct {
	ZoneID      string  `json:"zoneId"`
	EntityID    string  `json:"entityId"`
	Action      string  `json:"action"`
	TargetID    string  `json:"targetId,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	TechniqueID string  `json:"techniqueId,omitempty"`
	TokenID     int64   `json:"tokenId,omitempty"`
	Slot        string  `json:"slot,omitempty"`
}

// Receipt echoes the accepted command. Callers observe effects by polling
// snapshots or the event log; the receipt only confirms acceptance.
type Receipt struct {
	ZoneID   string            `json:"zoneId"`
	EntityID string            `json:"entityId"`
	Action   string            `json:"action"`
	Status   string            `json:"status"`
	Order    *types.Order      `json:"order,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

// Dispatch validates a command against the session wallet and either queues
// an order for the next tick or, for synchronous actions (interact,
// use-item, unequip), applies it immediately.
func (w *World) Dispatch(wallet string, cmd Command) (*Receipt, error) {
	r, err := w.dispatch(wallet, cmd)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CommandsTotal.WithLabelValues(cmd.Action, status).Inc()
	return r, err
}

func (w *World) dispatch(wallet string, cmd Command) (*Receipt, error) {
	z, ok := w.Zone(cmd.ZoneID)
	if !ok {
		return nil, NewValidation("unknown zone")
	}

	z.mu.RLock()
	e, ok := z.entities[cmd.EntityID]
	if !ok {
		z.mu.RUnlock()
		return nil, NewValidation("unknown entity")
	}
	if e.Kind != types.KindPlayer || e.Player == nil {
		z.mu.RUnlock()
		return nil, NewValidation("entity cannot take commands")
	}
	if e.Player.Wallet != wallet {
		z.mu.RUnlock()
		walletLogger := log.WithWallet(wallet)
		walletLogger.Warn().
			Str("entity_id", cmd.EntityID).
			Str("action", cmd.Action).
			Msg("Command rejected: wallet does not own entity")
		return nil, NewAuthorization("wallet does not own entity")
	}
	z.mu.RUnlock()

	switch cmd.Action {
	case "move":
		return w.queueOrder(z, cmd, &types.Order{Action: types.ActionMove, X: cmd.X, Y: cmd.Y})
	case "attack":
		if cmd.TargetID == "" {
			return nil, NewValidation("attack requires targetId")
		}
		if err := w.checkAttackTarget(z, cmd.TargetID); err != nil {
			return nil, err
		}
		return w.queueOrder(z, cmd, &types.Order{Action: types.ActionAttack, TargetID: cmd.TargetID})
	case "gather":
		if cmd.TargetID == "" {
			return nil, NewValidation("gather requires targetId")
		}
		if err := w.precheckGather(z, cmd.EntityID, cmd.TargetID); err != nil {
			return nil, err
		}
		return w.queueOrder(z, cmd, &types.Order{Action: types.ActionGather, TargetID: cmd.TargetID})
	case "cast":
		if cmd.TechniqueID == "" {
			return nil, NewValidation("cast requires techniqueId")
		}
		if _, ok := w.catalog.Techniques[cmd.TechniqueID]; !ok {
			return nil, NewValidation("unknown technique")
		}
		return w.queueOrder(z, cmd, &types.Order{Action: types.ActionCast, TargetID: cmd.TargetID, TechniqueID: cmd.TechniqueID})
	case "skin":
		if cmd.TargetID == "" {
			return nil, NewValidation("skin requires targetId")
		}
		return w.queueOrder(z, cmd, &types.Order{Action: types.ActionSkin, TargetID: cmd.TargetID})
	case "interact":
		return w.doInteract(z, cmd)
	case "use-item":
		return w.doUseItem(z, cmd)
	case "unequip":
		return w.doUnequip(z, cmd)
	default:
		return nil, NewValidation("unknown action")
	}
}

func (w *World) queueOrder(z *Zone, cmd Command, order *types.Order) (*Receipt, error) {
	if err := z.submitOrder(cmd.EntityID, order); err != nil {
		return nil, err
	}
	return &Receipt{
		ZoneID:   z.ID,
		EntityID: cmd.EntityID,
		Action:   cmd.Action,
		Status:   "queued",
		Order:    order,
	}, nil
}

// checkAttackTarget rejects attacks on dead or non-combatant targets at
// submission time; the tick re-validates every step
func (w *World) checkAttackTarget(z *Zone, targetID string) *Error {
	z.mu.RLock()
	defer z.mu.RUnlock()

	target, ok := z.entities[targetID]
	if !ok {
		return NewValidation("unknown target")
	}
	if target.Kind == types.KindCorpse {
		return NewPrecondition("cannot attack", "target dead")
	}
	if !target.Kind.IsCombatant() {
		return NewPrecondition("cannot attack", "target not attackable")
	}
	if !target.Alive() {
		return NewPrecondition("cannot attack", "target dead")
	}
	return nil
}

// precheckGather surfaces tool and depletion failures synchronously so the
// caller gets the stable reason string instead of a silent fizzle
func (w *World) precheckGather(z *Zone, entityID, nodeID string) *Error {
	z.mu.RLock()
	defer z.mu.RUnlock()

	e, ok := z.entities[entityID]
	if !ok {
		return NewValidation("unknown entity")
	}
	node, ok := z.entities[nodeID]
	if !ok || node.Node == nil {
		return NewValidation("unknown node")
	}
	// Range is not prechecked: the player may still be walking in
	if node.Node.Charges <= 0 {
		return NewPrecondition("cannot gather", "node depleted")
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

func (w *World) doInteract(z *Zone, cmd Command) (*Receipt, error) {
	// Write lock: trainers teach techniques on interaction
	z.mu.Lock()
	defer z.mu.Unlock()

	e, ok := z.entities[cmd.EntityID]
	if !ok {
		return nil, NewValidation("unknown entity")
	}
	npc, ok := z.entities[cmd.TargetID]
	if !ok || npc.NPC == nil {
		return nil, NewValidation("unknown npc")
	}
	if e.Position.DistanceTo(npc.Position) > types.InteractRange {
		return nil, NewPrecondition("cannot interact", "too far")
	}

	data := map[string]string{"npc": npc.Name}
	if npc.NPC.Merchant != nil {
		data["merchant"] = "true"
	}
	if len(npc.NPC.TeachesTechniques) > 0 {
		data["trainer"] = "true"
	}
	if npc.NPC.TeachesProfession != "" {
		data["profession"] = npc.NPC.TeachesProfession
	}
	if npc.NPC.LoreText != "" {
		data["lore"] = npc.NPC.LoreText
	}

	// Trainers teach on interaction
	if len(npc.NPC.TeachesTechniques) > 0 {
		for _, tech := range npc.NPC.TeachesTechniques {
			if !hasTechnique(e, tech) {
				e.Player.Techniques = append(e.Player.Techniques, tech)
			}
		}
	}

	return &Receipt{ZoneID: z.ID, EntityID: cmd.EntityID, Action: cmd.Action, Status: "ok", Data: data}, nil
}

func hasTechnique(e *types.Entity, id string) bool {
	for _, t := range e.Player.Techniques {
		if t == id {
			return true
		}
	}
	return false
}

// doUseItem equips an equippable token or consumes a consumable. Equipment
// replacement is atomic per slot and recomputes effective stats.
func (w *World) doUseItem(z *Zone, cmd Command) (*Receipt, error) {
	def, ok := w.catalog.Items[cmd.TokenID]
	if !ok {
		return nil, NewValidation("unknown item")
	}

	z.mu.RLock()
	e, ok := z.entities[cmd.EntityID]
	if !ok {
		z.mu.RUnlock()
		return nil, NewValidation("unknown entity")
	}
	wallet := e.Player.Wallet
	z.mu.RUnlock()

	// Ownership check against the authoritative ledger
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	held, err := w.adapter.ItemBalance(ctx, wallet, cmd.TokenID)
	if err != nil {
		return nil, fmt.Errorf("ledger balance read failed: %w", err)
	}
	if held < 1 {
		return nil, NewPrecondition("cannot use item", "item not owned")
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	e, ok = z.entities[cmd.EntityID]
	if !ok {
		return nil, NewValidation("unknown entity")
	}

	data := map[string]string{"item": def.Name}
	switch {
	case def.Slot != "":
		e.Player.Equipment[def.Slot] = &types.EquippedItem{
			TokenID:       def.TokenID,
			Durability:    def.MaxDurability,
			MaxDurability: def.MaxDurability,
		}
		combat.RecomputeEffective(e, w.catalog)
		data["equipped"] = string(def.Slot)
	case def.Effect == "xp-tonic":
		e.Player.XPTonicFactor = 1.5
		w.serializer.Submit("burn-item", func(ctx context.Context, a ledger.Adapter) error {
			return a.BurnItem(ctx, wallet, cmd.TokenID, 1)
		})
		data["consumed"] = "true"
	default:
		return nil, NewPrecondition("cannot use item", "item not usable")
	}

	return &Receipt{ZoneID: z.ID, EntityID: cmd.EntityID, Action: cmd.Action, Status: "ok", Data: data}, nil
}

func (w *World) doUnequip(z *Zone, cmd Command) (*Receipt, error) {
	slot := types.EquipSlot(cmd.Slot)

	z.mu.Lock()
	defer z.mu.Unlock()

	e, ok := z.entities[cmd.EntityID]
	if !ok {
		return nil, NewValidation("unknown entity")
	}
	if _, ok := e.Player.Equipment[slot]; !ok {
		return nil, NewPrecondition("cannot unequip", "slot empty")
	}
	delete(e.Player.Equipment, slot)
	combat.RecomputeEffective(e, w.catalog)

	return &Receipt{ZoneID: z.ID, EntityID: cmd.EntityID, Action: cmd.Action, Status: "ok",
		Data: map[string]string{"unequipped": cmd.Slot}}, nil
}

// SpawnPlayer creates a player entity in zoneID at its spawn point,
// restoring persisted progress when a store is configured.
func (w *World) SpawnPlayer(wallet, name, raceID, classID, zoneID string) (*types.Entity, error) {
	level, xp := 1, int64(0)
	if w.progress != nil {
		if lvl, storedXP, ok, err := w.progress.LoadProgress(wallet, name); err == nil && ok {
			level, xp = lvl, storedXP
		}
	}

	stats, err := w.catalog.BaseStats(raceID, classID, level)
	if err != nil {
		return nil, NewValidation(err.Error())
	}

	z := w.GetOrCreateZone(zoneID)
	class := w.catalog.Classes[classID]

	e := &types.Entity{
		ID:       uuid.New().String(),
		Kind:     types.KindPlayer,
		Name:     name,
		Position: z.def.SpawnPoint,
		Combat: &types.CombatData{
			Level:   level,
			XP:      xp,
			RaceID:  raceID,
			ClassID: classID,
			Stats:   stats,
		},
		Player: &types.PlayerData{
			Wallet:     wallet,
			Equipment:  make(map[types.EquipSlot]*types.EquippedItem),
			Techniques: append([]string(nil), class.Techniques...),
			Cooldowns:  make(map[string]int64),
		},
	}
	combat.RecomputeEffective(e, w.catalog)
	e.HP = e.MaxHP
	e.Essence = e.MaxEssence

	z.mu.Lock()
	z.addEntity(e)
	ev := events.New(events.EventSystem, z.ID, z.tick, fmt.Sprintf("%s entered the zone", name))
	ev.ActorID = e.ID
	z.log.Append(ev)
	z.mu.Unlock()
	w.feed.Publish(ev)

	return e.Clone(), nil
}

// DespawnPlayer removes a player on logout
func (w *World) DespawnPlayer(wallet, zoneID, entityID string) error {
	z, ok := w.Zone(zoneID)
	if !ok {
		return NewValidation("unknown zone")
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	e, ok := z.entities[entityID]
	if !ok {
		return NewValidation("unknown entity")
	}
	if e.Player == nil || e.Player.Wallet != wallet {
		return NewAuthorization("wallet does not own entity")
	}
	z.removeEntity(entityID)
	return nil
}
