package world

import (
	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/combat"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/types"
)

// AddEntity inserts an entity into a zone from outside the tick. Used by
// the dungeon-gate subsystem for gate placement and instance population.
func (w *World) AddEntity(zoneID string, e *types.Entity) error {
	z, ok := w.Zone(zoneID)
	if !ok {
		return NewValidation("unknown zone")
	}
	z.mu.Lock()
	z.addEntity(e)
	z.mu.Unlock()
	return nil
}

// RemoveEntity deletes an entity from a zone from outside the tick
func (w *World) RemoveEntity(zoneID, entityID string) {
	z, ok := w.Zone(zoneID)
	if !ok {
		return
	}
	z.mu.Lock()
	z.removeEntity(entityID)
	z.mu.Unlock()
}

// Gates returns deep copies of a zone's dungeon-gate entities
func (w *World) Gates(zoneID string) []*types.Entity {
	z, ok := w.Zone(zoneID)
	if !ok {
		return nil
	}
	z.mu.RLock()
	defer z.mu.RUnlock()

	var gates []*types.Entity
	for _, e := range z.entities {
		if e.Kind == types.KindDungeonGate {
			gates = append(gates, e.Clone())
		}
	}
	return gates
}

// CountMobs returns how many mobs and bosses remain alive in a zone
func (w *World) CountMobs(zoneID string) int {
	z, ok := w.Zone(zoneID)
	if !ok {
		return 0
	}
	z.mu.RLock()
	defer z.mu.RUnlock()

	count := 0
	for _, e := range z.entities {
		if (e.Kind == types.KindMob || e.Kind == types.KindBoss) && e.HP > 0 {
			count++
		}
	}
	return count
}

// Players returns deep copies of a zone's player entities
func (w *World) Players(zoneID string) []*types.Entity {
	z, ok := w.Zone(zoneID)
	if !ok {
		return nil
	}
	z.mu.RLock()
	defer z.mu.RUnlock()

	var players []*types.Entity
	for _, e := range z.entities {
		if e.Kind == types.KindPlayer {
			players = append(players, e.Clone())
		}
	}
	return players
}

// PopulateDungeon seeds an instance zone from a rank template
func (w *World) PopulateDungeon(zoneID string, tmpl *catalog.DungeonTemplate) {
	z, ok := w.Zone(zoneID)
	if !ok {
		return
	}
	z.mu.Lock()
	defer z.mu.Unlock()

	for _, spawn := range tmpl.Mobs {
		for i := 0; i < spawn.Count; i++ {
			if mob := newMobEntity(w.catalog, spawn.MobID, scatter(z.rng, spawn.Position, 150)); mob != nil {
				z.addEntity(mob)
			}
		}
	}
}

// MutateEntity applies fn to an entity under the zone lock. Intended for
// administrative tooling and tests; gameplay goes through orders.
func (w *World) MutateEntity(zoneID, entityID string, fn func(*types.Entity)) error {
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
	fn(e)
	return nil
}

// RestoreDurability repairs every equipped item on a player to full and
// clears broken flags, recomputing effective stats. Called by the shop
// after a repair payment settles.
func (w *World) RestoreDurability(zoneID, entityID string) error {
	z, ok := w.Zone(zoneID)
	if !ok {
		return NewValidation("unknown zone")
	}
	z.mu.Lock()
	defer z.mu.Unlock()

	e, ok := z.entities[entityID]
	if !ok || e.Player == nil {
		return NewValidation("unknown entity")
	}
	for _, item := range e.Player.Equipment {
		item.Durability = item.MaxDurability
		item.Broken = false
	}
	combat.RecomputeEffective(e, w.catalog)
	return nil
}

// Announce appends a system event to a zone's log and publishes it
func (w *World) Announce(zoneID string, typ events.EventType, message string) {
	z, ok := w.Zone(zoneID)
	if !ok {
		return
	}
	ev := events.New(typ, zoneID, z.Tick(), message)
	z.AppendEvent(ev)
	w.feed.Publish(ev)
}
