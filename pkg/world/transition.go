package world

import (
	"fmt"

	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/types"
)

// Transition moves a player through a portal. The move is atomic with
// respect to observers: between any two ticks the entity is in exactly one
// zone. Both zone locks are taken in zoneID order to avoid deadlock with a
// concurrent transition running the other way.
func (w *World) Transition(wallet, zoneID, portalID, entityID string) (*types.Entity, error) {
	src, ok := w.Zone(zoneID)
	if !ok {
		return nil, NewValidation("unknown zone")
	}

	// Validate under the source lock first to learn the destination
	src.mu.RLock()
	e, ok := src.entities[entityID]
	if !ok {
		src.mu.RUnlock()
		return nil, NewValidation("unknown entity")
	}
	if e.Player == nil || e.Player.Wallet != wallet {
		src.mu.RUnlock()
		return nil, NewAuthorization("wallet does not own entity")
	}
	portal, ok := src.entities[portalID]
	if !ok || portal.Portal == nil {
		src.mu.RUnlock()
		return nil, NewValidation("unknown portal")
	}
	if e.Position.DistanceTo(portal.Position) > types.PortalRange {
		src.mu.RUnlock()
		return nil, NewPrecondition("cannot transition", "too far")
	}
	if e.Combat.Level < portal.Portal.LevelRequirement {
		src.mu.RUnlock()
		return nil, NewPrecondition("cannot transition", "level too low")
	}
	destID := portal.Portal.DestZoneID
	destPos := types.Position{X: portal.Portal.DestX, Y: portal.Portal.DestY}
	src.mu.RUnlock()

	// Destination is created lazily outside any zone lock
	dst := w.GetOrCreateZone(destID)

	moved, err := w.moveEntity(src, dst, entityID, destPos)
	if err != nil {
		return nil, err
	}

	// Departure strictly before arrival from the mover's perspective
	dep := events.New(events.EventTransition, src.ID, src.Tick(),
		fmt.Sprintf("%s departed to %s", moved.Name, dst.ID))
	dep.ActorID = moved.ID
	src.AppendEvent(dep)
	w.feed.Publish(dep)

	arr := events.New(events.EventTransition, dst.ID, dst.Tick(),
		fmt.Sprintf("%s arrived from %s", moved.Name, src.ID))
	arr.ActorID = moved.ID
	dst.AppendEvent(arr)
	w.feed.Publish(arr)

	return moved, nil
}

// moveEntity removes the entity from src and inserts it into dst at pos,
// clearing any pending order. Locks are acquired in zoneID order.
func (w *World) moveEntity(src, dst *Zone, entityID string, pos types.Position) (*types.Entity, error) {
	first, second := src, dst
	if dst.ID < src.ID {
		first, second = dst, src
	}
	first.mu.Lock()
	if second != first {
		second.mu.Lock()
		defer second.mu.Unlock()
	}
	defer first.mu.Unlock()

	e, ok := src.entities[entityID]
	if !ok {
		return nil, NewValidation("unknown entity")
	}

	src.removeEntity(entityID)
	e.Position = pos
	e.Order = nil
	dst.addEntity(e)
	return e.Clone(), nil
}

// MoveEntity relocates an entity across zones without portal validation.
// Used by the dungeon-gate subsystem for instance entry, eviction, and
// clear returns.
func (w *World) MoveEntity(srcID, dstID, entityID string, pos types.Position) (*types.Entity, error) {
	src, ok := w.Zone(srcID)
	if !ok {
		return nil, NewValidation("unknown source zone")
	}
	dst, ok := w.Zone(dstID)
	if !ok {
		return nil, NewValidation("unknown destination zone")
	}
	return w.moveEntity(src, dst, entityID, pos)
}
