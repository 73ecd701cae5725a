package world

import (
	"math/rand"
	"sync"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/google/uuid"
)

// pendingOrder is one inbox entry: an order submitted for an entity, applied
// when the zone drains its inbox at the start of the next tick
type pendingOrder struct {
	entityID string
	order    *types.Order
}

// respawnEntry schedules a dead mob's replacement from its spawn definition
type respawnEntry struct {
	atTick int64
	mobID  string
	pos    types.Position
}

// Zone owns the canonical state of one simulated region: its entities, tick
// counter, recent-event ring, and pending command inbox. All mutation happens
// under mu; the tick loop holds mu for the whole tick so observers never see
// a partial tick.
type Zone struct {
	ID         string
	IsInstance bool

	mu       sync.RWMutex
	tick     int64
	entities map[string]*types.Entity
	respawns []respawnEntry

	def   *catalog.ZoneDef
	log   *events.Log
	inbox chan pendingOrder
	rng   *rand.Rand

	// events accumulated during the current tick, flushed in step 7
	pendingEvents []*events.Event

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newZone(id string, def *catalog.ZoneDef, isInstance bool, seed int64) *Zone {
	return &Zone{
		ID:         id,
		IsInstance: isInstance,
		entities:   make(map[string]*types.Entity),
		def:        def,
		log:        events.NewLog(types.EventLogCapacity),
		inbox:      make(chan pendingOrder, types.CommandInboxSize),
		rng:        rand.New(rand.NewSource(seed)),
		stopCh:     make(chan struct{}),
	}
}

// Tick returns the zone's current tick counter
func (z *Zone) Tick() int64 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.tick
}

// Log returns the zone's recent-event ring
func (z *Zone) Log() *events.Log {
	return z.log
}

// Snapshot is a consistent read-only view of a zone between ticks
type Snapshot struct {
	ZoneID     string                   `json:"zoneId"`
	Tick       int64                    `json:"tick"`
	IsInstance bool                     `json:"isInstance,omitempty"`
	Entities   map[string]*types.Entity `json:"entities"`
}

// Snapshot deep-copies the zone's entities at a tick boundary
func (z *Zone) Snapshot() *Snapshot {
	z.mu.RLock()
	defer z.mu.RUnlock()

	snap := &Snapshot{
		ZoneID:     z.ID,
		Tick:       z.tick,
		IsInstance: z.IsInstance,
		Entities:   make(map[string]*types.Entity, len(z.entities)),
	}
	for id, e := range z.entities {
		snap.Entities[id] = e.Clone()
	}
	return snap
}

// Entity returns a deep copy of one entity, if present
func (z *Zone) Entity(id string) (*types.Entity, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	e, ok := z.entities[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// submitOrder enqueues an order for the entity. The tick either sees this
// order on its next iteration or the previous one, never a torn write.
func (z *Zone) submitOrder(entityID string, order *types.Order) error {
	select {
	case z.inbox <- pendingOrder{entityID: entityID, order: order}:
		return nil
	default:
		return NewPrecondition("zone busy", "command inbox full")
	}
}

// drainInbox applies queued orders to their entities. Caller holds mu.
func (z *Zone) drainInbox() {
	for {
		select {
		case p := <-z.inbox:
			e, ok := z.entities[p.entityID]
			if !ok {
				continue // entity left the zone since submission
			}
			// Re-issuing an identical order is a no-op
			if e.Order.Same(p.order) {
				continue
			}
			e.Order = p.order
		default:
			return
		}
	}
}

// addEntity inserts an entity. Caller holds mu.
func (z *Zone) addEntity(e *types.Entity) {
	z.entities[e.ID] = e
}

// removeEntity deletes an entity. Caller holds mu.
func (z *Zone) removeEntity(id string) {
	delete(z.entities, id)
}

// emit queues an event for the end-of-tick flush. Caller holds mu.
func (z *Zone) emit(e *events.Event) {
	z.pendingEvents = append(z.pendingEvents, e)
}

// AppendEvent appends an event directly to the ring, outside the tick. Used
// for asynchronous outcomes (settled mints) and cross-zone notices.
func (z *Zone) AppendEvent(e *events.Event) {
	z.log.Append(e)
}

// populate seeds the zone's static content from its definition.
// Caller holds mu.
func (z *Zone) populate(cat *catalog.Catalog) {
	for _, spawn := range z.def.Spawns {
		for i := 0; i < spawn.Count; i++ {
			if mob := newMobEntity(cat, spawn.MobID, scatter(z.rng, spawn.Position, 120)); mob != nil {
				z.addEntity(mob)
			}
		}
	}
	for _, node := range z.def.Nodes {
		z.addEntity(newNodeEntity(node))
	}
	for _, portal := range z.def.Portals {
		z.addEntity(newPortalEntity(portal))
	}
	for _, npc := range z.def.NPCs {
		z.addEntity(newNPCEntity(npc))
	}
}

func newMobEntity(cat *catalog.Catalog, mobID string, pos types.Position) *types.Entity {
	def, ok := cat.Mobs[mobID]
	if !ok {
		return nil
	}
	kind := types.KindMob
	if def.Boss {
		kind = types.KindBoss
	}
	return &types.Entity{
		ID:       uuid.New().String(),
		Kind:     kind,
		Name:     def.Name,
		Position: pos,
		HP:       def.MaxHP,
		MaxHP:    def.MaxHP,
		Combat: &types.CombatData{
			Level:          def.Level,
			Stats:          def.Stats,
			EffectiveStats: def.Stats,
			XPReward:       def.XPReward,
			AggroRange:     def.AggroRange,
			MobID:          def.ID,
		},
	}
}

func newNodeEntity(def catalog.NodeSpawnDef) *types.Entity {
	return &types.Entity{
		ID:       uuid.New().String(),
		Kind:     def.Kind,
		Name:     def.ResourceType,
		Position: def.Position,
		Node: &types.NodeData{
			ResourceType:     def.ResourceType,
			Charges:          def.MaxCharges,
			MaxCharges:       def.MaxCharges,
			RespawnTicks:     def.RespawnTicks,
			RequiredToolTier: def.RequiredToolTier,
			YieldTokenID:     def.YieldTokenID,
			Rarity:           def.Rarity,
		},
	}
}

func newPortalEntity(def catalog.PortalDef) *types.Entity {
	return &types.Entity{
		ID:       def.ID,
		Kind:     types.KindPortal,
		Name:     def.ID,
		Position: def.Position,
		Portal: &types.PortalData{
			DestZoneID:       def.DestZoneID,
			DestX:            def.DestX,
			DestY:            def.DestY,
			LevelRequirement: def.LevelRequirement,
		},
	}
}

func newNPCEntity(def catalog.NPCDef) *types.Entity {
	e := &types.Entity{
		ID:       uuid.New().String(),
		Kind:     def.Kind,
		Name:     def.Name,
		Position: def.Position,
		NPC:      &types.Capabilities{},
	}
	if len(def.Stock) > 0 {
		e.NPC.Merchant = &types.MerchantData{Stock: def.Stock}
	}
	e.NPC.TeachesTechniques = def.Techniques
	e.NPC.TeachesProfession = def.Profession
	e.NPC.LoreText = def.LoreText
	return e
}

func scatter(rng *rand.Rand, center types.Position, radius float64) types.Position {
	return types.Position{
		X: center.X + (rng.Float64()*2-1)*radius,
		Y: center.Y + (rng.Float64()*2-1)*radius,
	}
}

// seedFromID derives a stable rng seed per zone so tests are reproducible
func seedFromID(id string, base int64) int64 {
	var h int64 = base
	for _, r := range id {
		h = h*31 + int64(r)
	}
	if h == 0 {
		h = time.Now().UnixNano()
	}
	return h
}
