package gates

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/DasilvaKareem/wogshard/pkg/world"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dangerChance is the probability a surged gate upgrades a rank and is
// flagged as a danger gate
const dangerChance = 0.05

// Instance tracks one live dungeon instance
type Instance struct {
	ID            string
	PartyMembers  []string // entity ids
	SourceZoneID  string
	DungeonZoneID string
	Rank          types.GateRank
	ExpiresAt     time.Time
	RemainingMobs int
	Cleared       bool
	cleanupAt     time.Time
}

// Keeper runs gate surges, gate expiry, and instance lifecycle on its own
// cadence, independent of per-zone ticks. It never touches zone state
// directly; all mutation goes through the world's locked helpers.
type Keeper struct {
	world      *world.World
	serializer *ledger.Serializer

	mu            sync.Mutex
	lastSurgeTime time.Time
	instances     map[string]*Instance

	surgeInterval time.Duration
	gateLifetime  time.Duration
	instanceTTL   time.Duration
	now           func() time.Time
	randFloat     func() float64
	randInt       func(n int) int

	logger zerolog.Logger
	stopCh chan struct{}
}

// NewKeeper creates a gate keeper over the world
func NewKeeper(w *world.World, serializer *ledger.Serializer) *Keeper {
	return &Keeper{
		world:         w,
		serializer:    serializer,
		instances:     make(map[string]*Instance),
		surgeInterval: types.SurgeInterval,
		gateLifetime:  types.GateLifetime,
		instanceTTL:   types.InstanceLifetime,
		now:           time.Now,
		randFloat:     defaultRandFloat,
		randInt:       defaultRandInt,
		logger:        log.WithComponent("gates"),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the keeper loop
func (k *Keeper) Start() {
	go k.run()
}

// Stop stops the keeper
func (k *Keeper) Stop() {
	close(k.stopCh)
}

func (k *Keeper) run() {
	ticker := time.NewTicker(types.GateTickInterval)
	defer ticker.Stop()

	k.logger.Info().Msg("Gate keeper started")
	for {
		select {
		case <-ticker.C:
			k.Tick()
		case <-k.stopCh:
			k.logger.Info().Msg("Gate keeper stopped")
			return
		}
	}
}

// Tick runs one keeper cycle: surge, expire, instance upkeep. Exported so
// tests can drive the keeper without wall-clock waits.
func (k *Keeper) Tick() {
	now := k.now()
	k.surge(now)
	k.expireGates(now)
	k.tickInstances(now)
	k.updateMetrics()
}

// surge spawns 3-6 gates across eligible zones, throttled by lastSurgeTime.
// Calling it twice inside the interval is a no-op, so seeding is idempotent.
func (k *Keeper) surge(now time.Time) {
	k.mu.Lock()
	if now.Sub(k.lastSurgeTime) < k.surgeInterval {
		k.mu.Unlock()
		return
	}
	k.lastSurgeTime = now
	k.mu.Unlock()

	zoneIDs := k.eligibleZones()
	if len(zoneIDs) == 0 {
		return
	}

	count := 3 + k.randInt(4) // 3..6
	surged := make(map[string]int)
	for i := 0; i < count; i++ {
		zoneID := zoneIDs[k.randInt(len(zoneIDs))]
		gate := k.rollGate(zoneID, now)
		if err := k.world.AddEntity(zoneID, gate); err != nil {
			continue
		}
		surged[zoneID]++
	}

	for zoneID, n := range surged {
		k.world.Announce(zoneID, events.EventGateSurge,
			fmt.Sprintf("Gate Surge: %d gate(s) tore open", n))
	}
	k.logger.Info().Int("gates", count).Msg("Gate surge")
}

// eligibleZones lists regular zones with gate weight tables
func (k *Keeper) eligibleZones() []string {
	var out []string
	for _, id := range k.world.ZoneIDs() {
		z, ok := k.world.Zone(id)
		if !ok || z.IsInstance {
			continue
		}
		if len(k.world.Catalog().Zone(id).GateWeights) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// rollGate rolls a rank from the zone's weight table, with a small chance
// of a danger upgrade
func (k *Keeper) rollGate(zoneID string, now time.Time) *types.Entity {
	weights := k.world.Catalog().Zone(zoneID).GateWeights
	rank := rollRank(weights, k.randFloat())

	danger := false
	if k.randFloat() < dangerChance {
		rank = rank.Upgrade()
		danger = true
	}

	name := fmt.Sprintf("%s-rank gate", rank)
	if danger {
		name = fmt.Sprintf("%s-rank DANGER gate", rank)
	}
	return &types.Entity{
		ID:   uuid.New().String(),
		Kind: types.KindDungeonGate,
		Name: name,
		Position: types.Position{
			X: 200 + k.randFloat()*800,
			Y: 200 + k.randFloat()*800,
		},
		Gate: &types.GateData{
			Rank:      rank,
			IsDanger:  danger,
			ExpiresAt: now.Add(k.gateLifetime),
		},
	}
}

// rollRank picks a rank from a weight table with a uniform roll in [0,1)
func rollRank(weights map[types.GateRank]int, roll float64) types.GateRank {
	total := 0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return types.RankE
	}
	target := int(roll * float64(total))
	for _, rank := range types.RankOrder {
		w, ok := weights[rank]
		if !ok {
			continue
		}
		if target < w {
			return rank
		}
		target -= w
	}
	return types.RankE
}

// expireGates deletes unopened gates past their lifetime
func (k *Keeper) expireGates(now time.Time) {
	for _, zoneID := range k.world.ZoneIDs() {
		for _, gate := range k.world.Gates(zoneID) {
			if gate.Gate.Opened || !now.After(gate.Gate.ExpiresAt) {
				continue
			}
			k.world.RemoveEntity(zoneID, gate.ID)
			k.world.Announce(zoneID, events.EventGateFaded,
				fmt.Sprintf("The %s faded away", gate.Name))
		}
	}
}

// tickInstances evicts timed-out instances and detects cleared ones
func (k *Keeper) tickInstances(now time.Time) {
	k.mu.Lock()
	instances := make([]*Instance, 0, len(k.instances))
	for _, inst := range k.instances {
		instances = append(instances, inst)
	}
	k.mu.Unlock()

	for _, inst := range instances {
		switch {
		case now.After(inst.ExpiresAt):
			k.teardown(inst, "the dungeon collapsed")
		case inst.Cleared:
			if now.After(inst.cleanupAt) {
				k.teardown(inst, "the cleared dungeon closed")
			}
		default:
			inst.RemainingMobs = k.world.CountMobs(inst.DungeonZoneID)
			if inst.RemainingMobs == 0 {
				k.markCleared(inst, now)
			}
		}
	}
}

// markCleared awards the clear bonus to the party and schedules teardown
func (k *Keeper) markCleared(inst *Instance, now time.Time) {
	inst.Cleared = true
	inst.cleanupAt = now.Add(types.InstanceCleanupDelay)

	tmpl := k.world.Catalog().Dungeons[inst.Rank]
	k.world.Announce(inst.DungeonZoneID, events.EventSystem, "Dungeon cleared!")

	if tmpl == nil || tmpl.ClearBonusCopper == 0 {
		return
	}
	for _, p := range k.world.Players(inst.DungeonZoneID) {
		wallet := p.Player.Wallet
		k.serializer.Submit("clear-bonus", func(ctx context.Context, a ledger.Adapter) error {
			return a.MintGold(ctx, wallet, tmpl.ClearBonusCopper)
		})
	}
	k.logger.Info().
		Str("instance_id", inst.ID).
		Str("rank", string(inst.Rank)).
		Msg("Instance cleared")
}

// teardown returns the party to the source zone and removes the instance
func (k *Keeper) teardown(inst *Instance, notice string) {
	src := k.world.Catalog().Zone(inst.SourceZoneID)
	for _, p := range k.world.Players(inst.DungeonZoneID) {
		if _, err := k.world.MoveEntity(inst.DungeonZoneID, inst.SourceZoneID, p.ID, src.SpawnPoint); err != nil {
			k.logger.Error().Err(err).Str("entity_id", p.ID).Msg("Failed to evict player from instance")
		}
	}
	k.world.Announce(inst.SourceZoneID, events.EventSystem, notice)
	k.world.RemoveZone(inst.DungeonZoneID)

	k.mu.Lock()
	delete(k.instances, inst.ID)
	k.mu.Unlock()

	k.logger.Info().Str("instance_id", inst.ID).Msg("Instance removed")
}

// OpenGate validates a gate opening and moves the party into a fresh
// instance populated from the rank's dungeon template
func (k *Keeper) OpenGate(wallet, zoneID, gateID string, memberIDs []string) (*Instance, error) {
	var gate *types.Entity
	for _, g := range k.world.Gates(zoneID) {
		if g.ID == gateID {
			gate = g
			break
		}
	}
	if gate == nil {
		return nil, world.NewValidation("unknown gate")
	}
	if gate.Gate.Opened {
		return nil, world.NewPrecondition("cannot open gate", "gate already opened")
	}

	tmpl := k.world.Catalog().Dungeons[gate.Gate.Rank]
	if tmpl == nil {
		return nil, world.NewValidation("no dungeon template for rank")
	}
	if len(memberIDs) == 0 || len(memberIDs) > tmpl.MaxPartySize {
		return nil, world.NewPrecondition("cannot open gate", "party size out of bounds")
	}

	// Every member must exist, be level-eligible, and the caller must be in
	// the party and near the gate
	players := k.world.Players(zoneID)
	byID := make(map[string]*types.Entity, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	callerIncluded := false
	for _, id := range memberIDs {
		p, ok := byID[id]
		if !ok {
			return nil, world.NewValidation("party member not in zone")
		}
		if p.Combat.Level < tmpl.MinLevel {
			return nil, world.NewPrecondition("cannot open gate", "party member below minimum level")
		}
		if p.Player.Wallet == wallet {
			callerIncluded = true
			if p.Position.DistanceTo(gate.Position) > types.InteractRange {
				return nil, world.NewPrecondition("cannot open gate", "too far")
			}
		}
	}
	if !callerIncluded {
		return nil, world.NewAuthorization("caller not in party")
	}

	inst := &Instance{
		ID:            uuid.New().String(),
		PartyMembers:  memberIDs,
		SourceZoneID:  zoneID,
		Rank:          gate.Gate.Rank,
		ExpiresAt:     k.now().Add(k.instanceTTL),
		RemainingMobs: countTemplateMobs(tmpl),
	}
	inst.DungeonZoneID = "instance-" + inst.ID

	k.world.CreateInstanceZone(inst.DungeonZoneID)
	k.world.PopulateDungeon(inst.DungeonZoneID, tmpl)

	entry := types.Position{X: 100, Y: 100}
	for _, id := range memberIDs {
		if _, err := k.world.MoveEntity(zoneID, inst.DungeonZoneID, id, entry); err != nil {
			k.logger.Error().Err(err).Str("entity_id", id).Msg("Failed to move party member into instance")
		}
	}

	k.world.RemoveEntity(zoneID, gateID)
	k.world.Announce(zoneID, events.EventGateOpened,
		fmt.Sprintf("A party entered the %s", gate.Name))

	k.mu.Lock()
	k.instances[inst.ID] = inst
	k.mu.Unlock()

	k.logger.Info().
		Str("instance_id", inst.ID).
		Str("rank", string(inst.Rank)).
		Int("party", len(memberIDs)).
		Msg("Gate opened")
	return inst, nil
}

// Instances returns a copy of the live instance table
func (k *Keeper) Instances() []*Instance {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make([]*Instance, 0, len(k.instances))
	for _, inst := range k.instances {
		cp := *inst
		out = append(out, &cp)
	}
	return out
}

func (k *Keeper) updateMetrics() {
	gates := 0
	for _, zoneID := range k.world.ZoneIDs() {
		gates += len(k.world.Gates(zoneID))
	}
	metrics.GatesOpen.Set(float64(gates))

	k.mu.Lock()
	metrics.InstancesActive.Set(float64(len(k.instances)))
	k.mu.Unlock()
}

func countTemplateMobs(tmpl *catalog.DungeonTemplate) int {
	total := 0
	for _, spawn := range tmpl.Mobs {
		total += spawn.Count
	}
	return total
}

func defaultRandFloat() float64 { return rand.Float64() }

func defaultRandInt(n int) int { return rand.Intn(n) }
