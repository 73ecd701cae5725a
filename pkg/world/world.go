package world

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/rs/zerolog"
)

// ProgressStore persists character progress across restarts. Optional: a nil
// store means progress lives only in the asset ledger's metadata.
type ProgressStore interface {
	SaveProgress(wallet, name string, level int, xp int64) error
	LoadProgress(wallet, name string) (level int, xp int64, ok bool, err error)
}

// Config tunes the world runtime
type Config struct {
	TickInterval time.Duration
	Seed         int64
}

// World owns every live zone and the shared services their ticks use. Each
// zone's state is mutated only under its own lock; the world map itself is
// guarded separately.
type World struct {
	mu    sync.RWMutex
	zones map[string]*Zone

	catalog    *catalog.Catalog
	serializer *ledger.Serializer
	adapter    ledger.Adapter
	gold       *ledger.GoldLedger
	feed       *events.Feed
	progress   ProgressStore

	cfg    Config
	logger zerolog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a world. progress may be nil.
func New(cat *catalog.Catalog, adapter ledger.Adapter, serializer *ledger.Serializer,
	gold *ledger.GoldLedger, feed *events.Feed, progress ProgressStore, cfg Config) *World {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = types.TickInterval
	}
	return &World{
		zones:      make(map[string]*Zone),
		catalog:    cat,
		serializer: serializer,
		adapter:    adapter,
		gold:       gold,
		feed:       feed,
		progress:   progress,
		cfg:        cfg,
		logger:     log.WithComponent("world"),
		stopCh:     make(chan struct{}),
	}
}

// Catalog exposes the static content set
func (w *World) Catalog() *catalog.Catalog { return w.catalog }

// Gold exposes the gold intent ledger
func (w *World) Gold() *ledger.GoldLedger { return w.gold }

// Adapter exposes the asset ledger adapter for balance reads
func (w *World) Adapter() ledger.Adapter { return w.adapter }

// Serializer exposes the transaction serializer
func (w *World) Serializer() *ledger.Serializer { return w.serializer }

// GetOrCreateZone returns the zone, creating and populating it lazily from
// its catalog definition on first reference. Idempotent.
func (w *World) GetOrCreateZone(zoneID string) *Zone {
	w.mu.RLock()
	z, ok := w.zones[zoneID]
	w.mu.RUnlock()
	if ok {
		return z
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if z, ok := w.zones[zoneID]; ok {
		return z
	}

	z = newZone(zoneID, w.catalog.Zone(zoneID), false, seedFromID(zoneID, w.cfg.Seed))
	z.mu.Lock()
	z.populate(w.catalog)
	z.mu.Unlock()
	w.zones[zoneID] = z
	w.startZoneLoop(z)

	zoneLogger := log.WithZoneID(zoneID)
	zoneLogger.Info().Msg("Zone created")
	return z
}

// Zone returns an existing zone without creating one
func (w *World) Zone(zoneID string) (*Zone, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	z, ok := w.zones[zoneID]
	return z, ok
}

// CreateInstanceZone creates an empty instance zone driven like any other
func (w *World) CreateInstanceZone(zoneID string) *Zone {
	w.mu.Lock()
	defer w.mu.Unlock()
	if z, ok := w.zones[zoneID]; ok {
		return z
	}

	z := newZone(zoneID, w.catalog.Zone(zoneID), true, seedFromID(zoneID, w.cfg.Seed))
	w.zones[zoneID] = z
	w.startZoneLoop(z)

	zoneLogger := log.WithZoneID(zoneID)
	zoneLogger.Info().Msg("Instance zone created")
	return z
}

// RemoveZone stops a zone's loop and drops it from the world
func (w *World) RemoveZone(zoneID string) {
	w.mu.Lock()
	z, ok := w.zones[zoneID]
	if ok {
		delete(w.zones, zoneID)
	}
	w.mu.Unlock()

	if ok {
		z.stopOnce.Do(func() { close(z.stopCh) })
		zoneLogger := log.WithZoneID(zoneID)
		zoneLogger.Info().Msg("Zone removed")
	}
}

// ZoneIDs returns the ids of all live zones, sorted
func (w *World) ZoneIDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ids := make([]string, 0, len(w.zones))
	for id := range w.zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SnapshotAll returns a consistent per-zone view of the whole world
func (w *World) SnapshotAll() map[string]*Snapshot {
	out := make(map[string]*Snapshot)
	for _, id := range w.ZoneIDs() {
		if z, ok := w.Zone(id); ok {
			out[id] = z.Snapshot()
		}
	}
	return out
}

// startZoneLoop drives a zone at the configured cadence. Caller holds w.mu
// or otherwise guarantees the zone is registered exactly once.
func (w *World) startZoneLoop(z *Zone) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.cfg.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				timer := metrics.NewTimer()
				w.RunTick(z)
				timer.ObserveDuration(metrics.TickDuration)
			case <-z.stopCh:
				return
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop halts every zone loop after its current tick and waits for them
func (w *World) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// ZoneCounts implements metrics.StatsSource
func (w *World) ZoneCounts() (regular, instance int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, z := range w.zones {
		if z.IsInstance {
			instance++
		} else {
			regular++
		}
	}
	return regular, instance
}

// EntityCounts implements metrics.StatsSource
func (w *World) EntityCounts() map[string]int {
	counts := make(map[string]int)
	w.mu.RLock()
	zones := make([]*Zone, 0, len(w.zones))
	for _, z := range w.zones {
		zones = append(zones, z)
	}
	w.mu.RUnlock()

	for _, z := range zones {
		z.mu.RLock()
		for _, e := range z.entities {
			counts[string(e.Kind)]++
		}
		z.mu.RUnlock()
	}
	return counts
}

// mintLoot schedules gold and item mints for a kill or gather and appends a
// loot event only once the mint settles. Failed mints are logged by the
// serializer; the event log records only successful awards.
func (w *World) mintLoot(z *Zone, wallet, actorID string, copper int64, items []itemAward, tick int64) {
	if copper > 0 {
		reply := w.serializer.Submit("mint-gold", func(ctx context.Context, a ledger.Adapter) error {
			return a.MintGold(ctx, wallet, copper)
		})
		go func() {
			if err := <-reply; err == nil {
				ev := events.New(events.EventLoot, z.ID, tick, lootGoldMessage(copper))
				ev.ActorID = actorID
				z.AppendEvent(ev)
				w.feed.Publish(ev)
			}
		}()
	}
	for _, item := range items {
		item := item
		reply := w.serializer.Submit("mint-item", func(ctx context.Context, a ledger.Adapter) error {
			return a.MintItem(ctx, wallet, item.tokenID, item.qty)
		})
		go func() {
			if err := <-reply; err == nil {
				ev := events.New(events.EventLoot, z.ID, tick, lootItemMessage(w.catalog, item.tokenID, item.qty))
				ev.ActorID = actorID
				z.AppendEvent(ev)
				w.feed.Publish(ev)
			}
		}()
	}
}

type itemAward struct {
	tokenID int64
	qty     int
}
