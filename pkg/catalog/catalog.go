package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DasilvaKareem/wogshard/pkg/types"
	"gopkg.in/yaml.v3"
)

// RaceDef defines a playable race
type RaceDef struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	BaseStats types.Stats `yaml:"base_stats"`
}

// ClassDef defines a playable class
type ClassDef struct {
	ID              string      `yaml:"id"`
	Name            string      `yaml:"name"`
	BaseStats       types.Stats `yaml:"base_stats"`
	PerLevelGrowth  types.Stats `yaml:"per_level_growth"`
	UsesEssence     bool        `yaml:"uses_essence"`
	BaseEssence     int         `yaml:"base_essence"`
	EssencePerLevel int         `yaml:"essence_per_level"`
	Techniques      []string    `yaml:"techniques"`
}

// ItemDef defines one token in the item catalog
type ItemDef struct {
	TokenID       int64           `yaml:"token_id"`
	Name          string          `yaml:"name"`
	Slot          types.EquipSlot `yaml:"slot,omitempty"`
	Damage        int             `yaml:"damage,omitempty"`
	Stats         types.Stats     `yaml:"stats,omitempty"`
	CopperPrice   int64           `yaml:"copper_price"`
	MaxDurability int             `yaml:"max_durability,omitempty"`
	ToolType      string          `yaml:"tool_type,omitempty"` // "pickaxe", "sickle", "skinning-knife", ...
	ToolTier      int             `yaml:"tool_tier,omitempty"`
	Rarity        string          `yaml:"rarity,omitempty"`
	Effect        string          `yaml:"effect,omitempty"` // consumable effect, e.g. "xp-tonic"
}

// MobDef defines a spawnable mob
type MobDef struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Level      int             `yaml:"level"`
	MaxHP      int             `yaml:"max_hp"`
	Stats      types.Stats     `yaml:"stats"`
	XPReward   int64           `yaml:"xp_reward"`
	AggroRange float64         `yaml:"aggro_range"`
	Loot       types.LootTable `yaml:"loot"`
	Boss       bool            `yaml:"boss,omitempty"`
}

// TechniqueKind tags what a cast does
type TechniqueKind string

const (
	TechDamage TechniqueKind = "damage"
	TechBuff   TechniqueKind = "buff"
	TechHeal   TechniqueKind = "heal"
	TechShield TechniqueKind = "shield"
)

// TechniqueDef defines a castable technique
type TechniqueDef struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	Kind          TechniqueKind `yaml:"kind"`
	EssenceCost   int           `yaml:"essence_cost"`
	CooldownTicks int64         `yaml:"cooldown_ticks"`
	Power         int           `yaml:"power"` // damage, heal amount, or shield hp
	DurationTicks int           `yaml:"duration_ticks,omitempty"`
	StatModifiers types.Stats   `yaml:"stat_modifiers,omitempty"`
	HotHealPerTick int          `yaml:"hot_heal_per_tick,omitempty"`
}

// SpawnDef places mobs in a zone
type SpawnDef struct {
	MobID        string         `yaml:"mob_id"`
	Position     types.Position `yaml:"position"`
	Count        int            `yaml:"count"`
	RespawnTicks int64          `yaml:"respawn_ticks"`
}

// NodeSpawnDef places a resource node in a zone
type NodeSpawnDef struct {
	Kind             types.Kind     `yaml:"kind"` // ore-node, flower-node, nectar-node
	ResourceType     string         `yaml:"resource_type"`
	Position         types.Position `yaml:"position"`
	MaxCharges       int            `yaml:"max_charges"`
	RespawnTicks     int64          `yaml:"respawn_ticks"`
	RequiredToolTier int            `yaml:"required_tool_tier"`
	YieldTokenID     int64          `yaml:"yield_token_id"`
	Rarity           string         `yaml:"rarity,omitempty"`
}

// PortalDef places a portal in a zone
type PortalDef struct {
	ID               string         `yaml:"id"`
	Position         types.Position `yaml:"position"`
	DestZoneID       string         `yaml:"dest_zone_id"`
	DestX            float64        `yaml:"dest_x"`
	DestY            float64        `yaml:"dest_y"`
	LevelRequirement int            `yaml:"level_requirement"`
}

// NPCDef places an NPC in a zone
type NPCDef struct {
	Kind         types.Kind     `yaml:"kind"`
	Name         string         `yaml:"name"`
	Position     types.Position `yaml:"position"`
	Stock        []int64        `yaml:"stock,omitempty"`
	Techniques   []string       `yaml:"techniques,omitempty"`
	Profession   string         `yaml:"profession,omitempty"`
	LoreText     string         `yaml:"lore_text,omitempty"`
}

// ZoneDef defines a regular zone's static content and death rules
type ZoneDef struct {
	ID                  string                     `yaml:"id"`
	Name                string                     `yaml:"name"`
	Graveyard           types.Position             `yaml:"graveyard"`
	SpawnPoint          types.Position             `yaml:"spawn_point"`
	DeathHPFraction     float64                    `yaml:"death_hp_fraction"`
	DeathDurabilityLoss float64                    `yaml:"death_durability_loss"`
	GateWeights         map[types.GateRank]int     `yaml:"gate_weights,omitempty"`
	Spawns              []SpawnDef                 `yaml:"spawns,omitempty"`
	Nodes               []NodeSpawnDef             `yaml:"nodes,omitempty"`
	Portals             []PortalDef                `yaml:"portals,omitempty"`
	NPCs                []NPCDef                   `yaml:"npcs,omitempty"`
}

// DungeonTemplate defines the population of an instance per gate rank
type DungeonTemplate struct {
	Rank             types.GateRank `yaml:"rank"`
	MinLevel         int            `yaml:"min_level"`
	MaxPartySize     int            `yaml:"max_party_size"`
	Mobs             []SpawnDef     `yaml:"mobs"`
	ClearBonusCopper int64          `yaml:"clear_bonus_copper"`
}

// Catalog is the full static content set the shard runs against
type Catalog struct {
	Races      map[string]*RaceDef
	Classes    map[string]*ClassDef
	Items      map[int64]*ItemDef
	Mobs       map[string]*MobDef
	Techniques map[string]*TechniqueDef
	Zones      map[string]*ZoneDef
	Dungeons   map[types.GateRank]*DungeonTemplate
}

// file is the YAML shape of a content directory file
type file struct {
	Races      []*RaceDef         `yaml:"races"`
	Classes    []*ClassDef        `yaml:"classes"`
	Items      []*ItemDef         `yaml:"items"`
	Mobs       []*MobDef          `yaml:"mobs"`
	Techniques []*TechniqueDef    `yaml:"techniques"`
	Zones      []*ZoneDef         `yaml:"zones"`
	Dungeons   []*DungeonTemplate `yaml:"dungeons"`
}

// Load reads every *.yaml file under dir and overlays it on the defaults.
// A missing or empty dir yields the built-in default content set.
func Load(dir string) (*Catalog, error) {
	cat := Default()
	if dir == "" {
		return cat, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, nil
		}
		return nil, fmt.Errorf("failed to read content dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read content file %s: %w", entry.Name(), err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse content file %s: %w", entry.Name(), err)
		}
		cat.merge(&f)
	}

	if err := cat.validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) merge(f *file) {
	for _, r := range f.Races {
		c.Races[r.ID] = r
	}
	for _, cl := range f.Classes {
		c.Classes[cl.ID] = cl
	}
	for _, it := range f.Items {
		c.Items[it.TokenID] = it
	}
	for _, m := range f.Mobs {
		c.Mobs[m.ID] = m
	}
	for _, t := range f.Techniques {
		c.Techniques[t.ID] = t
	}
	for _, z := range f.Zones {
		if z.DeathHPFraction == 0 {
			z.DeathHPFraction = defaultDeathHPFraction
		}
		if z.DeathDurabilityLoss == 0 {
			z.DeathDurabilityLoss = defaultDeathDurabilityLoss
		}
		c.Zones[z.ID] = z
	}
	for _, d := range f.Dungeons {
		c.Dungeons[d.Rank] = d
	}
}

func (c *Catalog) validate() error {
	for id, z := range c.Zones {
		for _, s := range z.Spawns {
			if _, ok := c.Mobs[s.MobID]; !ok {
				return fmt.Errorf("zone %s references unknown mob %s", id, s.MobID)
			}
		}
		for _, p := range z.Portals {
			if _, ok := c.Zones[p.DestZoneID]; !ok {
				return fmt.Errorf("zone %s portal %s references unknown zone %s", id, p.ID, p.DestZoneID)
			}
		}
	}
	for rank, d := range c.Dungeons {
		for _, s := range d.Mobs {
			if _, ok := c.Mobs[s.MobID]; !ok {
				return fmt.Errorf("dungeon template %s references unknown mob %s", rank, s.MobID)
			}
		}
	}
	return nil
}

// Zone returns the definition for zoneID, falling back to a bare definition
// with default death rules for instance zones and lazily-referenced zones.
func (c *Catalog) Zone(zoneID string) *ZoneDef {
	if z, ok := c.Zones[zoneID]; ok {
		return z
	}
	return &ZoneDef{
		ID:                  zoneID,
		Name:                zoneID,
		DeathHPFraction:     defaultDeathHPFraction,
		DeathDurabilityLoss: defaultDeathDurabilityLoss,
	}
}

// BaseStats computes a combatant's stats at level from race + class growth
func (c *Catalog) BaseStats(raceID, classID string, level int) (types.Stats, error) {
	race, ok := c.Races[raceID]
	if !ok {
		return types.Stats{}, fmt.Errorf("unknown race: %s", raceID)
	}
	class, ok := c.Classes[classID]
	if !ok {
		return types.Stats{}, fmt.Errorf("unknown class: %s", classID)
	}
	stats := race.BaseStats.Add(class.BaseStats)
	if level > 1 {
		stats = stats.Add(class.PerLevelGrowth.Scale(level - 1))
	}
	return stats, nil
}

// XPForLevel returns the total XP required to reach level
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	// quadratic curve: 100, 300, 600, 1000, ...
	n := int64(level - 1)
	return 50 * n * (n + 1)
}
