package catalog

import "github.com/DasilvaKareem/wogshard/pkg/types"

const (
	defaultDeathHPFraction     = 0.25
	defaultDeathDurabilityLoss = 0.10
)

// Well-known token ids used by the default content set
const (
	TokenRustySword    int64 = 1
	TokenIronSword     int64 = 2
	TokenLeatherChest  int64 = 3
	TokenLeatherLegs   int64 = 4
	TokenCopperPickaxe int64 = 5
	TokenIronPickaxe   int64 = 6
	TokenSickle        int64 = 7
	TokenSkinningKnife int64 = 8
	TokenWolfPelt      int64 = 20
	TokenBoarTusk      int64 = 21
	TokenCopperOre     int64 = 30
	TokenIronOre       int64 = 31
	TokenMoonpetal     int64 = 32
	TokenNectarVial    int64 = 33
	TokenXPTonic       int64 = 40
)

// Default returns the built-in content set. Deployments overlay YAML files
// from the content directory on top of it.
func Default() *Catalog {
	c := &Catalog{
		Races:      make(map[string]*RaceDef),
		Classes:    make(map[string]*ClassDef),
		Items:      make(map[int64]*ItemDef),
		Mobs:       make(map[string]*MobDef),
		Techniques: make(map[string]*TechniqueDef),
		Zones:      make(map[string]*ZoneDef),
		Dungeons:   make(map[types.GateRank]*DungeonTemplate),
	}

	c.Races["human"] = &RaceDef{ID: "human", Name: "Human", BaseStats: types.Stats{Str: 10, Agi: 10, Int: 10, Def: 10, HP: 100}}
	c.Races["dwarf"] = &RaceDef{ID: "dwarf", Name: "Dwarf", BaseStats: types.Stats{Str: 12, Agi: 8, Int: 8, Def: 14, HP: 120}}
	c.Races["sylvan"] = &RaceDef{ID: "sylvan", Name: "Sylvan", BaseStats: types.Stats{Str: 8, Agi: 13, Int: 13, Def: 8, HP: 90}}

	c.Classes["warrior"] = &ClassDef{
		ID: "warrior", Name: "Warrior",
		BaseStats:      types.Stats{Str: 8, Agi: 2, Def: 5, HP: 30},
		PerLevelGrowth: types.Stats{Str: 3, Agi: 1, Def: 2, HP: 12},
	}
	c.Classes["scout"] = &ClassDef{
		ID: "scout", Name: "Scout",
		BaseStats:      types.Stats{Str: 4, Agi: 8, Def: 3, HP: 22},
		PerLevelGrowth: types.Stats{Str: 2, Agi: 3, Def: 1, HP: 9},
	}
	c.Classes["spellweaver"] = &ClassDef{
		ID: "spellweaver", Name: "Spellweaver",
		BaseStats:       types.Stats{Str: 2, Agi: 3, Int: 9, Def: 2, HP: 18},
		PerLevelGrowth:  types.Stats{Str: 1, Agi: 1, Int: 3, Def: 1, HP: 7},
		UsesEssence:     true,
		BaseEssence:     50,
		EssencePerLevel: 8,
		Techniques:      []string{"emberbolt", "wardshell", "mending"},
	}

	c.Items[TokenRustySword] = &ItemDef{TokenID: TokenRustySword, Name: "Rusty Sword", Slot: types.SlotWeapon, Damage: 4, CopperPrice: 25, MaxDurability: 40, Rarity: "common"}
	c.Items[TokenIronSword] = &ItemDef{TokenID: TokenIronSword, Name: "Iron Sword", Slot: types.SlotWeapon, Damage: 9, CopperPrice: 120, MaxDurability: 80, Rarity: "uncommon"}
	c.Items[TokenLeatherChest] = &ItemDef{TokenID: TokenLeatherChest, Name: "Leather Jerkin", Slot: types.SlotChest, Stats: types.Stats{Def: 4}, CopperPrice: 60, MaxDurability: 60, Rarity: "common"}
	c.Items[TokenLeatherLegs] = &ItemDef{TokenID: TokenLeatherLegs, Name: "Leather Trousers", Slot: types.SlotLegs, Stats: types.Stats{Def: 3}, CopperPrice: 45, MaxDurability: 60, Rarity: "common"}
	c.Items[TokenCopperPickaxe] = &ItemDef{TokenID: TokenCopperPickaxe, Name: "Copper Pickaxe", Slot: types.SlotWeapon, Damage: 2, CopperPrice: 30, MaxDurability: 50, ToolType: "pickaxe", ToolTier: 1, Rarity: "common"}
	c.Items[TokenIronPickaxe] = &ItemDef{TokenID: TokenIronPickaxe, Name: "Iron Pickaxe", Slot: types.SlotWeapon, Damage: 3, CopperPrice: 150, MaxDurability: 90, ToolType: "pickaxe", ToolTier: 2, Rarity: "uncommon"}
	c.Items[TokenSickle] = &ItemDef{TokenID: TokenSickle, Name: "Harvest Sickle", Slot: types.SlotWeapon, Damage: 2, CopperPrice: 30, MaxDurability: 50, ToolType: "sickle", ToolTier: 1, Rarity: "common"}
	c.Items[TokenSkinningKnife] = &ItemDef{TokenID: TokenSkinningKnife, Name: "Skinning Knife", Slot: types.SlotWeapon, Damage: 1, CopperPrice: 20, MaxDurability: 50, ToolType: "skinning-knife", ToolTier: 1, Rarity: "common"}
	c.Items[TokenWolfPelt] = &ItemDef{TokenID: TokenWolfPelt, Name: "Wolf Pelt", CopperPrice: 8, Rarity: "common"}
	c.Items[TokenBoarTusk] = &ItemDef{TokenID: TokenBoarTusk, Name: "Boar Tusk", CopperPrice: 6, Rarity: "common"}
	c.Items[TokenCopperOre] = &ItemDef{TokenID: TokenCopperOre, Name: "Copper Ore", CopperPrice: 5, Rarity: "common"}
	c.Items[TokenIronOre] = &ItemDef{TokenID: TokenIronOre, Name: "Iron Ore", CopperPrice: 12, Rarity: "uncommon"}
	c.Items[TokenMoonpetal] = &ItemDef{TokenID: TokenMoonpetal, Name: "Moonpetal", CopperPrice: 7, Rarity: "common"}
	c.Items[TokenNectarVial] = &ItemDef{TokenID: TokenNectarVial, Name: "Nectar Vial", CopperPrice: 9, Rarity: "common"}
	c.Items[TokenXPTonic] = &ItemDef{TokenID: TokenXPTonic, Name: "XP Tonic", CopperPrice: 200, Rarity: "rare", Effect: "xp-tonic"}

	c.Mobs["gray-wolf"] = &MobDef{
		ID: "gray-wolf", Name: "Gray Wolf", Level: 4, MaxHP: 100,
		Stats: types.Stats{Str: 8, Agi: 6, Def: 4}, XPReward: 50, AggroRange: 220,
		Loot: types.LootTable{
			CopperMin: 5, CopperMax: 15,
			AutoDrops:     []types.LootDrop{{TokenID: TokenWolfPelt, MinQty: 1, MaxQty: 1, Chance: 0.6}},
			SkinningDrops: []types.LootDrop{{TokenID: TokenWolfPelt, MinQty: 1, MaxQty: 2, Chance: 0.9}},
		},
	}
	c.Mobs["tusked-boar"] = &MobDef{
		ID: "tusked-boar", Name: "Tusked Boar", Level: 6, MaxHP: 160,
		Stats: types.Stats{Str: 12, Agi: 4, Def: 7}, XPReward: 85, AggroRange: 180,
		Loot: types.LootTable{
			CopperMin: 10, CopperMax: 25,
			AutoDrops:     []types.LootDrop{{TokenID: TokenBoarTusk, MinQty: 1, MaxQty: 2, Chance: 0.5}},
			SkinningDrops: []types.LootDrop{{TokenID: TokenBoarTusk, MinQty: 1, MaxQty: 1, Chance: 0.8}},
		},
	}
	c.Mobs["hollow-shade"] = &MobDef{
		ID: "hollow-shade", Name: "Hollow Shade", Level: 12, MaxHP: 420,
		Stats: types.Stats{Str: 20, Agi: 12, Def: 12}, XPReward: 240, AggroRange: 260,
		Loot: types.LootTable{CopperMin: 40, CopperMax: 90},
	}
	c.Mobs["shade-tyrant"] = &MobDef{
		ID: "shade-tyrant", Name: "Shade Tyrant", Level: 18, MaxHP: 1400,
		Stats: types.Stats{Str: 34, Agi: 16, Def: 22}, XPReward: 1200, AggroRange: 320,
		Boss: true,
		Loot: types.LootTable{
			CopperMin: 300, CopperMax: 600,
			AutoDrops: []types.LootDrop{{TokenID: TokenIronSword, MinQty: 1, MaxQty: 1, Chance: 0.25}},
		},
	}

	c.Techniques["emberbolt"] = &TechniqueDef{ID: "emberbolt", Name: "Emberbolt", Kind: TechDamage, EssenceCost: 8, CooldownTicks: 4, Power: 18}
	c.Techniques["wardshell"] = &TechniqueDef{ID: "wardshell", Name: "Wardshell", Kind: TechShield, EssenceCost: 12, CooldownTicks: 20, Power: 40, DurationTicks: 40}
	c.Techniques["mending"] = &TechniqueDef{ID: "mending", Name: "Mending", Kind: TechHeal, EssenceCost: 10, CooldownTicks: 8, Power: 25, DurationTicks: 6, HotHealPerTick: 4}
	c.Techniques["battlecry"] = &TechniqueDef{ID: "battlecry", Name: "Battlecry", Kind: TechBuff, EssenceCost: 0, CooldownTicks: 60, DurationTicks: 30, StatModifiers: types.Stats{Str: 5}}

	c.Zones["meadowbrook"] = &ZoneDef{
		ID: "meadowbrook", Name: "Meadowbrook",
		Graveyard:           types.Position{X: 100, Y: 100},
		SpawnPoint:          types.Position{X: 400, Y: 400},
		DeathHPFraction:     defaultDeathHPFraction,
		DeathDurabilityLoss: defaultDeathDurabilityLoss,
		GateWeights:         map[types.GateRank]int{types.RankE: 60, types.RankD: 30, types.RankC: 10},
		Spawns: []SpawnDef{
			{MobID: "gray-wolf", Position: types.Position{X: 700, Y: 300}, Count: 4, RespawnTicks: 60},
			{MobID: "tusked-boar", Position: types.Position{X: 900, Y: 650}, Count: 3, RespawnTicks: 90},
		},
		Nodes: []NodeSpawnDef{
			{Kind: types.KindOreNode, ResourceType: "copper", Position: types.Position{X: 250, Y: 700}, MaxCharges: 3, RespawnTicks: 120, RequiredToolTier: 1, YieldTokenID: TokenCopperOre},
			{Kind: types.KindFlowerNode, ResourceType: "moonpetal", Position: types.Position{X: 550, Y: 820}, MaxCharges: 4, RespawnTicks: 100, RequiredToolTier: 1, YieldTokenID: TokenMoonpetal},
			{Kind: types.KindNectarNode, ResourceType: "nectar", Position: types.Position{X: 640, Y: 120}, MaxCharges: 2, RespawnTicks: 150, RequiredToolTier: 1, YieldTokenID: TokenNectarVial},
		},
		Portals: []PortalDef{
			{ID: "meadowbrook-duskfen", Position: types.Position{X: 1180, Y: 600}, DestZoneID: "duskfen", DestX: 80, DestY: 600, LevelRequirement: 8},
		},
		NPCs: []NPCDef{
			{Kind: types.KindNPCMerchant, Name: "Provisioner Edda", Position: types.Position{X: 420, Y: 380}, Stock: []int64{TokenRustySword, TokenLeatherChest, TokenLeatherLegs, TokenCopperPickaxe, TokenSickle, TokenSkinningKnife, TokenXPTonic}},
			{Kind: types.KindNPCTrainer, Name: "Sword-Dame Kessel", Position: types.Position{X: 460, Y: 340}, Techniques: []string{"battlecry"}},
			{Kind: types.KindNPCProfessionTrainer, Name: "Foreman Garrick", Position: types.Position{X: 300, Y: 680}, Profession: "mining"},
		},
	}
	c.Zones["duskfen"] = &ZoneDef{
		ID: "duskfen", Name: "Duskfen",
		Graveyard:           types.Position{X: 120, Y: 120},
		SpawnPoint:          types.Position{X: 200, Y: 600},
		DeathHPFraction:     defaultDeathHPFraction,
		DeathDurabilityLoss: defaultDeathDurabilityLoss,
		GateWeights:         map[types.GateRank]int{types.RankD: 40, types.RankC: 40, types.RankB: 20},
		Spawns: []SpawnDef{
			{MobID: "hollow-shade", Position: types.Position{X: 800, Y: 500}, Count: 5, RespawnTicks: 120},
		},
		Nodes: []NodeSpawnDef{
			{Kind: types.KindOreNode, ResourceType: "iron", Position: types.Position{X: 400, Y: 850}, MaxCharges: 3, RespawnTicks: 160, RequiredToolTier: 2, YieldTokenID: TokenIronOre, Rarity: "uncommon"},
		},
		Portals: []PortalDef{
			{ID: "duskfen-meadowbrook", Position: types.Position{X: 60, Y: 600}, DestZoneID: "meadowbrook", DestX: 1150, DestY: 600},
		},
	}

	c.Dungeons[types.RankE] = &DungeonTemplate{
		Rank: types.RankE, MinLevel: 3, MaxPartySize: 4, ClearBonusCopper: 100,
		Mobs: []SpawnDef{{MobID: "gray-wolf", Position: types.Position{X: 300, Y: 300}, Count: 6}},
	}
	c.Dungeons[types.RankD] = &DungeonTemplate{
		Rank: types.RankD, MinLevel: 6, MaxPartySize: 4, ClearBonusCopper: 250,
		Mobs: []SpawnDef{{MobID: "tusked-boar", Position: types.Position{X: 300, Y: 300}, Count: 6}},
	}
	c.Dungeons[types.RankC] = &DungeonTemplate{
		Rank: types.RankC, MinLevel: 10, MaxPartySize: 5, ClearBonusCopper: 600,
		Mobs: []SpawnDef{{MobID: "hollow-shade", Position: types.Position{X: 350, Y: 350}, Count: 5}},
	}
	c.Dungeons[types.RankB] = &DungeonTemplate{
		Rank: types.RankB, MinLevel: 14, MaxPartySize: 5, ClearBonusCopper: 1500,
		Mobs: []SpawnDef{{MobID: "hollow-shade", Position: types.Position{X: 350, Y: 350}, Count: 8}},
	}
	c.Dungeons[types.RankA] = &DungeonTemplate{
		Rank: types.RankA, MinLevel: 17, MaxPartySize: 6, ClearBonusCopper: 4000,
		Mobs: []SpawnDef{
			{MobID: "hollow-shade", Position: types.Position{X: 350, Y: 350}, Count: 8},
			{MobID: "shade-tyrant", Position: types.Position{X: 600, Y: 600}, Count: 1},
		},
	}
	c.Dungeons[types.RankS] = &DungeonTemplate{
		Rank: types.RankS, MinLevel: 20, MaxPartySize: 6, ClearBonusCopper: 10000,
		Mobs: []SpawnDef{
			{MobID: "hollow-shade", Position: types.Position{X: 350, Y: 350}, Count: 10},
			{MobID: "shade-tyrant", Position: types.Position{X: 600, Y: 600}, Count: 2},
		},
	}

	return c
}
