package combat

import (
	"math"
	"math/rand"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/types"
)

// affixBonuses maps a rolled bonus affix to its flat attack bonus
var affixBonuses = map[string]int{
	"keen":     2,
	"savage":   4,
	"tempered": 1,
}

// Exchange is the outcome of one resolved attack
type Exchange struct {
	Damage         int
	ShieldAbsorbed int
	DefenderDied   bool
	WeaponBroke    bool
	ArmorBroke     []types.EquipSlot
	Tagged         bool
}

// ResolveExchange resolves one combat exchange from attacker onto defender,
// mutating both. Range and liveness checks belong to the caller; this
// function assumes a legal exchange.
func ResolveExchange(rng *rand.Rand, attacker, defender *types.Entity, cat *catalog.Catalog) Exchange {
	var ex Exchange

	atk := effectiveAttack(attacker, cat)
	// RNG variation within the configured spread
	variance := 1 + (rng.Float64()*2-1)*types.DamageVariance
	atk = atk * variance

	mitigation := 100.0 / (100.0 + float64(defenderDefense(defender)))
	dmg := int(math.Round(atk * mitigation))
	if dmg < 1 {
		dmg = 1
	}
	ex.Damage = dmg

	// Shields absorb before hit points
	remaining := dmg
	if defender.Player != nil {
		for i := range defender.Player.Effects {
			eff := &defender.Player.Effects[i]
			if eff.Kind != types.EffectShield || eff.ShieldHP <= 0 {
				continue
			}
			absorbed := min(eff.ShieldHP, remaining)
			eff.ShieldHP -= absorbed
			remaining -= absorbed
			ex.ShieldAbsorbed += absorbed
			if eff.ShieldHP <= 0 {
				eff.RemainingTicks = 0 // consumed; expiry pass drops it
			}
			if remaining == 0 {
				break
			}
		}
	}

	defender.HP -= remaining
	defender.ClampVitals()

	// Durability: attacker's weapon wears on every swing, each armor slot
	// on the defender wears probabilistically
	if attacker.Player != nil {
		if weapon, ok := attacker.Player.Equipment[types.SlotWeapon]; ok && !weapon.Broken {
			weapon.Durability--
			if weapon.Durability <= 0 {
				weapon.Durability = 0
				weapon.Broken = true
				ex.WeaponBroke = true
				RecomputeEffective(attacker, cat)
			}
		}
	}
	if defender.Player != nil {
		recompute := false
		for _, slot := range types.ArmorSlots {
			item, ok := defender.Player.Equipment[slot]
			if !ok || item.Broken {
				continue
			}
			if rng.Float64() < types.ArmorWearChance {
				item.Durability--
				if item.Durability <= 0 {
					item.Durability = 0
					item.Broken = true
					ex.ArmorBroke = append(ex.ArmorBroke, slot)
					recompute = true
				}
			}
		}
		if recompute {
			RecomputeEffective(defender, cat)
		}
	}

	// First player damage tags the mob for loot attribution
	if attacker.Kind == types.KindPlayer && defender.Combat != nil &&
		defender.Kind != types.KindPlayer && defender.Combat.TaggedBy == "" {
		defender.Combat.TaggedBy = attacker.ID
		ex.Tagged = true
	}

	if defender.HP <= 0 {
		ex.DefenderDied = true
	}
	return ex
}

// effectiveAttack computes the attacker's outgoing attack value
func effectiveAttack(e *types.Entity, cat *catalog.Catalog) float64 {
	if e.Combat == nil {
		return 1
	}
	atk := float64(e.Combat.EffectiveStats.Str)

	if e.Player != nil {
		if weapon, ok := e.Player.Equipment[types.SlotWeapon]; ok && !weapon.Broken {
			if def, ok := cat.Items[weapon.TokenID]; ok {
				atk += float64(def.Damage)
			}
			if weapon.RolledStats != nil {
				atk += float64(weapon.RolledStats.Str)
			}
			atk += float64(affixBonuses[weapon.BonusAffix])
		}
	}
	return atk
}

func defenderDefense(e *types.Entity) int {
	if e.Combat == nil {
		return 0
	}
	return e.Combat.EffectiveStats.Def
}

// RecomputeEffective rebuilds a combatant's effective stats and vitals from
// base stats, unbroken equipment, and active effects. Called on any
// equipment change, effect-list change, or level-up.
func RecomputeEffective(e *types.Entity, cat *catalog.Catalog) {
	if e.Combat == nil {
		return
	}
	eff := e.Combat.Stats

	if e.Player != nil {
		for _, item := range e.Player.Equipment {
			if item.Broken {
				continue
			}
			if def, ok := cat.Items[item.TokenID]; ok {
				eff = eff.Add(def.Stats)
			}
			if item.RolledStats != nil {
				eff = eff.Add(*item.RolledStats)
			}
		}
		for _, effect := range e.Player.Effects {
			if effect.Kind == types.EffectBuff {
				eff = eff.Add(effect.StatModifiers)
			}
		}
	}

	e.Combat.EffectiveStats = eff
	e.MaxHP = eff.HP
	if e.HP > e.MaxHP {
		e.HP = e.MaxHP
	}

	if e.Player != nil && e.Combat.ClassID != "" {
		if class, ok := cat.Classes[e.Combat.ClassID]; ok && class.UsesEssence {
			e.MaxEssence = class.BaseEssence + class.EssencePerLevel*(e.Combat.Level-1)
			if e.Essence > e.MaxEssence {
				e.Essence = e.MaxEssence
			}
		}
	}
}

// LevelUp describes one level gained by AwardXP
type LevelUp struct {
	NewLevel int
}

// AwardXP credits xp (scaled by any active tonic) to a player and processes
// level-ups. Levels cap at MaxLevel; overflow XP is banked. Stats, effective
// stats and vitals are recomputed on every level gained.
func AwardXP(e *types.Entity, xp int64, cat *catalog.Catalog) []LevelUp {
	if e.Combat == nil {
		return nil
	}
	if e.Player != nil && e.Player.XPTonicFactor > 1 {
		xp = int64(float64(xp) * e.Player.XPTonicFactor)
	}
	e.Combat.XP += xp

	var ups []LevelUp
	for e.Combat.Level < types.MaxLevel && e.Combat.XP >= catalog.XPForLevel(e.Combat.Level+1) {
		e.Combat.Level++
		ups = append(ups, LevelUp{NewLevel: e.Combat.Level})

		if stats, err := cat.BaseStats(e.Combat.RaceID, e.Combat.ClassID, e.Combat.Level); err == nil {
			e.Combat.Stats = stats
		}
		RecomputeEffective(e, cat)
		// A level-up tops off vitals
		e.HP = e.MaxHP
		e.Essence = e.MaxEssence
	}
	return ups
}

// ApplyDeathPenalty relocates a dead player to the zone graveyard, restores
// a fraction of hit points, and wears all equipped items by the zone's
// durability-loss percentage.
func ApplyDeathPenalty(e *types.Entity, zdef *catalog.ZoneDef, cat *catalog.Catalog) {
	if e.Player == nil || e.Combat == nil {
		return
	}

	e.Position = zdef.Graveyard
	e.HP = int(float64(e.MaxHP) * zdef.DeathHPFraction)
	if e.HP < 1 {
		e.HP = 1
	}

	recompute := false
	for _, item := range e.Player.Equipment {
		loss := int(math.Ceil(float64(item.MaxDurability) * zdef.DeathDurabilityLoss))
		item.Durability -= loss
		if item.Durability <= 0 {
			item.Durability = 0
			if !item.Broken {
				item.Broken = true
				recompute = true
			}
		}
	}
	if recompute {
		RecomputeEffective(e, cat)
	}
}
