package types

import "time"

// Gameplay constants. Distances are in world units, durations in wall time;
// tick-denominated values assume the default tick interval.
const (
	// TickInterval is the default cadence of a zone's simulation loop
	TickInterval = 500 * time.Millisecond

	// GateLifetime is how long an unopened dungeon gate persists
	GateLifetime = 3 * time.Minute

	// SurgeInterval is the period between gate surges
	SurgeInterval = 5 * time.Minute

	// GateTickInterval is the cadence of the gate keeper loop
	GateTickInterval = 5 * time.Second

	// CorpseSkinWindow is how long a corpse stays skinnable
	CorpseSkinWindow = 90 * time.Second

	// InstanceLifetime bounds a dungeon instance before eviction
	InstanceLifetime = 30 * time.Minute

	// InstanceCleanupDelay holds a cleared instance open before teardown
	InstanceCleanupDelay = 15 * time.Second

	// ArrivalThreshold is the distance at which a move order completes
	ArrivalThreshold = 15.0

	// AttackRange is the maximum distance for a melee exchange
	AttackRange = 45.0

	// InteractRange is the maximum distance for gathering and NPC interaction
	InteractRange = 60.0

	// PortalRange is the maximum distance for a portal transition
	PortalRange = 30.0

	// MoveSpeed is how far an entity steps per tick toward a move target
	MoveSpeed = 40.0

	// MaxLevel caps combatant levels; further XP is banked
	MaxLevel = 60

	// SessionTTL is the lifetime of a bearer credential
	SessionTTL = 24 * time.Hour

	// ChallengeFreshness bounds how stale a signed challenge timestamp may be
	ChallengeFreshness = 5 * time.Minute

	// DamageVariance is the RNG spread applied to computed attack values
	DamageVariance = 0.10

	// ArmorWearChance is the per-slot probability of durability loss when hit
	ArmorWearChance = 0.25

	// CommandInboxSize bounds a zone's pending command queue
	CommandInboxSize = 256

	// EventLogCapacity bounds each zone's recent-event ring
	EventLogCapacity = 256
)
