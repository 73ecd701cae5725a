package shop

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/types"
	"github.com/DasilvaKareem/wogshard/pkg/world"
	"github.com/rs/zerolog"
)

// ledgerTimeout bounds how long a shop request waits on settlement
const ledgerTimeout = 30 * time.Second

// Shop handles merchant purchases and equipment repair against the gold
// ledger and the transaction serializer
type Shop struct {
	world      *world.World
	adapter    ledger.Adapter
	serializer *ledger.Serializer
	gold       *ledger.GoldLedger
	logger     zerolog.Logger
}

// New creates a shop over the world's economy services
func New(w *world.World) *Shop {
	return &Shop{
		world:      w,
		adapter:    w.Adapter(),
		serializer: w.Serializer(),
		gold:       w.Gold(),
		logger:     log.WithComponent("shop"),
	}
}

// BuyResult is the settled outcome of a purchase
type BuyResult struct {
	TokenID int64 `json:"tokenId"`
	Qty     int   `json:"quantity"`
	Cost    int64 `json:"cost"`
}

// Buy debits gold for qty of tokenID and mints the items to buyer. The
// gold is reserved locally before settlement so the wallet cannot
// double-spend while the burn is in flight.
func (s *Shop) Buy(ctx context.Context, buyer string, tokenID int64, qty int) (*BuyResult, error) {
	if qty <= 0 {
		return nil, world.NewValidation("quantity must be positive")
	}
	def, ok := s.world.Catalog().Items[tokenID]
	if !ok {
		return nil, world.NewValidation("unknown item")
	}
	cost := def.CopperPrice * int64(qty)

	balCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	onChain, err := s.adapter.GoldBalance(balCtx, buyer)
	if err != nil {
		return nil, fmt.Errorf("ledger balance read failed: %w", err)
	}

	if err := s.gold.Reserve(buyer, cost, onChain); err != nil {
		return nil, world.NewPrecondition("cannot buy", "insufficient gold")
	}

	opCtx, cancelOp := context.WithTimeout(ctx, ledgerTimeout)
	defer cancelOp()
	err = s.serializer.SubmitWait(opCtx, "shop-buy", func(ctx context.Context, a ledger.Adapter) error {
		if err := a.BurnGold(ctx, buyer, cost); err != nil {
			return err
		}
		return a.MintItem(ctx, buyer, tokenID, qty)
	})
	s.gold.Unreserve(buyer, cost)
	if err != nil {
		return nil, fmt.Errorf("purchase failed: %w", err)
	}

	s.logger.Info().
		Str("wallet", buyer).
		Int64("token_id", tokenID).
		Int("qty", qty).
		Int64("cost", cost).
		Msg("Purchase settled")
	return &BuyResult{TokenID: tokenID, Qty: qty, Cost: cost}, nil
}

// RepairResult is the settled outcome of an equipment repair
type RepairResult struct {
	Cost          int64             `json:"cost"`
	RepairedSlots []types.EquipSlot `json:"repairedSlots"`
}

// RepairCost computes the repair price across damaged slots:
// (copperPrice / maxDurability) x missingDurability x (1 + level x 0.04),
// rounded up per slot.
func RepairCost(cat *catalog.Catalog, e *types.Entity) (int64, []types.EquipSlot) {
	var cost int64
	var slots []types.EquipSlot
	for slot, item := range e.Player.Equipment {
		if item.Durability >= item.MaxDurability || item.MaxDurability == 0 {
			continue
		}
		def, ok := cat.Items[item.TokenID]
		if !ok {
			continue
		}
		missing := item.MaxDurability - item.Durability
		perPoint := float64(def.CopperPrice) / float64(item.MaxDurability)
		levelFactor := 1 + float64(e.Combat.Level)*0.04
		cost += int64(math.Ceil(perPoint * float64(missing) * levelFactor))
		slots = append(slots, slot)
	}
	return cost, slots
}

// Repair restores durability on all damaged equipped items, debiting the
// computed cost from the player's wallet
func (s *Shop) Repair(ctx context.Context, wallet, zoneID, entityID string) (*RepairResult, error) {
	z, ok := s.world.Zone(zoneID)
	if !ok {
		return nil, world.NewValidation("unknown zone")
	}
	player, ok := z.Entity(entityID)
	if !ok || player.Player == nil {
		return nil, world.NewValidation("unknown entity")
	}
	if player.Player.Wallet != wallet {
		return nil, world.NewAuthorization("wallet does not own entity")
	}

	cost, slots := RepairCost(s.world.Catalog(), player)
	if len(slots) == 0 {
		return &RepairResult{}, nil
	}

	balCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	onChain, err := s.adapter.GoldBalance(balCtx, wallet)
	if err != nil {
		return nil, fmt.Errorf("ledger balance read failed: %w", err)
	}
	if err := s.gold.Reserve(wallet, cost, onChain); err != nil {
		return nil, world.NewPrecondition("cannot repair", "insufficient gold")
	}

	opCtx, cancelOp := context.WithTimeout(ctx, ledgerTimeout)
	defer cancelOp()
	err = s.serializer.SubmitWait(opCtx, "repair", func(ctx context.Context, a ledger.Adapter) error {
		return a.BurnGold(ctx, wallet, cost)
	})
	s.gold.Unreserve(wallet, cost)
	if err != nil {
		return nil, fmt.Errorf("repair payment failed: %w", err)
	}

	// Payment settled; restore durability in-world
	if err := s.world.RestoreDurability(zoneID, entityID); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("wallet", wallet).
		Int64("cost", cost).
		Int("slots", len(slots)).
		Msg("Repair settled")
	return &RepairResult{Cost: cost, RepairedSlots: slots}, nil
}
