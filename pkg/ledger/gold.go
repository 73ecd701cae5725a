package ledger

import (
	"fmt"
	"sync"
)

// GoldLedger is in-memory bookkeeping of reserved and spent gold per wallet.
// It is a write-through cache of intent, never the source of truth: the
// authoritative balance is the on-chain query, and the local counters only
// prevent double-spends between a command and its settlement.
type GoldLedger struct {
	mu       sync.Mutex
	reserved map[string]int64
	spent    map[string]int64
}

// NewGoldLedger creates an empty gold ledger
func NewGoldLedger() *GoldLedger {
	return &GoldLedger{
		reserved: make(map[string]int64),
		spent:    make(map[string]int64),
	}
}

// Reserve holds amount against wallet. Fails if the available balance,
// computed from onChainGold, cannot cover it.
func (g *GoldLedger) Reserve(wallet string, amount, onChainGold int64) error {
	if amount < 0 {
		return fmt.Errorf("cannot reserve negative amount %d", amount)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	available := onChainGold - g.reserved[wallet] - g.spent[wallet]
	if available < amount {
		return fmt.Errorf("insufficient gold: available %d, need %d", max64(available, 0), amount)
	}
	g.reserved[wallet] += amount
	return nil
}

// Unreserve releases amount from wallet's reservation, clamped at zero
func (g *GoldLedger) Unreserve(wallet string, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reserved[wallet] -= amount
	if g.reserved[wallet] <= 0 {
		delete(g.reserved, wallet)
	}
}

// RecordSpend marks amount of wallet's gold as spent but not yet settled
func (g *GoldLedger) RecordSpend(wallet string, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spent[wallet] += amount
}

// SettleSpend clears amount of wallet's spent counter once the burn settled
func (g *GoldLedger) SettleSpend(wallet string, amount int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.spent[wallet] -= amount
	if g.spent[wallet] <= 0 {
		delete(g.spent, wallet)
	}
}

// Reserved returns the current reservation for wallet
func (g *GoldLedger) Reserved(wallet string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reserved[wallet]
}

// Available computes spendable gold given the on-chain balance, clamped >= 0
func (g *GoldLedger) Available(wallet string, onChainGold int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	available := onChainGold - g.reserved[wallet] - g.spent[wallet]
	return max64(available, 0)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
