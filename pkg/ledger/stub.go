package ledger

import (
	"context"
	"fmt"
	"sync"
)

// StubAdapter is an in-memory Adapter for development and tests. It honors
// the full contract, including failure injection: FailNext queues errors that
// the next operations will return, which is how serializer retry behavior is
// exercised without a real chain.
type StubAdapter struct {
	mu       sync.Mutex
	gold     map[string]int64
	items    map[string]map[int64]int
	meta     map[string]CharacterMetadata
	failures []*OpError
}

// NewStubAdapter creates an empty in-memory ledger
func NewStubAdapter() *StubAdapter {
	return &StubAdapter{
		gold:  make(map[string]int64),
		items: make(map[string]map[int64]int),
		meta:  make(map[string]CharacterMetadata),
	}
}

// FailNext queues an error to be returned by upcoming operations, in order
func (s *StubAdapter) FailNext(code ErrorCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, &OpError{Code: code, Op: "injected"})
}

func (s *StubAdapter) takeFailure(op string) error {
	if len(s.failures) == 0 {
		return nil
	}
	f := s.failures[0]
	s.failures = s.failures[1:]
	return &OpError{Code: f.Code, Op: op}
}

func (s *StubAdapter) MintGold(ctx context.Context, wallet string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("mint-gold"); err != nil {
		return err
	}
	s.gold[wallet] += amount
	return nil
}

func (s *StubAdapter) BurnGold(ctx context.Context, wallet string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("burn-gold"); err != nil {
		return err
	}
	if s.gold[wallet] < amount {
		return &OpError{Code: CodeInsufficientFunds, Op: "burn-gold",
			Err: fmt.Errorf("wallet %s holds %d, needs %d", wallet, s.gold[wallet], amount)}
	}
	s.gold[wallet] -= amount
	return nil
}

func (s *StubAdapter) GoldBalance(ctx context.Context, wallet string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("gold-balance"); err != nil {
		return 0, err
	}
	return s.gold[wallet], nil
}

func (s *StubAdapter) MintItem(ctx context.Context, wallet string, tokenID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("mint-item"); err != nil {
		return err
	}
	if s.items[wallet] == nil {
		s.items[wallet] = make(map[int64]int)
	}
	s.items[wallet][tokenID] += qty
	return nil
}

func (s *StubAdapter) BurnItem(ctx context.Context, wallet string, tokenID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("burn-item"); err != nil {
		return err
	}
	if s.items[wallet][tokenID] < qty {
		return &OpError{Code: CodeUnknownToken, Op: "burn-item",
			Err: fmt.Errorf("wallet %s holds %d of token %d, needs %d", wallet, s.items[wallet][tokenID], tokenID, qty)}
	}
	s.items[wallet][tokenID] -= qty
	return nil
}

func (s *StubAdapter) ItemBalance(ctx context.Context, wallet string, tokenID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("item-balance"); err != nil {
		return 0, err
	}
	return s.items[wallet][tokenID], nil
}

func (s *StubAdapter) UpdateCharacterMetadata(ctx context.Context, wallet string, meta CharacterMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("update-metadata"); err != nil {
		return err
	}
	s.meta[wallet] = meta
	return nil
}

// Metadata returns the last metadata written for wallet (test helper)
func (s *StubAdapter) Metadata(wallet string) (CharacterMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meta[wallet]
	return m, ok
}
