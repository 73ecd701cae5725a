package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSerializerOrdering verifies that operations settle in submission
// order and never run concurrently
func TestSerializerOrdering(t *testing.T) {
	s := NewSerializer(NewStubAdapter())
	s.Start()
	defer s.Stop()

	var mu sync.Mutex
	var order []string
	inFlight := 0
	maxInFlight := 0

	op := func(label string) Op {
		return func(ctx context.Context, a Adapter) error {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			order = append(order, label)
			inFlight--
			mu.Unlock()
			return nil
		}
	}

	first := s.Submit("first", op("first"))
	second := s.Submit("second", op("second"))
	third := s.Submit("third", op("third"))

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	require.NoError(t, <-third)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, 1, maxInFlight, "serializer must never run two operations at once")
}

// TestSerializerRetriesConflict verifies that a nonce-class conflict is
// retried and the following operation proceeds unaffected
func TestSerializerRetriesConflict(t *testing.T) {
	adapter := NewStubAdapter()
	s := NewSerializer(adapter)
	s.Start()
	defer s.Stop()

	adapter.FailNext(CodeRetryableConflict)

	first := s.Submit("mint-a", func(ctx context.Context, a Adapter) error {
		return a.MintGold(ctx, "wallet-a", 10)
	})
	second := s.Submit("mint-b", func(ctx context.Context, a Adapter) error {
		return a.MintGold(ctx, "wallet-b", 20)
	})

	require.NoError(t, <-first)
	require.NoError(t, <-second)

	balA, err := adapter.GoldBalance(context.Background(), "wallet-a")
	require.NoError(t, err)
	balB, err := adapter.GoldBalance(context.Background(), "wallet-b")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balA)
	assert.Equal(t, int64(20), balB)
}

// TestSerializerPermanentFailure verifies non-retryable errors surface
// immediately and the queue advances
func TestSerializerPermanentFailure(t *testing.T) {
	adapter := NewStubAdapter()
	s := NewSerializer(adapter)
	s.Start()
	defer s.Stop()

	first := s.Submit("burn", func(ctx context.Context, a Adapter) error {
		return a.BurnGold(ctx, "empty-wallet", 100)
	})
	second := s.Submit("mint", func(ctx context.Context, a Adapter) error {
		return a.MintGold(ctx, "wallet-b", 5)
	})

	err := <-first
	require.Error(t, err)
	assert.False(t, IsRetryable(err))

	require.NoError(t, <-second)
}

func TestSubmitWaitHonorsContext(t *testing.T) {
	s := NewSerializer(NewStubAdapter())
	s.Start()
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.SubmitWait(ctx, "slow", func(ctx context.Context, a Adapter) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMintBurnRoundTrip(t *testing.T) {
	adapter := NewStubAdapter()
	ctx := context.Background()

	before, err := adapter.GoldBalance(ctx, "w")
	require.NoError(t, err)

	require.NoError(t, adapter.MintGold(ctx, "w", 250))
	require.NoError(t, adapter.BurnGold(ctx, "w", 250))

	after, err := adapter.GoldBalance(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
