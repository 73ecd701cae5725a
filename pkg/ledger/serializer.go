package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// MaxRetries bounds retry attempts on nonce-class conflicts
	MaxRetries = 3

	// initialBackoff is the delay before the first retry; doubles per attempt
	initialBackoff = 1 * time.Second
)

// Op is one operation against the asset ledger
type Op func(ctx context.Context, adapter Adapter) error

// pending pairs an operation with its reply channel
type pending struct {
	label string
	op    Op
	reply chan error
}

// Serializer runs asset-ledger operations one at a time, in submission
// order. The external ledger has strict per-signer ordering; concurrent
// operations collide on the signer's nonce, so a single FIFO chain is both
// simpler and correct. Nonce-class conflicts are retried with exponential
// backoff before the queue advances.
type Serializer struct {
	adapter Adapter
	inbox   chan *pending
	logger  zerolog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopOnce sync.Once
}

// NewSerializer creates a serializer over adapter
func NewSerializer(adapter Adapter) *Serializer {
	return &Serializer{
		adapter: adapter,
		inbox:   make(chan *pending, 512),
		logger:  log.WithComponent("ledger"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the serializer loop
func (s *Serializer) Start() {
	go s.run()
}

// Stop drains the inbox, finishes in-flight work, and stops the loop
func (s *Serializer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}

// Submit enqueues op and returns a channel that yields its final error.
// Callers that do not care about the outcome may drop the channel; the
// buffer guarantees the loop never blocks on an abandoned reply.
func (s *Serializer) Submit(label string, op Op) <-chan error {
	p := &pending{label: label, op: op, reply: make(chan error, 1)}
	select {
	case s.inbox <- p:
	case <-s.stopCh:
		p.reply <- context.Canceled
	}
	return p.reply
}

// SubmitWait enqueues op and blocks until it settles or ctx expires.
// On ctx expiry the operation still executes; only the reply is dropped.
func (s *Serializer) SubmitWait(ctx context.Context, label string, op Op) error {
	reply := s.Submit(label, op)
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Serializer) run() {
	defer close(s.doneCh)

	s.logger.Info().Msg("Ledger serializer started")
	for {
		metrics.LedgerQueueDepth.Set(float64(len(s.inbox)))
		select {
		case p := <-s.inbox:
			p.reply <- s.execute(p)
		case <-s.stopCh:
			// Drain whatever was accepted before shutdown
			for {
				select {
				case p := <-s.inbox:
					p.reply <- s.execute(p)
				default:
					s.logger.Info().Msg("Ledger serializer stopped")
					return
				}
			}
		}
	}
}

// execute runs one operation with retry-on-conflict
func (s *Serializer) execute(p *pending) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	policy := backoff.WithMaxRetries(bo, MaxRetries)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := p.op(context.Background(), s.adapter)
		if err == nil {
			return nil
		}
		if IsRetryable(err) {
			s.logger.Warn().
				Str("op", p.label).
				Int("attempt", attempt).
				Err(err).
				Msg("Ledger conflict, retrying")
			return err
		}
		return backoff.Permanent(err)
	}, policy)

	if err != nil {
		metrics.LedgerOpsFailed.Inc()
		s.logger.Error().Str("op", p.label).Err(err).Msg("Ledger operation failed")
		return err
	}
	metrics.LedgerOpsTotal.Inc()
	return nil
}
