/*
Package ledger is the shard's economy pipeline: the asset-ledger adapter
contract, the transaction serializer, and the gold intent ledger.

# Architecture

	┌──────────────────── LEDGER PIPELINE ─────────────────────┐
	│                                                           │
	│  combat kills / shop buys / repairs                       │
	│            │                                              │
	│            ▼                                              │
	│  ┌─────────────────┐    FIFO, one outstanding op          │
	│  │   Serializer    │──────────────────────────┐           │
	│  │  Submit(op)     │  retry w/ backoff on     │           │
	│  └─────────────────┘  RetryableConflict only  │           │
	│                                               ▼           │
	│  ┌─────────────────┐                 ┌──────────────┐     │
	│  │   GoldLedger    │                 │   Adapter    │     │
	│  │ reserve/spend   │   reconciled    │ mint / burn  │     │
	│  │ intent counters │◄───against──────│ balance/meta │     │
	│  └─────────────────┘                 └──────────────┘     │
	└───────────────────────────────────────────────────────────┘

The external ledger is a global singleton with strict ordering for a single
signer; concurrent operations collide on the signer's nonce. Serializing is
simpler and correct, and throughput is not a goal here.

The GoldLedger is never the source of truth. Reserve/RecordSpend track intent
between command acceptance and settlement so a wallet cannot double-spend
inside that horizon; displayed balances always come from the adapter.

StubAdapter implements the full contract in memory with failure injection
and backs development runs and the test suite.
*/
package ledger
