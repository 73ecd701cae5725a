/*
Package api is the shard's JSON-over-HTTP surface.

Routes are built on chi. Read endpoints (state, zones, events, balances)
are public; every mutating endpoint requires a bearer credential issued by
the challenge/verify flow and resolved to a wallet by the session store.
The wallet travels on the request context and is matched against entity
ownership inside the world.

The error taxonomy maps onto statuses: validation errors are 400,
authorization failures 401, world preconditions 422 (with a stable
machine-readable reason), and transient ledger failures 502 after the
serializer's retries are exhausted. No endpoint mutates state on an error
response.
*/
package api
