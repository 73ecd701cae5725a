/*
Package session implements the challenge-response login flow and the bearer
credential store.

A wallet identifier is a hex-encoded ed25519 public key. The caller requests
a challenge, signs its message offline, and submits the signature; the store
verifies it, rejects timestamps outside the freshness window, and issues a
bearer token with a 24 hour TTL. Mutating API endpoints resolve the token
back to a wallet and match it against entity ownership.

Tokens and challenges live only in memory; a restart invalidates every
session, which is acceptable because logging in again costs one signature.
*/
package session
