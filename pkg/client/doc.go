/*
Package client wraps the shard HTTP API in a typed Go client.

It is the integration point for the CLI, automation agents, and tool-servers:
one method per endpoint, bearer-token handling, and error decoding into the
API's stable error/reason strings.

	c := client.New("http://127.0.0.1:8460")
	msg, ts, _ := c.Challenge(ctx, wallet)
	// sign msg offline, then:
	c.Verify(ctx, wallet, signature, ts)
	c.Spawn(ctx, "Pilgrim", "human", "warrior", "meadowbrook")
*/
package client
