/*
Package log provides structured logging for the shard using zerolog.

A single root Logger is initialized once via Init (JSON for production,
console for development) and subsystems derive scoped child loggers from it:
WithComponent for long-lived loops (world, gates, ledger, api, shop), and
WithZoneID / WithEntityID / WithWallet for per-zone lifecycle, per-entity
fault, and per-wallet authorization logging respectively.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	tickLog := log.WithComponent("world")
	tickLog.Debug().Int64("tick", 1204).Msg("Zone tick complete")

	log.WithZoneID("meadowbrook").Info().Msg("Zone created")
	log.WithWallet(wallet).Warn().Msg("Command rejected: wallet does not own entity")
*/
package log
