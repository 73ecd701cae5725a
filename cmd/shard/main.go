package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/api"
	"github.com/DasilvaKareem/wogshard/pkg/catalog"
	"github.com/DasilvaKareem/wogshard/pkg/events"
	"github.com/DasilvaKareem/wogshard/pkg/gates"
	"github.com/DasilvaKareem/wogshard/pkg/ledger"
	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/DasilvaKareem/wogshard/pkg/session"
	"github.com/DasilvaKareem/wogshard/pkg/shop"
	"github.com/DasilvaKareem/wogshard/pkg/storage"
	"github.com/DasilvaKareem/wogshard/pkg/world"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shard",
	Short: "Shard - authoritative world simulation for a multi-zone online game",
	Long: `Shard is a single-process world simulation: it owns the canonical state
of every live zone, advances it on a fixed tick, and exposes a JSON/HTTP
API for clients and tool-servers to observe and influence it. Currency and
item ownership settle on an external asset ledger through a serialized
transaction pipeline.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Shard version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the shard",
	Long: `Run the shard: load the content catalog, start the zone runtime, the
gate keeper, the transaction serializer, and the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		contentDir, _ := cmd.Flags().GetString("content-dir")
		tickInterval, _ := cmd.Flags().GetDuration("tick-interval")
		zones, _ := cmd.Flags().GetStringSlice("zones")

		return runServe(listen, dataDir, contentDir, tickInterval, zones)
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8460", "HTTP listen address")
	serveCmd.Flags().String("data-dir", "./data", "Directory for the progress database")
	serveCmd.Flags().String("content-dir", "", "Directory of YAML content overlays (optional)")
	serveCmd.Flags().Duration("tick-interval", 0, "Zone tick interval (default 500ms)")
	serveCmd.Flags().StringSlice("zones", []string{"meadowbrook"}, "Zones to start eagerly")
}

func runServe(listen, dataDir, contentDir string, tickInterval time.Duration, zones []string) error {
	log.Info("Shard starting")

	cat, err := catalog.Load(contentDir)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	progress, err := storage.NewProgressStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open progress store: %w", err)
	}
	defer progress.Close()

	// The stub adapter backs development runs; a deployment swaps in the
	// real chain adapter behind the same interface.
	adapter := ledger.NewStubAdapter()
	serializer := ledger.NewSerializer(adapter)
	serializer.Start()

	gold := ledger.NewGoldLedger()

	feed := events.NewFeed()
	feed.Start()

	w := world.New(cat, adapter, serializer, gold, feed, progress, world.Config{
		TickInterval: tickInterval,
	})
	for _, zoneID := range zones {
		w.GetOrCreateZone(zoneID)
	}

	keeper := gates.NewKeeper(w, serializer)
	keeper.Start()

	collector := metrics.NewCollector(w)
	collector.Start()

	sessions := session.NewStore()
	sessionStop := make(chan struct{})
	sessions.StartCleanup(time.Hour, sessionStop)

	server := api.NewServer(w, sessions, shop.New(w), keeper)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(listen)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
	}

	// Graceful shutdown: stop intake, let zones finish their tick, flush
	// the serializer queue
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Errorf("API shutdown failed", err)
	}

	close(sessionStop)
	collector.Stop()
	keeper.Stop()
	w.Stop()
	serializer.Stop()
	feed.Stop()

	log.Info("Shard stopped")
	return nil
}
