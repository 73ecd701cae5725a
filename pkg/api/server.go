package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/DasilvaKareem/wogshard/pkg/gates"
	"github.com/DasilvaKareem/wogshard/pkg/log"
	"github.com/DasilvaKareem/wogshard/pkg/metrics"
	"github.com/DasilvaKareem/wogshard/pkg/session"
	"github.com/DasilvaKareem/wogshard/pkg/shop"
	"github.com/DasilvaKareem/wogshard/pkg/world"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Server is the shard's JSON-over-HTTP surface
type Server struct {
	world    *world.World
	sessions *session.Store
	shop     *shop.Shop
	keeper   *gates.Keeper
	logger   zerolog.Logger
	http     *http.Server
}

// NewServer wires the API over the world and its services
func NewServer(w *world.World, sessions *session.Store, sh *shop.Shop, keeper *gates.Keeper) *Server {
	return &Server{
		world:    w,
		sessions: sessions,
		shop:     sh,
		keeper:   keeper,
		logger:   log.WithComponent("api"),
	}
}

// Router builds the chi route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Method("GET", "/metrics", metrics.Handler())

	r.Get("/auth/challenge", s.handleChallenge)
	r.Post("/auth/verify", s.handleVerify)

	r.Get("/state", s.handleState)
	r.Get("/zones/{zoneID}", s.handleZone)
	r.Get("/events/{zoneID}", s.handleEvents)
	r.Get("/balance/{wallet}", s.handleBalance)

	// Authenticated mutations
	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/command", s.handleCommand)
		r.Post("/spawn", s.handleSpawn)
		r.Post("/despawn", s.handleDespawn)
		r.Post("/transition/{zoneID}/portal/{portalID}", s.handleTransition)
		r.Post("/shop/buy", s.handleBuy)
		r.Post("/equipment/repair", s.handleRepair)
		r.Post("/gates/open", s.handleOpenGate)
	})

	return r
}

// Start serves the API on addr until Stop shuts the listener down
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("API listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the listener down
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		writeError(w, world.NewValidation("missing wallet"))
		return
	}
	ch, err := s.sessions.NewChallenge(wallet)
	if err != nil {
		writeError(w, world.NewValidation(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   ch.Message,
		"timestamp": ch.Timestamp.UnixMilli(),
	})
}

type verifyRequest struct {
	Wallet    string `json:"wallet"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"` // unix millis from the challenge
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.sessions.Verify(req.Wallet, req.Signature, time.UnixMilli(req.Timestamp))
	if err != nil {
		writeError(w, world.NewAuthorization(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     sess.Token,
		"expiresIn": int64(time.Until(sess.ExpiresAt).Seconds()),
	})
}

// --- observation ---

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"zones": s.world.SnapshotAll()})
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")
	z, ok := s.world.Zone(zoneID)
	if !ok {
		writeError(w, world.NewValidation("unknown zone"))
		return
	}
	writeJSON(w, http.StatusOK, z.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")
	z, ok := s.world.Zone(zoneID)
	if !ok {
		writeError(w, world.NewValidation("unknown zone"))
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, world.NewValidation("invalid since"))
			return
		}
		since = time.UnixMilli(ms)
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, world.NewValidation("invalid limit"))
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": z.Log().Since(since, limit)})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	onChain, err := s.world.Adapter().GoldBalance(ctx, wallet)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ledger unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":    wallet,
		"onChain":   onChain,
		"available": s.world.Gold().Available(wallet, onChain),
	})
}

// --- commands ---

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd world.Command
	if !decode(w, r, &cmd) {
		return
	}
	receipt, err := s.world.Dispatch(sessionWallet(r), cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type spawnRequest struct {
	Name    string `json:"name"`
	RaceID  string `json:"raceId"`
	ClassID string `json:"classId"`
	ZoneID  string `json:"zoneId"`
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.RaceID == "" || req.ClassID == "" || req.ZoneID == "" {
		writeError(w, world.NewValidation("missing field"))
		return
	}
	e, err := s.world.SpawnPlayer(sessionWallet(r), req.Name, req.RaceID, req.ClassID, req.ZoneID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type despawnRequest struct {
	ZoneID   string `json:"zoneId"`
	EntityID string `json:"entityId"`
}

func (s *Server) handleDespawn(w http.ResponseWriter, r *http.Request) {
	var req despawnRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.world.DespawnPlayer(sessionWallet(r), req.ZoneID, req.EntityID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type transitionRequest struct {
	EntityID string `json:"entityId"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decode(w, r, &req) {
		return
	}
	zoneID := chi.URLParam(r, "zoneID")
	portalID := chi.URLParam(r, "portalID")

	e, err := s.world.Transition(sessionWallet(r), zoneID, portalID, req.EntityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// --- economy ---

type buyRequest struct {
	TokenID  int64 `json:"tokenId"`
	Quantity int   `json:"quantity"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := s.shop.Buy(r.Context(), sessionWallet(r), req.TokenID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type repairRequest struct {
	ZoneID   string `json:"zoneId"`
	EntityID string `json:"entityId"`
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := s.shop.Repair(r.Context(), sessionWallet(r), req.ZoneID, req.EntityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- gates ---

type openGateRequest struct {
	ZoneID    string   `json:"zoneId"`
	GateID    string   `json:"gateId"`
	MemberIDs []string `json:"memberIds"`
}

func (s *Server) handleOpenGate(w http.ResponseWriter, r *http.Request) {
	var req openGateRequest
	if !decode(w, r, &req) {
		return
	}
	inst, err := s.keeper.OpenGate(sessionWallet(r), req.ZoneID, req.GateID, req.MemberIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instanceId":    inst.ID,
		"dungeonZoneId": inst.DungeonZoneID,
		"rank":          inst.Rank,
		"expiresAt":     inst.ExpiresAt.UnixMilli(),
	})
}

// --- helpers ---

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, world.NewValidation("invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the world error taxonomy to HTTP statuses. Anything that
// is not a typed world error is a transient internal failure.
func writeError(w http.ResponseWriter, err error) {
	var werr *world.Error
	if errors.As(err, &werr) {
		status := http.StatusBadRequest
		switch werr.Kind {
		case world.KindAuthorization:
			status = http.StatusUnauthorized
		case world.KindPrecondition:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, werr)
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}
