package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/credence-ai/credence/internal/api/handlers"
	mw "github.com/credence-ai/credence/internal/api/middleware"
	"github.com/credence-ai/credence/internal/buildconfig"
	"github.com/credence-ai/credence/internal/config"
	"github.com/credence-ai/credence/internal/service"
	"github.com/credence-ai/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App wires stores, services, and the HTTP router. The router is boundary
// glue; every operation it exposes is a core service call.
type App struct {
	Router *chi.Mux

	Memories   *service.MemoryService
	Ledger     *service.LedgerService
	Gate       *service.GateService
	Disclosure *service.DisclosureService
	Ingest     *service.IngestService
	Reflection *service.ReflectionService

	startTime time.Time
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	cfg := config.ScoringConfig()

	memoryStore := store.NewMemoryStore(db)
	trustLogStore := store.NewTrustLogStore(db)
	beliefSpeechStore := store.NewBeliefSpeechStore(db)
	contradictionStore := store.NewContradictionStore(db)

	memSvc := service.NewMemoryService(memoryStore, trustLogStore, beliefSpeechStore, cfg, logger)
	ledgerSvc := service.NewLedgerService(contradictionStore, memoryStore, memSvc, cfg, logger)
	gateSvc := service.NewGateService(contradictionStore, memSvc, cfg, logger)
	disclosureSvc := service.NewDisclosureService(config.DisclosureConfig(), logger)
	ingestSvc := service.NewIngestService(memSvc, ledgerSvc, nil, cfg, logger)
	reflectionSvc := service.NewReflectionService(memSvc, ledgerSvc, logger)

	memoryHandler := handlers.NewMemoryHandler(ingestSvc, memSvc)
	contradictionHandler := handlers.NewContradictionHandler(ledgerSvc)
	gateHandler := handlers.NewGateHandler(gateSvc)
	disclosureHandler := handlers.NewDisclosureHandler(disclosureSvc)
	reflectionHandler := handlers.NewReflectionHandler(reflectionSvc)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.RequestID)
	r.Use(mw.Logging(logger))
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	app := &App{
		Router:     r,
		Memories:   memSvc,
		Ledger:     ledgerSvc,
		Gate:       gateSvc,
		Disclosure: disclosureSvc,
		Ingest:     ingestSvc,
		Reflection: reflectionSvc,
		startTime:  time.Now(),
	}

	r.Get("/healthz", app.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/memories", memoryHandler.Ingest)
		r.Get("/memories/{id}", memoryHandler.Get)
		r.Get("/memories/{id}/trust", memoryHandler.TrustHistory)
		r.Post("/retrieve", memoryHandler.Retrieve)

		r.Get("/contradictions", contradictionHandler.ListOpen)
		r.Post("/contradictions/{id}/resolve", contradictionHandler.Resolve)
		r.Post("/contradictions/{id}/confirm", contradictionHandler.Confirm)

		r.Post("/gate/evaluate", gateHandler.Evaluate)

		r.Post("/disclosure/decide", disclosureHandler.Decide)
		r.Delete("/disclosure/sessions/{key}", disclosureHandler.EndSession)

		r.Get("/reflection/queue", reflectionHandler.Queue)
		r.Get("/stats", reflectionHandler.Stats)
	})

	return app
}

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"uptime":  time.Since(a.startTime).Truncate(time.Second).String(),
		"version": buildconfig.Version(),
		"commit":  buildconfig.Commit(),
	})
}
