package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/model"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/pipeline"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/scoring"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/store"
	"github.com/dudleypeacockqa/ma-saas-platform-sub002/internal/synergy"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		engine, err := initEngine()
		if err != nil {
			return err
		}

		srv := newServer(engine, st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server wires the analysis engines and store behind the HTTP API.
type server struct {
	engine     *scoring.Engine
	store      store.Store
	identifier *synergy.Identifier
	valuer     *synergy.Valuer
	cache      *responseCache
}

func newServer(engine *scoring.Engine, st store.Store) *server {
	ttl := 15 * time.Minute
	if cfg.Server.CacheTTLMinutes > 0 {
		ttl = time.Duration(cfg.Server.CacheTTLMinutes) * time.Minute
	}
	return &server{
		engine:     engine,
		store:      st,
		identifier: synergy.NewIdentifier(synergy.DefaultIdentifyParams()),
		valuer:     synergy.NewValuer(),
		cache:      newResponseCache(ttl),
	}
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/scores", s.handleScore)
		api.Get("/deals/{dealID}/scores", s.handleScoreHistory)

		api.Post("/synergies/identify", s.handleIdentify)
		api.Post("/synergies/quantify", s.handleQuantify)
		api.Get("/synergies", s.handleListSynergies)
		api.Post("/synergies/{id}/status", s.handleSynergyStatus)
		api.Post("/synergies/{id}/realizations", s.handleTrack)
		api.Get("/synergies/{id}/realizations", s.handleRealizations)
		api.Post("/synergies/metrics", s.handleMetrics)

		api.Post("/pipeline/analyze", s.handleAnalyze)
		api.Post("/pipeline/predict", s.handlePredict)
		api.Post("/pipeline/forecast", s.handleForecast)
	})

	return r
}

func (s *server) handleScore(w http.ResponseWriter, req *http.Request) {
	var deal model.Deal
	if err := json.NewDecoder(req.Body).Decode(&deal); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	score, err := s.engine.Score(req.Context(), deal)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.SaveDealScore(req.Context(), *score); err != nil {
		zap.L().Error("save score failed", zap.String("deal", deal.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist score")
		return
	}

	writeJSON(w, http.StatusOK, score)
}

func (s *server) handleScoreHistory(w http.ResponseWriter, req *http.Request) {
	dealID := chi.URLParam(req, "dealID")

	scores, err := s.store.ListDealScores(req.Context(), dealID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list scores")
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *server) handleIdentify(w http.ResponseWriter, req *http.Request) {
	var pairing dealPairing
	if err := json.NewDecoder(req.Body).Decode(&pairing); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if pairing.DealID == "" {
		writeError(w, http.StatusBadRequest, "deal_id is required")
		return
	}

	opps := s.identifier.Identify(pairing.DealID, pairing.Target, pairing.Acquirer)
	if err := saveOpportunities(req.Context(), s.store, opps); err != nil {
		zap.L().Error("save opportunities failed", zap.String("deal", pairing.DealID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist opportunities")
		return
	}

	writeJSON(w, http.StatusOK, opps)
}

func (s *server) handleQuantify(w http.ResponseWriter, req *http.Request) {
	var opps []model.SynergyOpportunity
	if err := json.NewDecoder(req.Body).Decode(&opps); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	market := synergy.MarketData{
		GrowthRate:   cfg.Synergy.MarketGrowthRate,
		DiscountRate: cfg.Synergy.DiscountRate,
	}

	distributions := make([]synergy.ValueDistribution, 0, len(opps))
	for _, opp := range opps {
		dist, err := s.valuer.Quantify(opp, market)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		distributions = append(distributions, *dist)
	}

	writeJSON(w, http.StatusOK, distributions)
}

func (s *server) handleListSynergies(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	filter := store.OpportunityFilter{
		DealID: q.Get("deal_id"),
		Type:   model.SynergyType(q.Get("type")),
		Status: model.SynergyStatus(q.Get("status")),
	}

	opps, err := s.store.ListOpportunities(req.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list synergies")
		return
	}
	writeJSON(w, http.StatusOK, opps)
}

func (s *server) handleSynergyStatus(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	var body struct {
		Status model.SynergyStatus `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.UpdateOpportunityStatus(req.Context(), id, body.Status); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	opp, err := s.store.GetOpportunity(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load synergy")
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

func (s *server) handleTrack(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	var period synergy.Period
	if err := json.NewDecoder(req.Body).Decode(&period); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := newTracker(s.store).Record(req.Context(), id, period)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleRealizations(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	recs, err := s.store.ListRealizations(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list realizations")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *server) handleMetrics(w http.ResponseWriter, req *http.Request) {
	var body struct {
		DealID string         `json:"deal_id,omitempty"`
		Window synergy.Window `json:"window,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opps, err := s.store.ListOpportunities(req.Context(), store.OpportunityFilter{DealID: body.DealID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list synergies")
		return
	}

	metrics, err := newTracker(s.store).PortfolioMetrics(req.Context(), opps, body.Window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *server) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	s.cachedPipeline(w, req, "analyze", func(input *pipelineInput) (any, error) {
		return newAnalyzer().Analyze(input.Active, input.Historical), nil
	})
}

func (s *server) handlePredict(w http.ResponseWriter, req *http.Request) {
	s.cachedPipeline(w, req, "predict", func(input *pipelineInput) (any, error) {
		velocity := newAnalyzer().Analyze(input.Active, input.Historical)
		params := pipeline.DefaultPredictorParams()
		params.OptimisticClose = cfg.Pipeline.OptimisticClose
		return pipeline.NewPredictor(params).Predict(input.Active, velocity)
	})
}

func (s *server) handleForecast(w http.ResponseWriter, req *http.Request) {
	s.cachedPipeline(w, req, "forecast", func(input *pipelineInput) (any, error) {
		params := pipeline.DefaultForecastParams()
		if cfg.Pipeline.CaseSpread > 0 {
			params.CaseSpread = cfg.Pipeline.CaseSpread
		}
		return pipeline.NewForecaster(params).Forecast(input.Active), nil
	})
}

// cachedPipeline serves a pipeline computation through the fingerprint
// cache: identical request bodies within the TTL get the cached response.
func (s *server) cachedPipeline(w http.ResponseWriter, req *http.Request, op string, compute func(*pipelineInput) (any, error)) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	key := cacheKey(op, body)
	if cached, ok := s.cache.get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	var input pipelineInput
	if err := json.Unmarshal(body, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := compute(&input)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	s.cache.put(key, payload)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
