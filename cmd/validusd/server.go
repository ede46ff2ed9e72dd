package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/validus/validus-go/dataset"
	"github.com/validus/validus-go/engine"
	"github.com/validus/validus-go/report"
	"github.com/validus/validus-go/ruleset"
	"github.com/validus/validus-go/runtime"
)

type serverOptions struct {
	token     string
	rateLimit int
	rateBurst int
	workers   int
	logger    *slog.Logger
}

type server struct {
	runtime *runtime.ValidationRuntime
	store   runtime.RunStore
	token   string
	limiter *rateLimiter
	logger  *slog.Logger
	workers int
}

func newServer(vr *runtime.ValidationRuntime, store runtime.RunStore, opts serverOptions) *server {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.workers <= 0 {
		opts.workers = 1
	}
	return &server{
		runtime: vr,
		store:   store,
		token:   opts.token,
		limiter: newRateLimiter(opts.rateLimit, opts.rateBurst),
		logger:  logger,
		workers: opts.workers,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /v1/rulesets", s.handleRulesets)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	return s.withMiddleware(mux)
}

// withMiddleware applies rate limiting and bearer auth to the API paths and
// logs every request. Health endpoints stay open for probes.
func (s *server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		if strings.HasPrefix(r.URL.Path, "/v1/") {
			if !s.limiter.Allow(clientKey(r)) {
				writeJSONError(rw, http.StatusTooManyRequests, "rate limit exceeded")
				s.logRequest(r, rw.status, start)
				return
			}
			if s.token != "" && extractToken(r) != s.token {
				writeJSONError(rw, http.StatusUnauthorized, "missing or invalid token")
				s.logRequest(r, rw.status, start)
				return
			}
		}

		next.ServeHTTP(rw, r)
		s.logRequest(r, rw.status, start)
	})
}

func (s *server) logRequest(r *http.Request, status int, start time.Time) {
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"duration", time.Since(start),
	)
}

type validateRequest struct {
	Model   string `json:"model"`
	Ruleset string `json:"ruleset"`
	Rules   string `json:"rules"`
}

type validateResponse struct {
	RunID  string         `json:"run_id,omitempty"`
	Failed bool           `json:"failed"`
	Report *report.Report `json:"report"`
}

// handleValidate runs a named ruleset (persisted) or inline rules
// (ephemeral) against the submitted model document.
func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Model == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	if (req.Ruleset == "") == (req.Rules == "") {
		writeJSONError(w, http.StatusBadRequest, "exactly one of ruleset or rules is required")
		return
	}

	table, err := dataset.LoadYAML([]byte(req.Model))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid model: %v", err))
		return
	}

	if req.Ruleset != "" {
		run, err := s.runtime.Validate(r.Context(), req.Ruleset, table)
		if err != nil {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, validateResponse{
			RunID:  run.ID,
			Failed: run.Failed,
			Report: run.Report,
		})
		return
	}

	rs, err := ruleset.Load([]byte(req.Rules))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid rules: %v", err))
		return
	}
	eng := engine.New(engine.WithWorkers(s.workers))
	rep, err := eng.Run(r.Context(), rs, table)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Failed: rep.Failed(), Report: rep})
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := runtime.RunFilter{
		Ruleset:    r.URL.Query().Get("ruleset"),
		FailedOnly: r.URL.Query().Get("failed") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*runtime.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type rulesetInfo struct {
	Name     string              `json:"name"`
	Version  string              `json:"version,omitempty"`
	Fail     int                 `json:"fail_rules"`
	Warn     int                 `json:"warn_rules"`
	LoadedAt time.Time           `json:"loaded_at"`
	Commit   *runtime.CommitInfo `json:"commit,omitempty"`
}

func (s *server) handleRulesets(w http.ResponseWriter, r *http.Request) {
	stored := s.runtime.Rulesets()
	infos := make([]rulesetInfo, 0, len(stored))
	for _, st := range stored {
		infos = append(infos, rulesetInfo{
			Name:     st.Ruleset.Name,
			Version:  st.Ruleset.Version,
			Fail:     len(st.Ruleset.Fail),
			Warn:     len(st.Ruleset.Warn),
			LoadedAt: st.LoadedAt,
			Commit:   st.Commit,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rulesets": infos})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	state := s.runtime.State()
	if state != runtime.StateReady && state != runtime.StateValidating {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": string(state)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// rateLimiter is a per-client token bucket. A nil limiter admits everything.
type rateLimiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	bucket map[string]*rateBucket
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(requestsPerMinute, burst int) *rateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &rateLimiter{
		rate:   float64(requestsPerMinute) / 60.0,
		burst:  float64(burst),
		bucket: make(map[string]*rateBucket),
	}
}

func (rl *rateLimiter) Allow(key string) bool {
	if rl == nil {
		return true
	}
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.bucket[key]
	if !ok {
		rl.bucket[key] = &rateBucket{tokens: rl.burst - 1, last: now}
		return true
	}
	elapsed := now.Sub(bucket.last).Seconds()
	bucket.tokens = min(rl.burst, bucket.tokens+elapsed*rl.rate)
	bucket.last = now
	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}
	return false
}
