package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/terminally-online/typewriter/internal/apperr"
)

const (
	procedurePrefix = "/trpc/"
	maxBodyBytes    = 1 << 20
)

type HealthResponse struct {
	Status    string `json:"status"`
	CacheSize int    `json:"cacheSize"`
	Database  string `json:"database"`
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	router  *Router
	cache   *QueryCache
	db      Pinger
	timeout time.Duration
	log     *zap.Logger
}

func NewHandler(router *Router, cache *QueryCache, db Pinger, timeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		router:  router,
		cache:   cache,
		db:      db,
		timeout: timeout,
		log:     logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health":
		h.handleHealth(w, r)
	case strings.HasPrefix(r.URL.Path, procedurePrefix):
		h.handleProcedure(w, r, strings.TrimPrefix(r.URL.Path, procedurePrefix))
	default:
		writeError(w, apperr.NotFound("no such endpoint"))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, apperr.New(apperr.CodeMethodNotSupported, "method not allowed"))
		return
	}

	resp := HealthResponse{
		Status:    "ok",
		CacheSize: h.cache.Size(),
		Database:  "ok",
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleProcedure(w http.ResponseWriter, r *http.Request, name string) {
	proc, ok := h.router.lookup(name)
	if !ok {
		writeError(w, apperr.NotFound(fmt.Sprintf("no procedure %q", name)))
		return
	}

	input, err := readInput(r, proc.kind)
	if err != nil {
		writeError(w, err)
		return
	}

	var (
		cacheKey string
		cacheGen uint64
	)
	if proc.kind == kindQuery {
		cacheKey = h.cache.Key(name, input)
		if cached, ok := h.cache.Get(cacheKey); ok {
			w.Header().Set("X-Cache", "HIT")
			writeData(w, cached)
			return
		}
		cacheGen = h.cache.Generation()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	result, err := proc.call(ctx, input)
	if err != nil {
		h.logFailure(name, err, time.Since(start))
		writeError(w, err)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		h.logFailure(name, err, time.Since(start))
		writeError(w, apperr.Internal("failed to encode result", err))
		return
	}

	if proc.kind == kindQuery {
		h.cache.SetIfCurrent(cacheKey, data, cacheGen)
		w.Header().Set("X-Cache", "MISS")
	} else {
		h.cache.Clear()
	}

	writeData(w, data)
}

func (h *Handler) logFailure(name string, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("procedure", name),
		zap.String("code", string(apperr.CodeOf(err))),
		zap.Duration("duration", elapsed),
		zap.Error(err),
	}
	if apperr.CodeOf(err) == apperr.CodeInternal {
		h.log.Error("procedure failed", fields...)
		return
	}
	h.log.Debug("procedure rejected", fields...)
}

// readInput returns the raw JSON input of a call: the "input" query parameter
// for GET queries, the request body otherwise.
func readInput(r *http.Request, kind procedureKind) (json.RawMessage, error) {
	switch r.Method {
	case http.MethodGet:
		if kind != kindQuery {
			return nil, apperr.New(apperr.CodeMethodNotSupported, "mutations must use POST")
		}
		if raw := r.URL.Query().Get("input"); raw != "" {
			return json.RawMessage(raw), nil
		}
		return nil, nil
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			return nil, apperr.BadRequest("failed to read request body", err)
		}
		if len(body) > maxBodyBytes {
			return nil, apperr.BadRequest("request body too large", nil)
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, nil
		}
		return json.RawMessage(body), nil
	default:
		return nil, apperr.New(apperr.CodeMethodNotSupported, "method not allowed")
	}
}
