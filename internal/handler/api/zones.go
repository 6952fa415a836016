package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	models "Epoch/internal/domain/models"
	icache "Epoch/internal/service/cache"
	"Epoch/internal/service/metrics"
	"Epoch/internal/service/ratelimit"
	"Epoch/internal/usecase"
	xhttp "Epoch/pkg/http"
	applogger "Epoch/pkg/logger"
)

// ZonesHandler is the plain net/http surface for dashboards that bypass
// the Echo server, with response caching and per-client rate limiting.
type ZonesHandler struct {
	dash  *usecase.DashboardUseCase
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewZonesHandler(dash *usecase.DashboardUseCase) *ZonesHandler {
	metrics.Register()
	return &ZonesHandler{dash: dash, rl: ratelimit.New()}
}

func (h *ZonesHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *ZonesHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *ZonesHandler) Zones() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "zones"
		defer func() { metrics.DashboardLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		ticker := r.URL.Query().Get("ticker")
		if ticker == "" {
			if h.l != nil {
				h.l.Warn("zones missing ticker")
			}
			http.Error(w, "ticker required", http.StatusBadRequest)
			return
		}
		tier := r.URL.Query().Get("tier")
		limit := xhttp.ParseIntDefault(r.URL.Query().Get("limit"), 10)
		if !h.rl.Allow(r.RemoteAddr+":zones", 5, 2) {
			if h.l != nil {
				h.l.Warn("zones rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "zones:" + ticker + ":" + tier
		if b, ok := h.cached(cacheKey, endpoint); ok {
			h.write(w, endpoint, b)
			return
		}
		res, err := h.dash.LatestZones(r.Context(), ticker, tier, limit)
		if err != nil {
			metrics.DashboardErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("zones error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respond(w, endpoint, cacheKey, models.NewZonePayloads(res), 30*time.Second)
	}
}

func (h *ZonesHandler) Setups() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "setups"
		defer func() { metrics.DashboardLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		ticker := r.URL.Query().Get("ticker")
		if ticker == "" {
			if h.l != nil {
				h.l.Warn("setups missing ticker")
			}
			http.Error(w, "ticker required", http.StatusBadRequest)
			return
		}
		kind := r.URL.Query().Get("kind")
		if !h.rl.Allow(r.RemoteAddr+":setups", 5, 2) {
			if h.l != nil {
				h.l.Warn("setups rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "setups:" + ticker + ":" + kind
		if b, ok := h.cached(cacheKey, endpoint); ok {
			h.write(w, endpoint, b)
			return
		}
		res, err := h.dash.LatestSetups(r.Context(), ticker, kind)
		if err != nil {
			metrics.DashboardErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("setups error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respond(w, endpoint, cacheKey, models.NewSetupPayloads(res), 30*time.Second)
	}
}

func (h *ZonesHandler) Edge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "edge"
		defer func() { metrics.DashboardLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		ticker := r.URL.Query().Get("ticker")
		if ticker == "" {
			if h.l != nil {
				h.l.Warn("edge missing ticker")
			}
			http.Error(w, "ticker required", http.StatusBadRequest)
			return
		}
		window := xhttp.ParseIntDefault(r.URL.Query().Get("window"), 50)
		if !h.rl.Allow(r.RemoteAddr+":edge", 3, 1) {
			if h.l != nil {
				h.l.Warn("edge rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "edge:" + ticker + ":" + strconv.Itoa(window)
		if b, ok := h.cached(cacheKey, endpoint); ok {
			h.write(w, endpoint, b)
			return
		}
		res, err := h.dash.Edge(r.Context(), ticker, window)
		if err != nil {
			metrics.DashboardErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("edge error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respond(w, endpoint, cacheKey, models.NewEdgeStatPayloads(res), 60*time.Second)
	}
}

func (h *ZonesHandler) cached(key, endpoint string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.l != nil {
			h.l.Warn(endpoint+" cache_get_error", applogger.Error(err))
		}
		return nil, false
	}
	if ok && h.l != nil {
		h.l.Debug(endpoint+" cache_hit", applogger.String("key", key))
	}
	return b, ok
}

func (h *ZonesHandler) respond(w http.ResponseWriter, endpoint, cacheKey string, res interface{}, ttl time.Duration) {
	b, err := json.Marshal(res)
	if err != nil {
		if h.l != nil {
			h.l.Error(endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(cacheKey, b, ttl); err != nil && h.l != nil {
			h.l.Warn(endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	h.write(w, endpoint, b)
}

func (h *ZonesHandler) write(w http.ResponseWriter, endpoint string, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
}
