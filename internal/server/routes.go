package server

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// RenderRatePerMin is the sustained number of renders admitted per minute.
	RenderRatePerMin float64
	// RenderBurst is the number of renders admitted at once.
	RenderBurst int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:   []string{"*"},
		RenderRatePerMin: 30,
		RenderBurst:      5,
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Renders hold the engine; admission is rate limited.
	limit := RateLimitMiddleware(newRenderLimiter(cfg))

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /variants", h.ListVariants)
	mux.Handle("POST /render", limit(http.HandlerFunc(h.Render)))
	mux.HandleFunc("POST /timeline", h.Timeline)
	mux.HandleFunc("GET /renders", h.ListRenders)
	mux.HandleFunc("GET /renders/{id}", h.GetRender)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}

func newRenderLimiter(cfg Config) *rate.Limiter {
	perMin := cfg.RenderRatePerMin
	if perMin <= 0 {
		perMin = DefaultConfig().RenderRatePerMin
	}
	burst := cfg.RenderBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perMin/60), burst)
}
