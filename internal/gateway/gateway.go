package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const jsonContentType = "application/json"

// Gateway validates client requests and relays them to the server tier.
type Gateway struct {
	client   *Client
	cache    domain.ResponseCache
	cacheTTL time.Duration
	limiter  *userLimiter
	engine   *gin.Engine
	server   *http.Server
	log      zerolog.Logger
}

// New builds the router. A zero cache TTL disables response caching and cache may then be nil.
func New(cfg config.GatewayConfig, client *Client, cache domain.ResponseCache, logger *zerolog.Logger) *Gateway {
	registerValidators()

	g := &Gateway{
		client:   client,
		cacheTTL: cfg.CacheTTL,
		limiter:  newUserLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		log:      zerolog.Nop(),
	}
	if cfg.CacheTTL > 0 {
		g.cache = cache
	}
	if logger != nil {
		g.log = logger.With().Str("component", "gateway").Logger()
	}

	r := gin.New()
	r.Use(requestID(), g.requestLogger(), gin.CustomRecovery(g.recoverPanic), g.rateLimit())
	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "NotFoundError", "route not found")
	})
	g.routes(r)
	g.engine = r

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}
	return g
}

func (g *Gateway) routes(r *gin.Engine) {
	r.POST("/users", bindBody[userCreateRequest](), g.forward)
	r.GET("/users", g.forward)
	r.GET("/users/:id", requireID(), g.forward)
	r.PATCH("/users/:id", requireID(), bindBody[userPatchRequest](), g.forward)
	r.DELETE("/users/:id", requireID(), g.forward)

	items := r.Group("/items", requireUser())
	items.POST("", bindBody[itemCreateRequest](), g.forward)
	items.GET("", requirePage(), g.forward)
	items.GET("/search", requirePage(), g.forward)
	items.GET("/:id", requireID(), g.forward)
	items.PATCH("/:id", requireID(), bindBody[itemPatchRequest](), g.forward)
	items.DELETE("/:id", requireID(), g.forward)
	items.POST("/:id/comment", requireID(), bindBody[commentRequest](), g.forward)

	bookings := r.Group("/bookings", requireUser())
	bookings.POST("", bindBody[bookingCreateRequest](), g.forward)
	bookings.PATCH("/:id", requireID(), requireApproved(), g.forward)
	bookings.GET("/:id", requireID(), g.forward)
	bookings.GET("", requirePage(), requireState(), g.forward)
	bookings.GET("/owner", requirePage(), requireState(), g.forward)

	requests := r.Group("/requests", requireUser())
	requests.POST("", bindBody[itemRequestCreateRequest](), g.forward)
	requests.GET("", g.forward)
	requests.GET("/all", requirePage(), g.forward)
	requests.GET("/:id", requireID(), g.forward)
}

func (g *Gateway) Handler() http.Handler {
	return g.engine
}

// Serve accepts connections on lis until Shutdown.
func (g *Gateway) Serve(lis net.Listener) error {
	g.log.Info().Str("addr", lis.Addr().String()).Msg("gateway listening")
	if err := g.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Start() error {
	lis, err := net.Listen("tcp", g.server.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen %s: %w", g.server.Addr, err)
	}
	return g.Serve(lis)
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func (g *Gateway) recoverPanic(c *gin.Context, rec any) {
	g.log.Error().Interface("panic", rec).Str("path", c.Request.URL.Path).Msg("gateway handler panic")
	abortWithError(c, http.StatusInternalServerError, "InternalError", "internal server error")
}

// forward relays the request and its server answer. Successful GETs are cached under
// the current generation; successful mutations advance it.
func (g *Gateway) forward(c *gin.Context) {
	ctx := c.Request.Context()
	req := Request{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		RawQuery:  c.Request.URL.RawQuery,
		UserID:    strings.TrimSpace(c.GetHeader(models.HeaderUserID)),
		RequestID: c.GetString(requestIDKey),
	}
	if raw, ok := c.Get(bodyKey); ok {
		req.Body = raw.([]byte)
	}

	var key string
	cacheable := req.Method == http.MethodGet && g.cache != nil
	if cacheable {
		key, cacheable = g.cacheKey(ctx, req)
	}
	if cacheable {
		if body, ok := g.cacheGet(ctx, key); ok {
			c.Data(http.StatusOK, jsonContentType, body)
			return
		}
	}

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		metrics.IncUpstreamError()
		g.log.Error().Err(err).Str("request_id", req.RequestID).Str("path", req.Path).Msg("upstream request failed")
		abortWithError(c, http.StatusBadGateway, "BadGateway", "server is unavailable")
		return
	}

	switch {
	case cacheable && resp.StatusCode == http.StatusOK:
		if err := g.cache.Set(ctx, key, resp.Body, g.cacheTTL); err != nil {
			g.log.Warn().Err(err).Msg("cache store failed")
		}
	case req.Method != http.MethodGet && resp.StatusCode < http.StatusBadRequest:
		g.invalidate(ctx)
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = jsonContentType
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
}

func (g *Gateway) cacheKey(ctx context.Context, req Request) (string, bool) {
	gen, err := g.cache.Generation(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("cache generation unavailable")
		return "", false
	}
	target := req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}
	return fmt.Sprintf("%d:%s:%s", gen, req.UserID, target), true
}

func (g *Gateway) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.log.Warn().Err(err).Msg("cache lookup failed")
		return nil, false
	}
	metrics.IncCache(ok)
	return body, ok
}

func (g *Gateway) invalidate(ctx context.Context) {
	if g.cache == nil {
		return
	}
	if _, err := g.cache.Bump(ctx); err != nil {
		g.log.Error().Err(err).Msg("cache invalidation failed")
	}
}
