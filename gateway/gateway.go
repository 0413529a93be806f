// Package gateway wires the signer, throttler, cache, section registry, and
// outbound HTTP client into the single synchronous call spec.md §2's
// data-flow diagram describes: one Invoke per fully-qualified action.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/garrettmk/broccoli/cache"
	"github.com/garrettmk/broccoli/internal/network"
	"github.com/garrettmk/broccoli/kvstore"
	"github.com/garrettmk/broccoli/metrics"
	"github.com/garrettmk/broccoli/schemas"
	"github.com/garrettmk/broccoli/sections"
	"github.com/garrettmk/broccoli/signer"
	"github.com/garrettmk/broccoli/throttler"
	"github.com/garrettmk/broccoli/xmlnorm"
)

// httpClient is the subset of network.ClientFactory Invoke depends on,
// narrowed to an interface so tests can substitute a fake transport without
// standing up a TLS listener.
type httpClient interface {
	Do(ctx context.Context, method, url string, body []byte) ([]byte, int, error)
}

// Gateway holds every collaborator Invoke needs: one instance per set of
// credentials, shared across concurrent callers.
type Gateway struct {
	creds     *schemas.Credentials
	signer    *signer.Signer
	throttler *throttler.Throttler
	cache     *cache.Cache
	sections  sections.Registry
	client    httpClient
	metrics   *metrics.Metrics
	logger    schemas.Logger
}

// Config bundles Invoke's tunables that aren't credentials: how long the
// throttler's pending counter survives a crashed worker, how long an
// outbound call may run, and which Prometheus registry to publish to.
type Config struct {
	PendingTimeout time.Duration
	SoftTimeLimit  time.Duration
	Registry       prometheus.Registerer
	Sections       sections.Registry
}

// New constructs a Gateway. A nil Config.Sections uses
// sections.DefaultRegistry; a nil Config.Registry uses
// prometheus.DefaultRegisterer.
func New(creds *schemas.Credentials, store kvstore.Store, logger schemas.Logger, cfg Config) *Gateway {
	registry := cfg.Sections
	if registry == nil {
		registry = sections.DefaultRegistry
	}
	promRegistry := cfg.Registry
	if promRegistry == nil {
		promRegistry = prometheus.DefaultRegisterer
	}

	return &Gateway{
		creds:     creds,
		signer:    signer.New(creds),
		throttler: throttler.New(store, logger, cfg.PendingTimeout),
		cache:     cache.New(store, logger),
		sections:  registry,
		client:    network.NewClientFactory(cfg.SoftTimeLimit),
		metrics:   metrics.New(promRegistry),
		logger:    logger,
	}
}

// projectors dispatches a successfully-parsed, non-error response body to
// its response shape. Actions absent here fall back to
// sections.ProjectGeneric (spec.md §9: "dynamic attribute dispatch becomes
// an explicit dispatch table").
var projectors = map[string]func(*xmlnorm.Node) any{
	"ListMatchingProducts": func(root *xmlnorm.Node) any {
		return sections.ProjectListMatchingProducts(root)
	},
	"GetCompetitivePricingForASIN": func(root *xmlnorm.Node) any {
		return sections.ProjectCompetitivePricingForASIN(root)
	},
	"GetMyFeesEstimate": func(root *xmlnorm.Node) any {
		return sections.ProjectMyFeesEstimate(root)
	},
	"GetServiceStatus": func(root *xmlnorm.Node) any {
		return sections.ProjectServiceStatus(root)
	},
}

// Invoke runs the 12-step call sequence spec.md §4.4 describes: resolve the
// action, check the cache, acquire a throttle slot, sign and dispatch the
// request, normalize and project the response, and populate the cache. The
// throttle slot it acquired is released when Invoke returns (after the
// cache write), even when ctx is cancelled mid-call (spec.md §5).
func (g *Gateway) Invoke(ctx context.Context, fqAction string, args []any, kwargs map[string]any) (any, error) {
	correlationID := uuid.NewString()
	if g.logger != nil {
		g.logger.Debug(fmt.Sprintf("invoke %s [%s]", fqAction, correlationID))
	}

	section, action, err := g.sections.Lookup(fqAction)
	if err != nil {
		return nil, schemas.NewConfigurationError(err.Error(), nil)
	}

	cacheKey, err := cache.Key(fqAction, args, kwargs)
	if err != nil {
		return nil, schemas.NewConfigurationError("failed to build cache key", err)
	}

	if action.CacheTTL > 0 {
		if raw, ok := g.cache.Get(ctx, cacheKey); ok {
			var result any
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				g.metrics.CacheHits.WithLabelValues(fqAction).Inc()
				return result, nil
			}
		}
		g.metrics.CacheMisses.WithLabelValues(fqAction).Inc()
	}

	priority := extractPriority(kwargs)
	signKwargs := resolveMarketplace(withoutPriority(kwargs))

	waitStart := time.Now()
	handle, err := g.throttler.Acquire(ctx, action.Name, priority, action.RestoreRateAdjust)
	g.metrics.WaitSeconds.WithLabelValues(fqAction).Observe(time.Since(waitStart).Seconds())
	defer func() {
		if relErr := g.throttler.Release(context.Background(), handle); relErr != nil && g.logger != nil {
			g.logger.Error(relErr)
		}
	}()
	if err != nil {
		g.metrics.ErrorsTotal.WithLabelValues(fqAction, string(schemas.ErrorClassThrottle)).Inc()
		return nil, err
	}
	g.metrics.QuotaLevel.WithLabelValues(fqAction).Set(float64(handle.QuotaLevel()))

	params := g.signer.BuildParams(section, action.Name, signKwargs)
	method := "POST"
	host := schemas.ResolveHost(g.creds.Domain)
	if section.Name == sections.ProductAdvertising.Name {
		method = "GET"
		host = schemas.ResolvePAHost(g.creds.Domain)
	}

	url, err := g.signer.BuildURL(method, host, section.URIPath, params)
	if err != nil {
		g.metrics.ErrorsTotal.WithLabelValues(fqAction, string(schemas.ErrorClassConfiguration)).Inc()
		return nil, err
	}

	callStart := time.Now()
	body, _, err := g.client.Do(ctx, method, url, nil)
	g.metrics.CallLatency.WithLabelValues(fqAction).Observe(time.Since(callStart).Seconds())
	g.metrics.CallsTotal.WithLabelValues(fqAction).Inc()
	if err != nil {
		g.metrics.ErrorsTotal.WithLabelValues(fqAction, string(schemas.ErrorClassTransport)).Inc()
		return nil, err
	}

	root, err := xmlnorm.Parse(body)
	if err != nil {
		g.metrics.ErrorsTotal.WithLabelValues(fqAction, string(schemas.ErrorClassParse)).Inc()
		return nil, err
	}

	if code := xmlnorm.ErrorCode(root); code != "" {
		g.metrics.ErrorsTotal.WithLabelValues(fqAction, string(schemas.ErrorClassAmazon)).Inc()
		amzErr := xmlnorm.AsAmazonError(root)
		if amzErr.RequestID == "" {
			amzErr.RequestID = correlationID
		}
		return amzErr.AsJSON(), nil
	}

	project, ok := projectors[action.Name]
	if !ok {
		project = sections.ProjectGeneric
	}
	result := project(root)

	if action.CacheTTL > 0 {
		if raw, err := json.Marshal(result); err == nil {
			g.cache.Set(ctx, cacheKey, string(raw), action.CacheTTL)
		} else if g.logger != nil {
			g.logger.Error(fmt.Errorf("failed to marshal result for cache: %w", err))
		}
	}

	return result, nil
}

// extractPriority pulls a caller-supplied "priority" kwarg, accepting both
// int (from Go callers) and float64 (the shape json.Unmarshal produces for
// a bare number), and clamps it via throttler.ClampPriority. Anything else,
// including a missing key, falls back to priority 0.
func extractPriority(kwargs map[string]any) int {
	v, ok := kwargs["priority"]
	if !ok {
		return throttler.ClampPriority(0, false)
	}
	switch t := v.(type) {
	case int:
		return throttler.ClampPriority(t, true)
	case float64:
		return throttler.ClampPriority(int(t), true)
	default:
		return throttler.ClampPriority(0, false)
	}
}

// withoutPriority copies kwargs with the "priority" key removed, so it
// never leaks into the signed request parameters.
func withoutPriority(kwargs map[string]any) map[string]any {
	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		if k == "priority" {
			continue
		}
		out[k] = v
	}
	return out
}

// resolveMarketplace translates a caller-supplied "marketplace_id" kwarg —
// a two-letter country code or a literal marketplace id — into the
// "MarketplaceId" request parameter Amazon expects (spec.md §8 scenario 2
// and §9's "string-based marketplace/region fallbacks" note).
func resolveMarketplace(kwargs map[string]any) map[string]any {
	raw, ok := kwargs["marketplace_id"]
	if !ok {
		return kwargs
	}
	market, ok := raw.(string)
	if !ok {
		return kwargs
	}
	delete(kwargs, "marketplace_id")
	kwargs["MarketplaceId"] = schemas.ResolveMarketplace(market)
	return kwargs
}
