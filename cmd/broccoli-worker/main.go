// Command broccoli-worker is a minimal end-to-end wiring example: it loads
// credentials and Redis connection settings from the environment, builds a
// gateway.Gateway, exposes it on a couple of sample calls, and serves
// Prometheus metrics until interrupted. It is not a task queue worker — it
// exists to demonstrate config.Load through gateway.Invoke in one process,
// the way original_source/worker/worker.py demonstrated the same wiring for
// the Celery app it replaces.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/garrettmk/broccoli/config"
	"github.com/garrettmk/broccoli/gateway"
	"github.com/garrettmk/broccoli/kvstore"
	"github.com/garrettmk/broccoli/schemas"
)

var (
	envFile     string
	metricsAddr string
)

func init() {
	flag.StringVar(&envFile, "env-file", "", "Optional .env file to load before reading MWS_*/REDIS_* variables")
	flag.StringVar(&metricsAddr, "metrics-addr", ":9090", "Address to serve /metrics on")
	flag.Parse()
}

// registerCollectorSafely registers a Prometheus collector, tolerating the
// case where a prior broccoli-worker instance already registered it against
// the same default registry.
func registerCollectorSafely(collector prometheus.Collector) {
	if err := prometheus.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			log.Printf("failed to register collector: %v", err)
		}
	}
}

func main() {
	logger := schemas.NewDefaultLogger(schemas.LogLevelInfo)

	cfg, err := config.Load(envFile)
	if err != nil {
		logger.Fatal("failed to load configuration", err)
	}

	store, err := kvstore.NewRedisStore(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", err)
	}
	defer store.Close()

	registerCollectorSafely(collectors.NewGoCollector())
	registerCollectorSafely(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gw := gateway.New(&cfg.Credentials, store, logger, gateway.Config{
		PendingTimeout: cfg.PendingTTL,
		SoftTimeLimit:  cfg.SoftTimeLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sampleInvocations(ctx, gw, logger)

	r := fasthttp.RequestHandler(func(reqCtx *fasthttp.RequestCtx) {
		if string(reqCtx.Path()) == "/metrics" {
			fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(reqCtx)
			return
		}
		reqCtx.SetStatusCode(fasthttp.StatusNotFound)
	})

	server := &fasthttp.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error(err)
		}
	}()

	logger.Info("broccoli-worker listening on " + metricsAddr)
	if err := server.ListenAndServe(metricsAddr); err != nil {
		logger.Fatal("metrics server stopped", err)
	}
}

// sampleInvocations demonstrates the gateway against two representative
// actions, one from each section, so a fresh deployment has something to
// look at in the logs and on /metrics before any real caller shows up.
func sampleInvocations(ctx context.Context, gw *gateway.Gateway, logger schemas.Logger) {
	status, err := gw.Invoke(ctx, "products.GetServiceStatus", nil, map[string]any{})
	if err != nil {
		logger.Error(err)
	} else {
		logger.Info("products.GetServiceStatus returned a response")
		_ = status
	}

	_, err = gw.Invoke(ctx, "products.ListMatchingProducts", nil, map[string]any{
		"marketplace_id": "US",
		"Query":          "example",
	})
	if err != nil {
		logger.Error(err)
	} else {
		logger.Info("products.ListMatchingProducts returned a response")
	}
}
