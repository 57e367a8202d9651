package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/clout/internal/adapters/http/api"
	"github.com/okian/clout/internal/adapters/http/swagger"
	service "github.com/okian/clout/internal/app"
	"github.com/okian/clout/internal/config"
	"github.com/okian/clout/pkg/logger"
	"github.com/okian/clout/pkg/metrics"
)

func init() {
	_ = logger.Init()
}

func setenv(kv map[string]string) func() {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range kv {
			_ = os.Unsetenv(k)
		}
	}
}

func newTestService(ctx context.Context) (*service.Service, *config.Config, func()) {
	cfg, err := config.Load(ctx)
	convey.So(err, convey.ShouldBeNil)
	deps, cleanup, err := service.Wire(ctx, cfg)
	convey.So(err, convey.ShouldBeNil)
	svc := service.New(deps.Store, deps.Engine, deps.Tokens,
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithLogger(logger.Nop()),
	)
	return svc, cfg, cleanup
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		defer setenv(map[string]string{
			"CLOUT_ADDR":         ":8080",
			"CLOUT_QUEUE_SIZE":   "500",
			"CLOUT_WORKER_COUNT": "4",
			"CLOUT_CORS_ORIGINS": "https://clout.example,https://admin.clout.example",
		})()

		convey.Convey("When testing configuration loading", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
		})

		convey.Convey("When wiring the in-memory stack", func() {
			ctx := context.Background()
			svc, cfg, cleanup := newTestService(ctx)
			defer cleanup()

			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc, api.WithMaxPageLimit(cfg.MaxPageLimit)).Register(ctx, mux)
			handler := corsHandler(cfg.CORSOrigins).Handler(mux)

			convey.Convey("Then the API answers through the CORS layer", func() {
				req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
				req.Header.Set("Origin", "https://clout.example")
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://clout.example")
			})

			convey.Convey("And preflights allow the CSRF header", func() {
				req := httptest.NewRequest(http.MethodOptions, "/picks", http.NoBody)
				req.Header.Set("Origin", "https://clout.example")
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				// Browsers send the requested header names lowercased.
				req.Header.Set("Access-Control-Request-Headers", strings.ToLower(api.CSRFHeader))
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldBeLessThan, 300)
				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://clout.example")
			})

			convey.Convey("And every configured origin is allowed", func() {
				req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
				req.Header.Set("Origin", "https://admin.clout.example")
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://admin.clout.example")
			})

			convey.Convey("And unknown origins get no CORS headers", func() {
				req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
				req.Header.Set("Origin", "https://evil.example")
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldBeEmpty)
			})

			convey.Convey("And the docs are served", func() {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		ctx := context.Background()
		svc, _, cleanup := newTestService(ctx)
		defer cleanup()

		convey.Convey("When the metrics updaters run until their context ends", func() {
			tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(tctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(tctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			convey.So(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry())), convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given invalid configuration", t, func() {
		convey.Convey("An empty addr fails to load", func() {
			defer setenv(map[string]string{"CLOUT_ADDR": ""})()
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("The postgres store needs a database url", func() {
			defer setenv(map[string]string{"CLOUT_STORE": "postgres"})()
			_, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
