package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/perimeterhq/perimeter/pkg/api"
	"github.com/perimeterhq/perimeter/pkg/auth"
	"github.com/perimeterhq/perimeter/pkg/config"
	"github.com/perimeterhq/perimeter/pkg/directory"
	"github.com/perimeterhq/perimeter/pkg/observability"
	"github.com/perimeterhq/perimeter/pkg/policy"
	"github.com/perimeterhq/perimeter/pkg/ratelimit"
	"github.com/perimeterhq/perimeter/pkg/storage"
)

// noPolicyService denies every lookup when no policy service is configured.
// The evaluator treats lookup errors as not granted, so routes with
// requirements stay closed instead of silently opening up.
type noPolicyService struct{}

func (noPolicyService) HasPermission(context.Context, string, string) (bool, error) {
	return false, errors.New("no policy service configured")
}

func (noPolicyService) HasRole(context.Context, string, string) (bool, error) {
	return false, errors.New("no policy service configured")
}

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.Observability.LogLevel), os.Stdout)

	store, err := storage.NewClient(cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer store.Close()

	var registry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	codec := auth.NewCodec([]byte(cfg.Auth.Secret), cfg.Auth.Issuer)
	tokens := auth.NewManager(codec, store, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, logger, metrics)
	limiter := ratelimit.NewLimiter(store, logger, metrics)

	var policyClient policy.Client
	if cfg.Policy.BaseURL != "" {
		policyClient = policy.NewHTTPClient(cfg.Policy.BaseURL, cfg.Policy.Timeout)
	} else {
		log.Warn("no policy service configured, routes with requirements will deny")
		policyClient = noPolicyService{}
	}
	evaluator := policy.NewEvaluator(policyClient, logger, metrics)

	var users directory.Service
	if cfg.Directory.BaseURL != "" {
		users = directory.NewHTTPClient(cfg.Directory.BaseURL, cfg.Directory.Timeout)
	} else {
		mem := directory.NewInMemory()
		seedDevLogin(mem)
		users = mem
	}

	server := api.NewServer(cfg, api.Dependencies{
		Tokens:    tokens,
		Users:     users,
		Evaluator: evaluator,
		Limiter:   limiter,
		Store:     store,
		Logger:    logger,
		Metrics:   metrics,
		Registry:  registry,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown did not complete cleanly")
	}
}

// seedDevLogin registers a development login from PERIMETER_DEV_LOGIN,
// formatted tenant/username/password
func seedDevLogin(mem *directory.InMemory) {
	seed := os.Getenv("PERIMETER_DEV_LOGIN")
	if seed == "" {
		return
	}
	parts := strings.SplitN(seed, "/", 3)
	if len(parts) != 3 {
		log.Warn("PERIMETER_DEV_LOGIN must be tenant/username/password")
		return
	}
	if _, err := mem.Add(parts[0], parts[1], parts[2]); err != nil {
		log.WithError(err).Warn("failed to seed development login")
		return
	}
	log.WithField("tenant", parts[0]).Info("seeded development login")
}
