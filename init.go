package main

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"

	"github.com/wasel/courierhub/internal/config"
	"github.com/wasel/courierhub/internal/storage/simredis"
	"github.com/wasel/courierhub/internal/telemetry"
	"github.com/wasel/courierhub/pkg/courier"
	"github.com/wasel/courierhub/pkg/courier/aramex"
	"github.com/wasel/courierhub/pkg/courier/mock"
	"github.com/wasel/courierhub/pkg/courier/smsa"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level, format string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level, format)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Attributes())
}

// initRegistry registers every enabled provider. Construction is lazy, so a
// misconfigured provider surfaces on first use rather than at startup.
func initRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *courier.Registry {
	registry := courier.NewRegistry()

	if cfg.SMSAEnabled {
		registry.Register(courier.ProviderSMSA, courier.Config{
			APIKey:  cfg.SMSAPassKey,
			BaseURL: cfg.SMSABaseURL,
			Extra:   map[string]any{"use_mock": cfg.SMSAUseMock},
		}, func(c courier.Config) (courier.Courier, error) {
			return smsa.New(c, logger, tracer)
		})
	}

	if cfg.AramexEnabled {
		registry.Register(courier.ProviderAramex, courier.Config{
			APIKey:  cfg.AramexAPIKey,
			BaseURL: cfg.AramexBaseURL,
			Extra:   map[string]any{"use_mock": cfg.AramexUseMock},
		}, func(c courier.Config) (courier.Courier, error) {
			return aramex.New(c, logger, tracer)
		})
	}

	if cfg.MockEnabled {
		store := initSimStore(cfg)
		registry.Register(courier.ProviderMock, courier.Config{},
			func(c courier.Config) (courier.Courier, error) {
				return mock.NewWithStore(c, store, logger, tracer), nil
			})
	}

	return registry
}

func initSimStore(cfg *config.Config) mock.Store {
	if cfg.SimStore == config.SimStoreRedis {
		return simredis.New(simredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return mock.NewMemoryStore()
}

// initSmokeRegistry builds a registry where every provider runs against its
// simulated transport, so a smoke pass never books a real shipment.
func initSmokeRegistry(logger *otelzap.Logger) *courier.Registry {
	registry := courier.NewRegistry()

	registry.Register(courier.ProviderSMSA, courier.Config{
		APIKey:  "smoke",
		BaseURL: smsa.DefaultEndpoint,
		Extra:   map[string]any{"use_mock": true},
	}, func(c courier.Config) (courier.Courier, error) {
		return smsa.New(c, logger, nil)
	})

	registry.Register(courier.ProviderAramex, courier.Config{
		APIKey:  "smoke",
		BaseURL: "https://api.aramex.com/v2",
		Extra:   map[string]any{"use_mock": true},
	}, func(c courier.Config) (courier.Courier, error) {
		return aramex.New(c, logger, nil)
	})

	registry.Register(courier.ProviderMock, courier.Config{},
		func(c courier.Config) (courier.Courier, error) {
			return mock.New(c, logger, nil), nil
		})

	return registry
}
