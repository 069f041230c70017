package courier_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/pkg/courier"
	"github.com/wasel/courierhub/pkg/courier/mock"
)

// simFactory builds simulation provider instances and counts constructions.
func simFactory(constructed *int) courier.Factory {
	logger := otelzap.New(zap.NewNop())
	return func(cfg courier.Config) (courier.Courier, error) {
		if constructed != nil {
			*constructed++
		}
		return mock.New(cfg, logger, nil), nil
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register("MOCK", courier.Config{}, simFactory(nil))

	got, err := registry.Get("MOCK")
	require.NoError(t, err)
	assert.Equal(t, "MOCK", got.ProviderName())
}

func TestRegistry_Get_Idempotent(t *testing.T) {
	registry := courier.NewRegistry()

	constructed := 0
	registry.Register("MOCK", courier.Config{}, simFactory(&constructed))

	first, err := registry.Get("MOCK")
	require.NoError(t, err)
	second, err := registry.Get("MOCK")
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated Get should return the cached instance")
	assert.Equal(t, 1, constructed)
}

func TestRegistry_Get_CaseInsensitive(t *testing.T) {
	registry := courier.NewRegistry()

	constructed := 0
	registry.Register("MOCK", courier.Config{}, simFactory(&constructed))

	first, err := registry.Get("mock")
	require.NoError(t, err)
	second, err := registry.Get("  Mock  ")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, constructed)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register("MOCK", courier.Config{}, simFactory(nil))

	_, err := registry.Get("DHL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, courier.ErrProviderNotFound))
	assert.Contains(t, err.Error(), "MOCK", "error should list what is registered")
}

func TestRegistry_Get_FactoryError(t *testing.T) {
	registry := courier.NewRegistry()

	boom := errors.New("bad credentials")
	calls := 0
	registry.Register("SMSA", courier.Config{}, func(cfg courier.Config) (courier.Courier, error) {
		calls++
		return nil, boom
	})

	_, err := registry.Get("SMSA")
	assert.True(t, errors.Is(err, boom))

	// Failed constructions are not cached.
	_, err = registry.Get("SMSA")
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 2, calls)
}

func TestRegistry_Register_Override(t *testing.T) {
	registry := courier.NewRegistry()

	registry.Register("MOCK", courier.Config{}, simFactory(nil))
	first, err := registry.Get("MOCK")
	require.NoError(t, err)

	// Re-registering drops the cached instance.
	registry.Register("MOCK", courier.Config{}, simFactory(nil))
	assert.Equal(t, 1, registry.Count())

	second, err := registry.Get("MOCK")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestRegistry_GetWithConfig(t *testing.T) {
	registry := courier.NewRegistry()

	constructed := 0
	registry.Register("MOCK", courier.Config{}, simFactory(&constructed))

	cached, err := registry.Get("MOCK")
	require.NoError(t, err)

	fresh, err := registry.GetWithConfig("MOCK", courier.Config{APIKey: "other"})
	require.NoError(t, err)
	assert.NotSame(t, cached, fresh)
	assert.Equal(t, 2, constructed)

	// The fresh instance replaces the cache entry.
	again, err := registry.Get("MOCK")
	require.NoError(t, err)
	assert.Same(t, fresh, again)
}

func TestRegistry_GetWithConfig_NotFound(t *testing.T) {
	registry := courier.NewRegistry()

	_, err := registry.GetWithConfig("DHL", courier.Config{})
	assert.True(t, errors.Is(err, courier.ErrProviderNotFound))
}

func TestRegistry_Providers_Sorted(t *testing.T) {
	registry := courier.NewRegistry()

	registry.Register("SMSA", courier.Config{}, simFactory(nil))
	registry.Register("MOCK", courier.Config{}, simFactory(nil))
	registry.Register("ARAMEX", courier.Config{}, simFactory(nil))

	assert.Equal(t, []string{"ARAMEX", "MOCK", "SMSA"}, registry.Providers())
}

func TestRegistry_Count(t *testing.T) {
	registry := courier.NewRegistry()
	assert.Equal(t, 0, registry.Count())

	registry.Register("MOCK", courier.Config{}, simFactory(nil))
	assert.Equal(t, 1, registry.Count())

	registry.Register("SMSA", courier.Config{}, simFactory(nil))
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_BestCourier(t *testing.T) {
	tests := []struct {
		name        string
		providers   []string
		origin      string
		destination string
		want        string
	}{
		{"domestic SA routes to SMSA", []string{"SMSA", "MOCK", "ARAMEX"}, "SA", "SA", "SMSA"},
		{"domestic SA lowercase", []string{"SMSA", "MOCK"}, " sa ", "sa", "SMSA"},
		{"domestic SA without SMSA falls back to MOCK", []string{"MOCK", "ARAMEX"}, "SA", "SA", "MOCK"},
		{"international prefers MOCK", []string{"SMSA", "MOCK"}, "US", "GB", "MOCK"},
		{"no MOCK picks first sorted", []string{"SMSA", "ARAMEX"}, "US", "GB", "ARAMEX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := courier.NewRegistry()
			for _, name := range tt.providers {
				registry.Register(name, courier.Config{}, simFactory(nil))
			}

			got, err := registry.BestCourier(tt.origin, tt.destination, 5, courier.PriorityStandard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_BestCourier_Empty(t *testing.T) {
	registry := courier.NewRegistry()

	_, err := registry.BestCourier("SA", "SA", 5, courier.PriorityStandard)
	assert.True(t, errors.Is(err, courier.ErrNoProviders))
}

func TestRegistry_SupportsFeature(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register("MOCK", courier.Config{}, simFactory(nil))

	assert.True(t, registry.SupportsFeature("MOCK", courier.FeatureTracking))
	assert.False(t, registry.SupportsFeature("MOCK", courier.Feature("teleportation")))
	assert.False(t, registry.SupportsFeature("DHL", courier.FeatureTracking), "unknown provider reads as false")
}

func TestRegistry_SupportsFeature_FactoryError(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register("SMSA", courier.Config{}, func(cfg courier.Config) (courier.Courier, error) {
		return nil, errors.New("bad credentials")
	})

	assert.False(t, registry.SupportsFeature("SMSA", courier.FeatureTracking))
}
