package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitDisabledInstallsNoopProviders(t *testing.T) {
	for _, cfg := range []Config{
		{Enabled: false, Endpoint: "collector:4317"},
		{Enabled: true},
	} {
		shutdown, err := Init(context.Background(), cfg)
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(context.Background()))

		_, span := otel.Tracer("test").Start(context.Background(), "op")
		assert.False(t, span.SpanContext().IsValid())
		span.End()
	}
}
