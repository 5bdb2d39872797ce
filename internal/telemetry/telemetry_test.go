package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"git.sr.ht/~jakintosh/loginhandler/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "test", telemetry.Options{Enabled: true})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := telemetry.Setup(context.Background(), "test", telemetry.Options{
		Endpoint: "http://localhost:4318",
		Enabled:  false,
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_NoopShutdownIgnoresCancelledContext(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "test", telemetry.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_RegistersProviderWhenEndpointSet(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// non-routable, nothing is exported before shutdown
	shutdown, err := telemetry.Setup(context.Background(), "test", telemetry.Options{
		Endpoint: "http://192.0.2.1:4318",
		Enabled:  true,
	})
	require.NoError(t, err)
	require.NotEqual(t, before, otel.GetTracerProvider())

	// no spans were recorded, so the flush has nothing to send
	require.NoError(t, shutdown(context.Background()))
}
