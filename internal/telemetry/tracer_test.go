package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewProvider_DisabledWithoutEndpoint(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{ServiceName: "coffeebar-test"})
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Enabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{
		ServiceName:    "coffeebar-test",
		ServiceVersion: "v0.0.0",
		Endpoint:       "http://127.0.0.1:4317",
	})
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "recording-check")
	assert.True(t, span.IsRecording())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing listens on the endpoint, so only check that Shutdown returns.
	_ = p.Shutdown(ctx)
}
