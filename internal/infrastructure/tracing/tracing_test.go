package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer_UnknownExporter(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{ServiceName: "lobby", Exporter: "zipkin"})
	assert.Nil(t, shutdown)
	assert.ErrorContains(t, err, "zipkin")
}

func TestInitTracer_OTLP(t *testing.T) {
	// the exporter connects lazily, so no collector is needed here
	shutdown, err := InitTracer(context.Background(), Config{
		ServiceName: "lobby",
		Environment: "test",
		Exporter:    ExporterOTLP,
		Endpoint:    "http://127.0.0.1:4318/v1/traces",
	})
	require.NoError(t, err)

	_, span := GetTracer("lobby/test").Start(context.Background(), "noop")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
