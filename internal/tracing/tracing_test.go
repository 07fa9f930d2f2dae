package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/RajshekharX12/as/internal/tracing/config"
)

func TestInitDisabled(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(config.Config{}, &buf)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Zero(t, buf.Len())
}

func TestInitExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(config.Config{Enabled: true, ServiceName: "autobuyer", Environment: "test"}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "scheduler.iteration")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, buf.String(), "scheduler.iteration")
	require.Contains(t, buf.String(), "autobuyer")
}
