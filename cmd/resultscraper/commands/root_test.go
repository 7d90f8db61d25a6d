package commands

import (
	"context"
	"sync"
	"testing"

	"resultscraper/internal/components/telemetry"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type spanCounter struct {
	mutex sync.Mutex
	spans int
}

func (c *spanCounter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.spans += len(spans)
	return nil
}

func (c *spanCounter) Shutdown(context.Context) error {
	return nil
}

func (c *spanCounter) count() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.spans
}

func TestExitFlushesTelemetry(t *testing.T) {
	counter := &spanCounter{}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(counter))

	previousExporter, previousExit := exporter, osExit
	exporter = telemetry.Telemetry{TracerProvider: provider}
	var code int
	osExit = func(c int) { code = c }
	t.Cleanup(func() {
		exporter = previousExporter
		osExit = previousExit
	})

	_, span := provider.Tracer("test").Start(context.Background(), "ScrapeAll")
	span.End()

	exit(1)
	require.Equal(t, 1, code)
	require.Equal(t, 1, counter.count())
}
