package otel

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurisgate/internal/logging"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		name, arg string
		want      string
	}{
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"traceidratio", "junk", "AlwaysOnSampler"},
		{"parentbased_always_off", "", "ParentBased{root:AlwaysOffSampler"},
		{"parentbased_traceidratio", "0.25", "ParentBased{root:TraceIDRatioBased{0.25}"},
		{"", "", "ParentBased{root:AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.arg, func(t *testing.T) {
			assert.Contains(t, Sampler(tt.name, tt.arg).Description(), tt.want)
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		t.Setenv("OTEL_SDK_DISABLED", "true")
		var buf bytes.Buffer

		shutdown, err := Init(context.Background(), logging.New(&buf, time.UTC))
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "tracing_configured", line["event"])
		assert.Equal(t, false, line["tracing_enabled"])
	})

	t.Run("unsupported protocol degrades", func(t *testing.T) {
		t.Setenv("OTEL_SDK_DISABLED", "false")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
		var buf bytes.Buffer

		shutdown, err := Init(context.Background(), logging.New(&buf, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.Contains(t, buf.String(), "tracing_init_failed")
		assert.Contains(t, buf.String(), "unsupported OTLP protocol")
	})
}
