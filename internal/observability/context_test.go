package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Napiersnotes/Dandelions/internal/observability"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	require.Empty(t, observability.GetProvider(ctx))
	require.Empty(t, observability.GetModel(ctx))

	ctx = observability.WithTraceID(ctx, "trace-1")
	ctx = observability.WithSpanID(ctx, "span-1")
	ctx = observability.WithRequestID(ctx, "req-1")
	ctx = observability.WithProvider(ctx, "mistral")
	ctx = observability.WithModel(ctx, "mistral-small-latest")

	require.Equal(t, "trace-1", observability.GetTraceID(ctx))
	require.Equal(t, "span-1", observability.GetSpanID(ctx))
	require.Equal(t, "req-1", observability.GetRequestID(ctx))
	require.Equal(t, "mistral", observability.GetProvider(ctx))
	require.Equal(t, "mistral-small-latest", observability.GetModel(ctx))
}

func TestGenerateIdentifiers(t *testing.T) {
	require.Len(t, observability.GenerateTraceID(), 32)
	require.Len(t, observability.GenerateSpanID(), 16)
	require.NotEmpty(t, observability.GenerateRequestID())

	require.NotEqual(t, observability.GenerateTraceID(), observability.GenerateTraceID())
	require.NotEqual(t, observability.GenerateRequestID(), observability.GenerateRequestID())
}
