package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "backoffice/internal/core/context"
)

func TestFromContext_AddsActorAndTrace(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1", OutletID: "outlet-a"})

	Info(ctx, "transfer completed", "number", "TRF-20260115-0001")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "t-1", fields["trace_id"])
		assert.Equal(t, "u-1", fields["user_id"])
		assert.Equal(t, "outlet-a", fields["outlet_id"])
		assert.Equal(t, "TRF-20260115-0001", fields["number"])
	}
}

func TestDebugBelowLevelIsDropped(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithLogger(context.Background(), &Logger{zap.New(core).Sugar()})

	Debug(ctx, "noise")
	assert.Equal(t, 0, logs.Len())
}
