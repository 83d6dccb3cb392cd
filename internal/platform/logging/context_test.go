package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core).With(zap.String("request_id", "abc"))

	ctx := ContextWithLogger(context.Background(), logger)
	FromContext(ctx).Info("hello")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "hello", entries[0].Message)
		assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	}
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	assert.Same(t, zap.L(), FromContext(context.Background()))
	assert.Same(t, zap.L(), FromContext(ContextWithLogger(context.Background(), nil)))
}
