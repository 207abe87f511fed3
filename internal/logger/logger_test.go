package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitializeWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "debug", "json")

	DatabaseResult("UPDATE", 3, nil, "table", "payments")
	assert.Contains(t, buf.String(), `"rows_affected":3`)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "warn", "text")

	Info("hidden")
	ExternalServiceResult("edge", "parse-bank-statement", errors.New("boom"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "External service call failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "text")

	scoped := Get().With("request_id", "req-42")
	ctx := WithContext(context.Background(), scoped)

	InfoContext(ctx, "handled")
	assert.Contains(t, buf.String(), "request_id=req-42")
	assert.Same(t, Get(), FromContext(context.Background()))
}
