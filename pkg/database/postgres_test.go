package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlowQueryTracer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := &slowQueryTracer{log: zap.New(core)}

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})
	assert.Zero(t, logs.Len())

	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: pgx.ErrNoRows})
	assert.Zero(t, logs.Len())

	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("relation does not exist")})
	assert.Equal(t, 1, logs.FilterMessage("Query failed").Len())

	old := context.WithValue(context.Background(), queryStartKey{}, queryStart{
		sql: "SELECT *\n\t FROM bookings",
		at:  time.Now().Add(-time.Second),
	})
	tracer.TraceQueryEnd(old, nil, pgx.TraceQueryEndData{})
	slow := logs.FilterMessage("Slow query").All()
	if assert.Len(t, slow, 1) {
		assert.Equal(t, "SELECT * FROM bookings", slow[0].ContextMap()["sql"])
	}
}
