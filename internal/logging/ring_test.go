package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestRingEviction(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Append(Entry{Message: string(rune('a' + i))})
	}

	got := r.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Message)
	assert.Equal(t, "e", got[2].Message)
}

func TestRingRecentLimit(t *testing.T) {
	r := NewRing(10)
	for i := 0; i < 4; i++ {
		r.Append(Entry{Message: string(rune('a' + i))})
	}

	got := r.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Message)
	assert.Equal(t, "d", got[1].Message)
}

func TestRingSubscribe(t *testing.T) {
	r := NewRing(10)
	ch, cancel := r.Subscribe()
	defer cancel()

	r.Append(Entry{Message: "hello"})
	select {
	case e := <-ch:
		assert.Equal(t, "hello", e.Message)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive entry")
	}
}

func TestRingCoreCapturesFields(t *testing.T) {
	r := NewRing(10)
	logger := zap.New(r.Core(zapcore.InfoLevel))

	logger.Info("beat recorded", zap.Int("count", 7), zap.String("status", "ok"))
	logger.Debug("filtered out")

	got := r.Recent(0)
	require.Len(t, got, 1)
	assert.Equal(t, "beat recorded", got[0].Message)
	assert.Equal(t, "info", got[0].Level)
	assert.EqualValues(t, 7, got[0].Fields["count"])
	assert.Equal(t, "ok", got[0].Fields["status"])
}

func TestLoggerTeesIntoRing(t *testing.T) {
	logger, err := New(Config{Level: "info", OutputPaths: []string{"stdout"}, RingSize: 8})
	require.NoError(t, err)

	logger.Info("startup complete")
	entries := logger.Ring().Recent(0)
	require.NotEmpty(t, entries)
	assert.Equal(t, "startup complete", entries[len(entries)-1].Message)
}
