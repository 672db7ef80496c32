package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New("", "")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := (&Logger{Logger: zap.New(core)}).With(StringField("service", "executor"))

	l.Info("Market stress run finished",
		ErrorField(errors.New("boom")),
		IntField("total", 13),
		Float64Field("positive_ratio", 0.25),
		DurationField("duration", 2*time.Second),
		Field("stage", "done"),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "executor", fields["service"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, int64(13), fields["total"])
	assert.Equal(t, 0.25, fields["positive_ratio"])
	assert.Equal(t, 2*time.Second, fields["duration"])
	assert.Equal(t, "done", fields["stage"])
}
