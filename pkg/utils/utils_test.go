package utils

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang-market-stress/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleTime(t *testing.T) {
	want := time.Date(2025, 5, 20, 14, 30, 0, 0, time.UTC)
	for _, value := range []string{"2025-05-20T14:30:00Z", "Tue, 20 May 2025 14:30:00 +0000", "2025-05-20 14:30:00"} {
		got, ok := ParseFlexibleTime(value)
		require.True(t, ok, value)
		assert.True(t, want.Equal(*got), value)
	}

	_, ok := ParseFlexibleTime("ayer")
	assert.False(t, ok)
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Nowhere/Special"))
}

func TestSafeText(t *testing.T) {
	assert.Equal(t, "Bolsa sube hoy", SafeText("  Bolsa\n\tsube   hoy\x00 "))
	assert.Equal(t, "a", SafeText("a\xff"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "dól", Truncate("dólar", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestGoSafe_RecoversPanic(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	GoSafe(func() {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()
}

func TestShouldContinue(t *testing.T) {
	log := logger.NewNop()
	assert.True(t, ShouldContinue(context.Background(), log))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, ShouldContinue(ctx, log))
}
