package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(Config{Host: mr.Host(), Port: mustPort(t, mr)})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port := mustPort(t, mr)
	mr.Close()

	_, err := NewClient(Config{Host: "127.0.0.1", Port: port})

	assert.Error(t, err)
}

func TestEnsureGroup_Idempotent(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(Config{Host: mr.Host(), Port: mustPort(t, mr)})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.EnsureGroup(ctx, "market.stress.run", "executor-group"))
	require.NoError(t, client.EnsureGroup(ctx, "market.stress.run", "executor-group"))

	err = client.XGroupCreate(ctx, "market.stress.run", "executor-group", "0").Err()
	assert.EqualError(t, err, "BUSYGROUP Consumer Group name already exists")
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	var port int
	_, err := fmt.Sscanf(mr.Port(), "%d", &port)
	require.NoError(t, err)
	return port
}
