package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-io/herald/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	var queueCfg config.Queue
	require.NoError(t, config.Load(&queueCfg))
	assert.Equal(t, "notifications", queueCfg.Name)

	var pubCfg config.Publish
	require.NoError(t, config.Load(&pubCfg))
	assert.Equal(t, 3, pubCfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, pubCfg.Backoff)

	var mongoCfg config.Mongo
	require.NoError(t, config.Load(&mongoCfg))
	assert.Equal(t, "herald", mongoCfg.Database)
	assert.Equal(t, 3, mongoCfg.RetryAttempts)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AMQP_QUEUE", "custom-queue")
	t.Setenv("PUBLISH_MAX_ATTEMPTS", "5")

	var queueCfg config.Queue
	require.NoError(t, config.Load(&queueCfg))
	assert.Equal(t, "custom-queue", queueCfg.Name)

	var pubCfg config.Publish
	require.NoError(t, config.Load(&pubCfg))
	assert.Equal(t, 5, pubCfg.MaxAttempts)
}
