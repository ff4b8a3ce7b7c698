package store

import (
	"context"
	"errors"
	"testing"

	"agentcrm-backend/services"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestNotFound(t *testing.T) {
	assert.Same(t, services.ErrNotFound, notFound(gorm.ErrRecordNotFound, "query client"))

	err := notFound(errors.New("connection reset"), "query client")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrNotFound)
	assert.Contains(t, err.Error(), "query client: connection reset")
}

func TestNewRedisClient_UnreachableServer(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestRedisLocker_ReleaseReportsErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	locker := NewRedisLocker(client, zap.NewNop())

	err := locker.release(context.Background(), "agentcrm:lock:daily", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release lock agentcrm:lock:daily")
}
