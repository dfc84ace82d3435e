// Package storage provides database client lifecycle helpers.
package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/herald-io/herald/internal/config"
)

var (
	// ErrFailedToConnectToMongo is returned when all connection attempts fail.
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")

	// ErrHealthcheckFailed is returned when the readiness ping fails.
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
)

// NewMongo creates a mongo client and returns the configured database.
// Connection attempts are retried per the config before giving up.
func NewMongo(ctx context.Context, cfg config.Mongo) (*mongo.Database, error) {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout),
		)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client.Database(cfg.Database), nil
			}
			_ = client.Disconnect(ctx)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToConnectToMongo
}

// Healthcheck returns a readiness probe function that pings the database.
func Healthcheck(db *mongo.Database) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Client().Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
