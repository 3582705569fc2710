package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// ErrStorageUnavailable is returned when MongoDB cannot be reached at startup.
// There is no retry; callers are expected to exit.
var ErrStorageUnavailable = errors.New("storage unavailable")

const (
	UsersCollection  = "users"
	ImagesCollection = "images"
)

// Connect opens a client for uri and pings the primary.
func Connect(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	connectionString := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(connectionString)
	if err != nil {
		logger.Error("Mongo connect error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logger.Error("Mongo ping error", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	logger.Info("MongoDB connected successfully")
	return client, nil
}

// Disconnect closes the client, bounded by a short timeout.
func Disconnect(client *mongo.Client, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warn("Mongo disconnect error", zap.Error(err))
	}
}
