package mongodb

import (
	"context"
	"fmt"

	"finora/api/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

var ProfileCollection = "user_profiles"

// Connect opens a client against uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		logger.Get().Error("failed to connect to MongoDB", zap.Error(err))
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Get().Error("failed to ping MongoDB", zap.Error(err))
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	logger.Get().Info("successfully connected to MongoDB")
	return client, nil
}

func Disconnect(ctx context.Context, client *mongo.Client) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.Get().Error("failed to disconnect from MongoDB",
			zap.Error(err))
		return
	}
	logger.Get().Info("successfully disconnected from MongoDB")
}
