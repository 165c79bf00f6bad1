package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	blogsCollection = "blogs"
)

// Connect dials the deployment behind uri and returns the named database.
// The caller owns the returned client and must Disconnect it.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, nil, fmt.Errorf("mongodb uri is required")
	}
	if strings.TrimSpace(database) == "" {
		return nil, nil, fmt.Errorf("mongodb database name is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, client.Database(database), nil
}

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
