// Package mongo owns the MongoDB connection and index bootstrap. Stores take
// a *mongo.Database; this package is the only place connection options live.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps the driver client with health checking capabilities.
type Client struct {
	*mongo.Client
	db *mongo.Database
}

// Connect dials MongoDB and pings the primary so a bad URI fails at startup,
// not on first request. opTimeout bounds every operation issued through the
// returned client; storage calls must never block indefinitely.
func Connect(ctx context.Context, uri, database string, opTimeout time.Duration) (*Client, error) {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	opts := options.Client().
		ApplyURI(uri).
		SetTimeout(opTimeout).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return &Client{Client: client, db: client.Database(database)}, nil
}

// Database returns the application database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Health checks if the MongoDB connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (c *Client) Close(ctx context.Context) error {
	return c.Disconnect(ctx)
}
