package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	defaultMongoTestURI = "mongodb://localhost:27018/?directConnection=true"
	mongoTestDatabase   = "enrollments_test"
)

// GetMongoTestURI returns the MongoDB test URI, checking TEST_MONGODB_URI first.
func GetMongoTestURI() string {
	if uri := os.Getenv("TEST_MONGODB_URI"); uri != "" {
		return uri
	}
	return defaultMongoTestURI
}

// SetupMongoDB connects to the MongoDB test server and returns an empty database,
// skipping the test when the server is not reachable. The database is dropped and
// the client disconnected on cleanup.
func SetupMongoDB(t *testing.T) *mongo.Database {
	t.Helper()

	client, err := mongo.Connect(options.Client().
		ApplyURI(GetMongoTestURI()).
		SetServerSelectionTimeout(2 * time.Second))
	if err != nil {
		t.Skipf("mongodb not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongodb not available: %v", err)
	}

	db := client.Database(mongoTestDatabase)
	if err := db.Drop(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		t.Fatalf("failed to reset mongodb test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}
