package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultTestURI is used when MONGO_TEST_URI is not set.
const DefaultTestURI = "mongodb://localhost:27017"

// TestContext returns a context with a timeout suitable for a single test.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB connects to the test MongoDB server and returns a fresh,
// uniquely named database. The database is dropped and the client
// disconnected when the test finishes. The test is skipped when no server is
// reachable so unit tests still run on machines without MongoDB.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = DefaultTestURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo unavailable (%s): %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable (%s): %v", uri, err)
	}

	db := client.Database(testDBName(t))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// testDBName builds a database name from the test name. MongoDB limits names
// to 63 bytes and forbids a few characters.
func testDBName(t *testing.T) string {
	r := strings.NewReplacer("/", "_", " ", "_", ".", "_", "$", "_", "\"", "_", "\\", "_")
	name := fmt.Sprintf("t_%d_%s", time.Now().UnixNano()%1_000_000_000, r.Replace(t.Name()))
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}
