package connections

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const TestingMongoConnectionStringEnv = "IMGPROXY_TEST_MONGO_CONNECTION_STRING"

type CatalogDBTestingConnection struct {
	testDBName string
	client     *mongo.Client
}

var _ CatalogDBConnection = (*CatalogDBTestingConnection)(nil)

// NewCatalogDBTestingConnection connects to a throwaway database and drops it
// on test cleanup. The test is skipped when no testing server is configured.
func NewCatalogDBTestingConnection(t *testing.T) *CatalogDBTestingConnection {
	connectionString := os.Getenv(TestingMongoConnectionStringEnv)
	if connectionString == "" {
		t.Skipf("%s is not set", TestingMongoConnectionStringEnv)
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(connectionString))
	if err != nil {
		t.Fatalf("Cannot connect to mongodb: %s", err)
	}

	testDBName := generateTestDBName(t, client)
	conn := &CatalogDBTestingConnection{testDBName, client}

	t.Cleanup(func() { conn.cleanup(t) })
	return conn
}

func (c *CatalogDBTestingConnection) Collection(name string) *mongo.Collection {
	return c.client.Database(c.testDBName).Collection(name)
}

func (c *CatalogDBTestingConnection) Disconnect(ctx context.Context) error {
	return nil
}

func (c *CatalogDBTestingConnection) cleanup(t *testing.T) {
	ctx := context.Background()
	defer c.client.Disconnect(ctx)

	if err := c.client.Database(c.testDBName).Drop(ctx); err != nil {
		t.Errorf("Cannot cleanup testing database '%s': %s", c.testDBName, err)
	}
}

func generateTestDBName(t *testing.T, client *mongo.Client) string {
	databases, err := client.ListDatabaseNames(context.Background(), bson.M{})
	if err != nil {
		t.Fatalf("Cannot fetch database names list: %s", err)
	}

	for i := 0; i < 10; i++ {
		id := uuid.New().String()
		if !contains(databases, id) {
			return id
		}
	}

	t.Fatal("Cannot generate unique test DB name")
	return ""
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}
