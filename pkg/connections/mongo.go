package connections

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultCatalogDatabase = "catalog"

type CatalogDBConfig struct {
	ConnectionString string
	Database         string
}

type CatalogDBProductionConnection struct {
	config CatalogDBConfig
	client *mongo.Client
}

var _ CatalogDBConnection = (*CatalogDBProductionConnection)(nil)

func NewCatalogDBProductionConnection(ctx context.Context, config CatalogDBConfig) (CatalogDBConnection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.ConnectionString))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	if config.Database == "" {
		config.Database = DefaultCatalogDatabase
	}

	return &CatalogDBProductionConnection{
		config: config,
		client: client,
	}, nil
}

func (c *CatalogDBProductionConnection) Collection(collectionName string) *mongo.Collection {
	return c.client.Database(c.config.Database).Collection(collectionName)
}

func (c *CatalogDBProductionConnection) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
