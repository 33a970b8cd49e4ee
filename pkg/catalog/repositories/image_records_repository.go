package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thebartekbanach/imgproxy/pkg/connections"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ImageRecordsCollection = "images"

type ImageRecordModel struct {
	ID       string `json:"id" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	Path     string `json:"path" bson:"path"`
	Filename string `json:"filename" bson:"filename"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type ImageRecordsRepository interface {
	CreateImageRecord(ctx context.Context, record ImageRecordModel) (ImageRecordModel, error)
	GetImageRecordByName(ctx context.Context, name string) (ImageRecordModel, error)
	DeleteImageRecord(ctx context.Context, name string) error
}

type imageRecordsRepository struct {
	conn connections.CatalogDBConnection
	now  func() time.Time
}

var _ ImageRecordsRepository = (*imageRecordsRepository)(nil)

func NewImageRecordsRepository(conn connections.CatalogDBConnection) ImageRecordsRepository {
	return &imageRecordsRepository{conn, time.Now}
}

// EnsureImageRecordsIndexes creates the unique index on record names.
func EnsureImageRecordsIndexes(ctx context.Context, conn connections.CatalogDBConnection) error {
	_, err := conn.Collection(ImageRecordsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return err
}

func (repo *imageRecordsRepository) CreateImageRecord(ctx context.Context, record ImageRecordModel) (ImageRecordModel, error) {
	collection := repo.conn.Collection(ImageRecordsCollection)

	result := collection.FindOne(ctx, bson.M{"name": record.Name})
	if result.Err() == nil {
		return ImageRecordModel{}, ErrImageRecordAlreadyExists
	}

	if result.Err() != mongo.ErrNoDocuments {
		return ImageRecordModel{}, result.Err()
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	// mongo keeps millisecond precision
	now := repo.now().UTC().Truncate(time.Millisecond)
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ImageRecordModel{}, ErrImageRecordAlreadyExists
		}

		return ImageRecordModel{}, err
	}

	return record, nil
}

func (repo *imageRecordsRepository) GetImageRecordByName(ctx context.Context, name string) (ImageRecordModel, error) {
	collection := repo.conn.Collection(ImageRecordsCollection)

	var record ImageRecordModel
	if err := collection.FindOne(ctx, bson.M{"name": name}).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			return ImageRecordModel{}, ErrImageRecordNotFound
		}

		return ImageRecordModel{}, err
	}

	return record, nil
}

func (repo *imageRecordsRepository) DeleteImageRecord(ctx context.Context, name string) error {
	collection := repo.conn.Collection(ImageRecordsCollection)

	result, err := collection.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrImageRecordNotFound
	}

	return nil
}

var (
	ErrImageRecordNotFound      = errors.New("image record not found")
	ErrImageRecordAlreadyExists = errors.New("image record already exists")
)
