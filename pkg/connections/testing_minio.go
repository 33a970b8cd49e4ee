package connections

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const (
	TestingMinioEndpointEnv = "IMGPROXY_TEST_MINIO_ENDPOINT"

	testingServerAccessKey = "minio"
	testingServerSecretKey = "minio123"
)

type ObjectStorageTestingConnection struct {
	ObjectStorageProductionConnection
}

// NewObjectStorageTestingConnection creates a randomly named bucket and
// removes it with its contents on test cleanup.
func NewObjectStorageTestingConnection(t *testing.T) *ObjectStorageTestingConnection {
	endpoint := os.Getenv(TestingMinioEndpointEnv)
	if endpoint == "" {
		t.Skipf("%s is not set", TestingMinioEndpointEnv)
	}

	conn, err := NewObjectStorageProductionConnection(context.Background(), ObjectStorageProductionConnectionConfig{
		Endpoint:     endpoint,
		AccessKey:    testingServerAccessKey,
		SecretKey:    testingServerSecretKey,
		Bucket:       uuid.New().String() + "-testing-bucket",
		Location:     "us-east-1",
		UseSSL:       false,
		CreateBucket: true,
	})
	if err != nil {
		t.Fatalf("Error when connecting to minio block storage: %s", err)
	}

	testingConn := &ObjectStorageTestingConnection{conn}
	t.Cleanup(func() { testingConn.dropTestBucket(t) })

	return testingConn
}

func (c *ObjectStorageTestingConnection) dropTestBucket(t *testing.T) {
	ctx := context.Background()
	objects := c.client.ListObjects(ctx, c.config.Bucket, minio.ListObjectsOptions{Recursive: true})
	for object := range objects {
		if object.Err != nil {
			t.Errorf("Error when listing test bucket: %s", object.Err)
			return
		}

		if err := c.client.RemoveObject(ctx, c.config.Bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			t.Errorf("Error when cleaning test bucket: %s", err)
		}
	}

	if err := c.client.RemoveBucket(ctx, c.config.Bucket); err != nil {
		t.Errorf("Error when dropping test bucket: %s", err)
	}
}
