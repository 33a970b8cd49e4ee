package origin

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/thebartekbanach/imgproxy/pkg/connections"
	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
)

type minioStore struct {
	conn        connections.ObjectStorageConnection
	maxBodySize int64
}

var _ Store = (*minioStore)(nil)

func NewMinioStore(conn connections.ObjectStorageConnection, maxBodySize int64) Store {
	if maxBodySize <= 0 {
		maxBodySize = imagefetcher.DefaultMaxBodySize
	}

	return &minioStore{conn, maxBodySize}
}

func (s *minioStore) Fetch(ctx context.Context, path, filename string) (imagefetcher.Image, error) {
	object, err := s.conn.GetObject(ctx, s.makeObjectName(path, filename))
	if err != nil {
		return imagefetcher.Image{}, s.convertToKnownError(err)
	}
	defer object.Close()

	info, err := object.Stat()
	if err != nil {
		return imagefetcher.Image{}, s.convertToKnownError(err)
	}

	if info.Size > s.maxBodySize {
		return imagefetcher.Image{}, imagefetcher.ErrResponseTooLarge
	}

	data, err := io.ReadAll(object)
	if err != nil {
		return imagefetcher.Image{}, s.convertToKnownError(err)
	}

	return imagefetcher.Image{
		ContentType: info.ContentType,
		Data:        data,
	}, nil
}

func (s *minioStore) convertToKnownError(err error) error {
	if connections.IsNoSuchKey(err) {
		return ErrObjectNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return imagefetcher.ErrTimeout
	}

	return err
}

func (s *minioStore) makeObjectName(path, filename string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return filename
	}

	return path + "/" + filename
}

// ErrObjectNotFound wraps imagefetcher.ErrResponseStatus404 so callers
// treat a missing object like a missing CDN file.
var ErrObjectNotFound = &imagefetcher.StatusError{Code: 404, Err: imagefetcher.ErrResponseStatus404}
