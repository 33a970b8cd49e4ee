package catalog

import (
	"context"
	"errors"

	"github.com/thebartekbanach/imgproxy/pkg/catalog/repositories"
)

const ShowOriginalProcedure = "image.showOriginal"

// ImageLocation is where the original image is stored on the origin.
type ImageLocation struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type ImageResolver interface {
	// ShowOriginal resolves a logical image name. Unknown names fail with
	// ErrImageNotFound.
	ShowOriginal(ctx context.Context, name string) (ImageLocation, error)
}

type ImageService interface {
	// ShowOriginal returns nil when no record has the given name.
	ShowOriginal(ctx context.Context, name string) (*repositories.ImageRecordModel, error)
}

type ShowOriginalInput struct {
	Name string `json:"name"`
}

var (
	ErrImageNotFound       = errors.New("image not found")
	ErrInvalidImageName    = errors.New("image name must not be empty")
	ErrResolverUnavailable = errors.New("image resolver unavailable")
)
