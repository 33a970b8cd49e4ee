package origin

import (
	"context"

	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
)

// Store reads original image bytes by storage location.
type Store interface {
	Fetch(ctx context.Context, path, filename string) (imagefetcher.Image, error)
}
