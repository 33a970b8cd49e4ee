package imagefetcher

import "context"

// Image is a fetched payload. It belongs to the request that fetched it.
type Image struct {
	ContentType string
	Data        []byte
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (Image, error)
}
