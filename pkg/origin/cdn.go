package origin

import (
	"context"
	"net/url"
	"strings"

	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
)

const DefaultCDNHost = "d26xfdx1w8q2y3.cloudfront.net"

type CDN struct {
	Scheme string
	Host   string
}

// ObjectURL joins path and filename under the CDN host. Empty segments
// are dropped, so a leading or trailing slash in path is harmless.
func (cdn CDN) ObjectURL(path, filename string) string {
	segments := []string{}
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	segments = append(segments, filename)

	scheme := cdn.Scheme
	if scheme == "" {
		scheme = "https"
	}

	objectURL := url.URL{
		Scheme: scheme,
		Host:   cdn.Host,
		Path:   "/" + strings.Join(segments, "/"),
	}

	return objectURL.String()
}

type cdnStore struct {
	cdn     CDN
	fetcher imagefetcher.Fetcher
}

var _ Store = (*cdnStore)(nil)

func NewCDNStore(cdn CDN, fetcher imagefetcher.Fetcher) Store {
	return &cdnStore{cdn, fetcher}
}

func (s *cdnStore) Fetch(ctx context.Context, path, filename string) (imagefetcher.Image, error) {
	return s.fetcher.Fetch(ctx, s.cdn.ObjectURL(path, filename))
}
