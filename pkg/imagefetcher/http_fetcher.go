package imagefetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const DefaultMaxBodySize int64 = 32 << 20

type httpGetFunc func(ctx context.Context, url string) (resp *http.Response, err error)

type Config struct {
	// MaxBodySize limits how many bytes are read from a single response.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64
}

type httpFetcher struct {
	config Config
	getter httpGetFunc
}

var _ Fetcher = (*httpFetcher)(nil)

func NewHTTPFetcher(config Config, client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	getFunc := func(ctx context.Context, url string) (resp *http.Response, err error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		return client.Do(req)
	}

	return &httpFetcher{config, getFunc}
}

func (fetcher *httpFetcher) Fetch(ctx context.Context, url string) (Image, error) {
	response, err := fetcher.getter(ctx, url)
	if err != nil {
		return Image{}, fetcher.convertRequestError(ctx, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return Image{}, &StatusError{response.StatusCode, ErrResponseStatus404}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return Image{}, &StatusError{response.StatusCode, ErrResponseStatusNotOK}
	}

	limit := fetcher.maxBodySize()
	data, err := io.ReadAll(io.LimitReader(response.Body, limit+1))
	if err != nil {
		return Image{}, fetcher.convertRequestError(ctx, err)
	}

	if int64(len(data)) > limit {
		return Image{}, ErrResponseTooLarge
	}

	return Image{
		ContentType: response.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (fetcher *httpFetcher) maxBodySize() int64 {
	if fetcher.config.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}

	return fetcher.config.MaxBodySize
}

func (fetcher *httpFetcher) convertRequestError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %s", ErrUnavailable, err)
}

// StatusError reports a non-2xx upstream response. It unwraps to
// ErrResponseStatus404 or ErrResponseStatusNotOK.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Err, e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

var (
	ErrResponseStatusNotOK = errors.New("response returned non-200 status code")
	ErrResponseStatus404   = errors.New("response returned 404 status code")
	ErrResponseTooLarge    = errors.New("response body exceeds size limit")
	ErrTimeout             = errors.New("upstream request timed out")
	ErrUnavailable         = errors.New("upstream unavailable")
)
