package imagefetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	mock_globals "github.com/thebartekbanach/imgproxy/test/mocks"
)

type httpResponseBody struct {
	io.Reader
	closed bool
}

func (body *httpResponseBody) Close() error {
	body.closed = true
	return nil
}

func fetchGetterFuncFactoryWithGetterCallback(body *httpResponseBody, responseStatusCode int, header http.Header, err error, onGetterCall func(url string)) httpGetFunc {
	return func(_ context.Context, url string) (*http.Response, error) {
		onGetterCall(url)

		if err != nil {
			return nil, err
		}

		resp := http.Response{
			Body:       body,
			StatusCode: responseStatusCode,
			Header:     header,
		}

		return &resp, nil
	}
}

func testDataFetchFuncFactory(responseStatusCode int, err error) (httpGetFunc, *httpResponseBody, []byte) {
	data := []byte{0x1, 0x2, 0x3, 0x4, 0x5, 0x6}
	body := &httpResponseBody{Reader: bytes.NewReader(data)}
	header := http.Header{"Content-Type": []string{"image/jpeg"}}

	get := fetchGetterFuncFactoryWithGetterCallback(body, responseStatusCode, header, err, func(string) {})

	return get, body, data
}

func TestHTTPFetcher_ShouldReturnWholeResponseBodyWithContentType(t *testing.T) {
	getter, body, testData := testDataFetchFuncFactory(200, nil)

	fetcher := httpFetcher{Config{}, getter}
	image, err := fetcher.Fetch(context.Background(), "http://google.com/image.jpg")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !bytes.Equal(image.Data, testData) {
		t.Errorf("Expected fetched data to be %v, got %v", testData, image.Data)
	}

	if image.ContentType != "image/jpeg" {
		t.Errorf("Expected content type to be image/jpeg, got %s", image.ContentType)
	}

	if !body.closed {
		t.Errorf("Expected response body to be closed")
	}
}

func TestHTTPFetcher_ShouldCallGetterExactlyOnceWithGivenURL(t *testing.T) {
	calls := []string{}
	body := &httpResponseBody{Reader: bytes.NewReader(nil)}
	getter := fetchGetterFuncFactoryWithGetterCallback(body, 500, nil, nil, func(url string) {
		calls = append(calls, url)
	})

	fetcher := httpFetcher{Config{}, getter}
	fetcher.Fetch(context.Background(), "http://google.com/image.jpg")

	if len(calls) != 1 || calls[0] != "http://google.com/image.jpg" {
		t.Errorf("Expected exactly one call to http://google.com/image.jpg, got %v", calls)
	}
}

func TestHTTPFetcher_ShouldReturn404ErrorIf404IsReturnedByRequest(t *testing.T) {
	getter, body, _ := testDataFetchFuncFactory(404, nil)

	fetcher := httpFetcher{Config{}, getter}
	_, err := fetcher.Fetch(context.Background(), "http://google.com/image.jpg")

	if !errors.Is(err, ErrResponseStatus404) {
		t.Errorf("Expected fetch error to be %v, got %v", ErrResponseStatus404, err)
	}

	if !body.closed {
		t.Errorf("Expected response body to be closed")
	}
}

func TestHTTPFetcher_ShouldReturnStatusErrorIfResponseIsNot2xx(t *testing.T) {
	getter, _, _ := testDataFetchFuncFactory(503, nil)

	fetcher := httpFetcher{Config{}, getter}
	_, err := fetcher.Fetch(context.Background(), "http://google.com/image.jpg")

	if !errors.Is(err, ErrResponseStatusNotOK) {
		t.Errorf("Expected fetch error to be %v, got %v", ErrResponseStatusNotOK, err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 503 {
		t.Errorf("Expected status error with code 503, got %v", err)
	}
}

func TestHTTPFetcher_ShouldWrapTransportErrorAsUnavailable(t *testing.T) {
	getter, _, _ := testDataFetchFuncFactory(200, io.ErrUnexpectedEOF)

	fetcher := httpFetcher{Config{}, getter}
	_, err := fetcher.Fetch(context.Background(), "http://google.com/image.jpg")

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected fetch error to be %v, got %v", ErrUnavailable, err)
	}
}

func TestHTTPFetcher_ShouldReturnTimeoutErrorWhenContextDeadlineExceeded(t *testing.T) {
	getter, _, _ := testDataFetchFuncFactory(200, context.DeadlineExceeded)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	fetcher := httpFetcher{Config{}, getter}
	_, err := fetcher.Fetch(ctx, "http://google.com/image.jpg")

	if err != ErrTimeout {
		t.Errorf("Expected fetch error to be %v, got %v", ErrTimeout, err)
	}
}

func TestHTTPFetcher_ShouldRejectBodyLargerThanLimit(t *testing.T) {
	getter, _, _ := testDataFetchFuncFactory(200, nil)

	fetcher := httpFetcher{Config{MaxBodySize: 3}, getter}
	_, err := fetcher.Fetch(context.Background(), "http://google.com/image.jpg")

	if err != ErrResponseTooLarge {
		t.Errorf("Expected fetch error to be %v, got %v", ErrResponseTooLarge, err)
	}
}

func TestHTTPFetcher_ShouldReturnErrorReturnedByBodyRead(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockReader := mock_globals.NewMockReader(mockCtrl)
	mockReader.EXPECT().Read(gomock.Any()).Return(0, io.ErrUnexpectedEOF)

	body := &httpResponseBody{Reader: mockReader}
	getter := fetchGetterFuncFactoryWithGetterCallback(body, 200, nil, nil, func(string) {})

	fetcher := httpFetcher{Config{}, getter}
	_, err := fetcher.Fetch(context.Background(), "http://google.com/image.jpg")

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected fetch error to be %v, got %v", ErrUnavailable, err)
	}

	if !body.closed {
		t.Errorf("Expected response body to be closed")
	}
}
