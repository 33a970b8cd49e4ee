package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franela/goblin"
)

type recordedRequests struct {
	lock sync.Mutex
	urls []string
}

func (r *recordedRequests) add(url string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.urls = append(r.urls, url)
}

func (r *recordedRequests) all() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string{}, r.urls...)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func staticRequestFunc(requests *recordedRequests, status int, body string, err error) httpRequestFunc {
	return func(_ context.Context, url string) (*http.Response, error) {
		requests.add(url)
		if err != nil {
			return nil, err
		}

		return jsonResponse(status, body), nil
	}
}

// echoRequestFunc answers each call with {"procedure": <name>} so results
// can be matched to calls regardless of batch order.
func echoRequestFunc(requests *recordedRequests) httpRequestFunc {
	return func(_ context.Context, rawURL string) (*http.Response, error) {
		requests.add(rawURL)

		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}

		names := strings.Split(strings.TrimPrefix(parsed.Path, "/trpc/"), ",")
		items := make([]string, len(names))
		for i, name := range names {
			items[i] = `{"result":{"data":{"json":{"procedure":` + strconv.Quote(name) + `}}}}`
		}

		return jsonResponse(http.StatusOK, "["+strings.Join(items, ",")+"]"), nil
	}
}

type procedureEcho struct {
	Procedure string `json:"procedure"`
}

func TestClient(t *testing.T) {
	g := goblin.Goblin(t)

	g.Describe("Client", func() {
		g.It("Should send single call as batch of one with indexed superjson input", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc/"}, staticRequestFunc(
				requests, http.StatusOK, `[{"result":{"data":{"json":{"path":"demo/images","filename":"icb-logo.png"}}}}]`, nil,
			), nil)

			var out struct {
				Path     string `json:"path"`
				Filename string `json:"filename"`
			}
			err := c.Query(context.Background(), "image.showOriginal", map[string]string{"name": "icb-logo"}, &out)

			g.Assert(err).IsNil()
			g.Assert(out.Path).Equal("demo/images")
			g.Assert(out.Filename).Equal("icb-logo.png")
			g.Assert(requests.all()).Equal([]string{
				"http://localhost:3000/trpc/image.showOriginal?batch=1&input=" +
					url.QueryEscape(`{"0":{"json":{"name":"icb-logo"}}}`),
			})
		})

		g.It("Should coalesce concurrent calls into one request", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{
				URL:          "http://localhost:3000/trpc",
				BatchWindow:  time.Hour,
				MaxBatchSize: 2,
			}, echoRequestFunc(requests), nil)

			var wg sync.WaitGroup
			results := make([]procedureEcho, 2)
			errs := make([]error, 2)
			for i, procedure := range []string{"image.showOriginal", "users.list"} {
				wg.Add(1)
				go func(i int, procedure string) {
					defer wg.Done()
					errs[i] = c.Query(context.Background(), procedure, nil, &results[i])
				}(i, procedure)
			}
			wg.Wait()

			g.Assert(errs[0]).IsNil()
			g.Assert(errs[1]).IsNil()
			g.Assert(results[0].Procedure).Equal("image.showOriginal")
			g.Assert(results[1].Procedure).Equal("users.list")
			g.Assert(len(requests.all())).Equal(1)
		})

		g.It("Should flush pending calls after batch window", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{
				URL:         "http://localhost:3000/trpc",
				BatchWindow: 10 * time.Millisecond,
			}, echoRequestFunc(requests), nil)

			var out procedureEcho
			err := c.Query(context.Background(), "image.showOriginal", nil, &out)

			g.Assert(err).IsNil()
			g.Assert(out.Procedure).Equal("image.showOriginal")
			g.Assert(requests.all()).Equal([]string{
				"http://localhost:3000/trpc/image.showOriginal?batch=1&input=" + url.QueryEscape(`{}`),
			})
		})

		g.It("Should return rpc error carried by response item", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, staticRequestFunc(
				requests, http.StatusNotFound,
				`[{"error":{"json":{"message":"image not found","code":-32004,"data":{"code":"NOT_FOUND","httpStatus":404,"path":"image.showOriginal"}}}}]`,
				nil,
			), nil)

			err := c.Query(context.Background(), "image.showOriginal", map[string]string{"name": "missing"}, nil)

			var rpcErr *Error
			g.Assert(errors.As(err, &rpcErr)).IsTrue()
			g.Assert(rpcErr.Code).Equal(CodeNotFound)
			g.Assert(rpcErr.HTTPStatus).Equal(http.StatusNotFound)
			g.Assert(rpcErr.Message).Equal("image not found")
			g.Assert(IsNotFound(err)).IsTrue()
		})

		g.It("Should derive error code from json-rpc code when data is missing", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, staticRequestFunc(
				requests, http.StatusBadRequest,
				`[{"error":{"json":{"message":"bad input","code":-32600}}}]`,
				nil,
			), nil)

			err := c.Query(context.Background(), "image.showOriginal", nil, nil)

			var rpcErr *Error
			g.Assert(errors.As(err, &rpcErr)).IsTrue()
			g.Assert(rpcErr.Code).Equal(CodeBadRequest)
			g.Assert(rpcErr.HTTPStatus).Equal(http.StatusBadRequest)
			g.Assert(rpcErr.Path).Equal("image.showOriginal")
		})

		g.It("Should apply whole request error to every call", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, staticRequestFunc(
				requests, http.StatusBadRequest,
				`{"error":{"json":{"message":"malformed input","code":-32700,"data":{"code":"PARSE_ERROR","httpStatus":400}}}}`,
				nil,
			), nil)

			err := c.Query(context.Background(), "image.showOriginal", nil, nil)

			var rpcErr *Error
			g.Assert(errors.As(err, &rpcErr)).IsTrue()
			g.Assert(rpcErr.Code).Equal(CodeParseError)
		})

		g.It("Should return unexpected response error for non json body", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, staticRequestFunc(
				requests, http.StatusBadGateway, `<html>bad gateway</html>`, nil,
			), nil)

			err := c.Query(context.Background(), "image.showOriginal", nil, nil)

			g.Assert(errors.Is(err, ErrUnexpectedResponse)).IsTrue()
		})

		g.It("Should return error when response length does not match batch", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, staticRequestFunc(
				requests, http.StatusOK, `[]`, nil,
			), nil)

			err := c.Query(context.Background(), "image.showOriginal", nil, nil)

			g.Assert(err).Equal(ErrBatchSizeMismatch)
		})

		g.It("Should wrap transport errors as unavailable", func() {
			requests := &recordedRequests{}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, staticRequestFunc(
				requests, 0, "", io.ErrUnexpectedEOF,
			), nil)

			err := c.Query(context.Background(), "image.showOriginal", nil, nil)

			g.Assert(errors.Is(err, ErrUnavailable)).IsTrue()
		})

		g.It("Should return timeout when context deadline passes before response", func() {
			blocking := func(ctx context.Context, _ string) (*http.Response, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, blocking, nil)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			err := c.Query(ctx, "image.showOriginal", nil, nil)

			g.Assert(err).Equal(ErrTimeout)
		})

		g.It("Should reject procedure names containing separator", func() {
			c := newClient(ClientConfig{URL: "http://localhost:3000/trpc"}, nil, nil)

			err := c.Query(context.Background(), "a,b", nil, nil)

			g.Assert(errors.Is(err, ErrInvalidProcedure)).IsTrue()
		})
	})

	g.Describe("NewClient", func() {
		g.It("Should reject relative base url", func() {
			_, err := NewClient(ClientConfig{URL: "/trpc"}, nil, nil)

			g.Assert(errors.Is(err, ErrInvalidBaseURL)).IsTrue()
		})
	})

	g.Describe("BaseURL", func() {
		g.It("Should join server url and rpc path with single slash", func() {
			result, err := BaseURL("http://localhost:3000/", "/trpc/")

			g.Assert(err).IsNil()
			g.Assert(result).Equal("http://localhost:3000/trpc")
		})

		g.It("Should use default rpc path when empty", func() {
			result, _ := BaseURL("https://shop.example.com/base", "")

			g.Assert(result).Equal("https://shop.example.com/base/trpc")
		})
	})

	g.Describe("Clients", func() {
		g.It("Should select client by audience", func() {
			clients, err := NewClients(ClientsConfig{
				ServerURL:       "http://internal:3000",
				PublicServerURL: "https://shop.example.com",
			}, nil, nil)

			g.Assert(err).IsNil()
			g.Assert(clients.For(false).(*client).config.URL).Equal("http://internal:3000/trpc")
			g.Assert(clients.For(true).(*client).config.URL).Equal("https://shop.example.com/trpc")
		})

		g.It("Should fall back to server url when public url is empty", func() {
			clients, err := NewClients(ClientsConfig{ServerURL: "http://internal:3000"}, nil, nil)

			g.Assert(err).IsNil()
			g.Assert(clients.For(true).(*client).config.URL).Equal("http://internal:3000/trpc")
		})

		g.It("Should return error for missing server url", func() {
			_, err := NewClients(ClientsConfig{}, nil, nil)

			g.Assert(errors.Is(err, ErrInvalidBaseURL)).IsTrue()
		})
	})
}

func TestClient_ShouldEncodeInputsOnlyForCallsWithInput(t *testing.T) {
	c := newClient(ClientConfig{URL: "http://localhost/trpc"}, nil, nil)

	requestURL, err := c.batchURL([]*pendingCall{
		{procedure: "a.one"},
		{procedure: "b.two", input: json.RawMessage(`{"json":1}`)},
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := "http://localhost/trpc/a.one,b.two?batch=1&input=" + url.QueryEscape(`{"1":{"json":1}}`)
	if requestURL != expected {
		t.Errorf("Expected url %s, got %s", expected, requestURL)
	}
}
