package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/thebartekbanach/imgproxy/pkg/metrics"
)

const (
	DefaultMaxBatchSize    = 16
	DefaultMaxResponseSize = 4 << 20
	DefaultRPCPath         = "/trpc"
	batchQueryParam        = "batch"
	inputQueryParam        = "input"
	procedurePathSeparator = ","
)

type Client interface {
	// Query calls procedure with input and decodes the result into out.
	// Calls issued close together share one HTTP request.
	Query(ctx context.Context, procedure string, input, out interface{}) error
}

type ClientConfig struct {
	// URL is the base of the procedure paths, e.g. http://localhost:3000/trpc.
	URL string
	// BatchWindow is how long the first queued call waits for others.
	// Zero coalesces only calls made before the scheduler runs the flush.
	BatchWindow  time.Duration
	MaxBatchSize int
	// Timeout bounds one batch round trip, zero means no extra bound.
	Timeout     time.Duration
	Transformer Transformer
}

type httpRequestFunc func(ctx context.Context, url string) (*http.Response, error)

type pendingCall struct {
	ctx       context.Context
	procedure string
	input     json.RawMessage
	done      chan callResult
}

type callResult struct {
	data json.RawMessage
	err  error
}

type client struct {
	config  ClientConfig
	request httpRequestFunc
	metrics *metrics.Collector

	lock       sync.Mutex
	pending    []*pendingCall
	generation uint64
}

var _ Client = (*client)(nil)

func NewClient(config ClientConfig, httpClient *http.Client, collector *metrics.Collector) (Client, error) {
	if _, err := parseBaseURL(config.URL); err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	request := func(ctx context.Context, url string) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")
		return httpClient.Do(req)
	}

	return newClient(config, request, collector), nil
}

func newClient(config ClientConfig, request httpRequestFunc, collector *metrics.Collector) *client {
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = DefaultMaxBatchSize
	}

	if config.Transformer == nil {
		config.Transformer = SuperJSON{}
	}

	config.URL = strings.TrimRight(config.URL, "/")

	return &client{
		config:  config,
		request: request,
		metrics: collector,
	}
}

func (c *client) Query(ctx context.Context, procedure string, input, out interface{}) error {
	if procedure == "" || strings.Contains(procedure, procedurePathSeparator) {
		return fmt.Errorf("%w: %q", ErrInvalidProcedure, procedure)
	}

	call := &pendingCall{
		ctx:       ctx,
		procedure: procedure,
		done:      make(chan callResult, 1),
	}

	if input != nil {
		serialized, err := c.config.Transformer.Serialize(input)
		if err != nil {
			return err
		}
		call.input = serialized
	}

	c.enqueue(call)

	select {
	case result := <-call.done:
		if result.err != nil {
			return result.err
		}

		return c.config.Transformer.Deserialize(result.data, out)

	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}

		return ctx.Err()
	}
}

func (c *client) enqueue(call *pendingCall) {
	c.lock.Lock()
	c.pending = append(c.pending, call)

	if len(c.pending) >= c.config.MaxBatchSize {
		batch := c.takePendingLocked()
		c.lock.Unlock()

		go c.send(batch)
		return
	}

	startsBatch := len(c.pending) == 1
	generation := c.generation
	c.lock.Unlock()

	if startsBatch {
		go c.flushAfterWindow(generation)
	}
}

func (c *client) flushAfterWindow(generation uint64) {
	if c.config.BatchWindow > 0 {
		time.Sleep(c.config.BatchWindow)
	} else {
		runtime.Gosched()
	}

	c.lock.Lock()
	if c.generation != generation || len(c.pending) == 0 {
		// flushed early because the batch filled up
		c.lock.Unlock()
		return
	}

	batch := c.takePendingLocked()
	c.lock.Unlock()

	c.send(batch)
}

func (c *client) takePendingLocked() []*pendingCall {
	batch := c.pending
	c.pending = nil
	c.generation++

	return batch
}

func (c *client) send(batch []*pendingCall) {
	c.metrics.ObserveRPCBatch(len(batch))

	ctx, cancel := batchContext(batch)
	defer cancel()

	if c.config.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, c.config.Timeout)
		defer timeoutCancel()
	}

	results, err := c.roundTrip(ctx, batch)
	for i, call := range batch {
		if err != nil {
			call.done <- callResult{err: err}
			continue
		}

		call.done <- results[i]
	}
}

func (c *client) roundTrip(ctx context.Context, batch []*pendingCall) ([]callResult, error) {
	requestURL, err := c.batchURL(batch)
	if err != nil {
		return nil, err
	}

	response, err := c.request(ctx, requestURL)
	if err != nil {
		return nil, convertRequestError(ctx, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, DefaultMaxResponseSize))
	if err != nil {
		return nil, convertRequestError(ctx, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, c.wholeBatchError(response.StatusCode, body)
	}

	if len(items) != len(batch) {
		return nil, ErrBatchSizeMismatch
	}

	results := make([]callResult, len(batch))
	for i, item := range items {
		results[i] = c.decodeItem(item, batch[i].procedure)
	}

	return results, nil
}

func (c *client) batchURL(batch []*pendingCall) (string, error) {
	procedures := make([]string, len(batch))
	inputs := make(map[string]json.RawMessage, len(batch))

	for i, call := range batch {
		procedures[i] = url.PathEscape(call.procedure)
		if call.input != nil {
			inputs[strconv.Itoa(i)] = call.input
		}
	}

	encodedInputs, err := json.Marshal(inputs)
	if err != nil {
		return "", err
	}

	query := batchQueryParam + "=1&" + inputQueryParam + "=" + url.QueryEscape(string(encodedInputs))
	return c.config.URL + "/" + strings.Join(procedures, procedurePathSeparator) + "?" + query, nil
}

type responseItem struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error json.RawMessage `json:"error"`
}

func (c *client) decodeItem(raw json.RawMessage, procedure string) callResult {
	var item responseItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return callResult{err: fmt.Errorf("%w: %s", ErrUnexpectedResponse, err)}
	}

	if !isNullOrEmpty(item.Error) {
		return callResult{err: c.decodeError(item.Error, procedure)}
	}

	if item.Result == nil {
		return callResult{err: ErrUnexpectedResponse}
	}

	return callResult{data: item.Result.Data}
}

func (c *client) decodeError(raw json.RawMessage, procedure string) error {
	var wire wireError
	if err := c.config.Transformer.Deserialize(raw, &wire); err != nil {
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, err)
	}

	rpcErr := wire.toError()
	if rpcErr.Path == "" {
		rpcErr.Path = procedure
	}

	return rpcErr
}

func (c *client) wholeBatchError(status int, body []byte) error {
	var item responseItem
	if err := json.Unmarshal(body, &item); err == nil && !isNullOrEmpty(item.Error) {
		return c.decodeError(item.Error, "")
	}

	return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, status)
}

func isNullOrEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// batchContext stays alive while at least one caller still waits.
func batchContext(batch []*pendingCall) (context.Context, context.CancelFunc) {
	if len(batch) == 1 {
		return context.WithCancel(batch[0].ctx)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for _, call := range batch {
			select {
			case <-call.ctx.Done():
			case <-ctx.Done():
				return
			}
		}
		cancel()
	}()

	return ctx, cancel
}

func convertRequestError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %s", ErrUnavailable, err)
}

// BaseURL joins a server url with the rpc mount path.
func BaseURL(serverURL, rpcPath string) (string, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return "", err
	}

	if rpcPath == "" {
		rpcPath = DefaultRPCPath
	}

	base.Path = strings.TrimRight(base.Path, "/") + "/" + strings.Trim(rpcPath, "/")
	return base.String(), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}

var (
	ErrInvalidBaseURL   = errors.New("rpc base url must be an absolute http url")
	ErrInvalidProcedure = errors.New("invalid rpc procedure name")
)
