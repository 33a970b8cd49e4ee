package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thebartekbanach/imgproxy/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxConcurrentCalls = 8

// Procedure runs one query. decode fills its argument with the call input.
type Procedure func(ctx context.Context, decode func(out interface{}) error) (interface{}, error)

// Query adapts a typed function to a Procedure.
func Query[I any, O any](fn func(ctx context.Context, input I) (O, error)) Procedure {
	return func(ctx context.Context, decode func(out interface{}) error) (interface{}, error) {
		var input I
		if err := decode(&input); err != nil {
			return nil, NewError(CodeBadRequest, err.Error())
		}

		return fn(ctx, input)
	}
}

type RouterConfig struct {
	MaxConcurrentCalls int
	Transformer        Transformer
}

type Router struct {
	config     RouterConfig
	procedures map[string]Procedure
	metrics    *metrics.Collector
	logger     logrus.FieldLogger
}

func NewRouter(config RouterConfig, collector *metrics.Collector, logger logrus.FieldLogger) *Router {
	if config.MaxConcurrentCalls <= 0 {
		config.MaxConcurrentCalls = DefaultMaxConcurrentCalls
	}

	if config.Transformer == nil {
		config.Transformer = SuperJSON{}
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Router{
		config:     config,
		procedures: map[string]Procedure{},
		metrics:    collector,
		logger:     logger,
	}
}

func (r *Router) Register(name string, procedure Procedure) {
	if name == "" || strings.Contains(name, procedurePathSeparator) {
		panic(fmt.Sprintf("rpc: invalid procedure name %q", name))
	}

	if _, exists := r.procedures[name]; exists {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", name))
	}

	r.procedures[name] = procedure
}

// Handle serves a call to the comma separated procedures path.
// It returns the HTTP status and the JSON body to write.
func (r *Router) Handle(ctx context.Context, procedures string, query url.Values) (int, []byte) {
	names := strings.Split(strings.Trim(procedures, "/"), procedurePathSeparator)
	isBatch := query.Get(batchQueryParam) == "1"

	if !isBatch && len(names) > 1 {
		return r.wholeRequestError(NewError(CodeBadRequest, "multiple procedures require batch=1"))
	}

	inputs, err := r.parseInputs(query.Get(inputQueryParam), isBatch)
	if err != nil {
		return r.wholeRequestError(err)
	}

	items := make([]interface{}, len(names))
	statuses := make([]int, len(names))

	var group errgroup.Group
	group.SetLimit(r.config.MaxConcurrentCalls)

	for i, name := range names {
		i, name := i, name
		var input json.RawMessage
		if isBatch {
			input = inputs[strconv.Itoa(i)]
		} else {
			input = inputs[""]
		}

		group.Go(func() error {
			items[i], statuses[i] = r.call(ctx, name, input)
			return nil
		})
	}

	group.Wait()

	var body []byte
	if isBatch {
		body, err = json.Marshal(items)
	} else {
		body, err = json.Marshal(items[0])
	}

	if err != nil {
		r.logger.WithError(err).Error("cannot marshal rpc response")
		return http.StatusInternalServerError, []byte(`{"error":"internal"}`)
	}

	return batchStatus(statuses), body
}

// Handler serves the router under prefix, e.g. "/trpc".
func (r *Router) Handler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if req.Method != http.MethodGet {
			status, body := r.wholeRequestError(NewError(CodeMethodNotSupported, "only queries are supported"))
			w.WriteHeader(status)
			w.Write(body)
			return
		}

		status, body := r.Handle(req.Context(), strings.TrimPrefix(req.URL.Path, prefix), req.URL.Query())
		w.WriteHeader(status)
		w.Write(body)
	})
}

func (r *Router) parseInputs(raw string, isBatch bool) (map[string]json.RawMessage, error) {
	if raw == "" {
		return map[string]json.RawMessage{}, nil
	}

	if !isBatch {
		return map[string]json.RawMessage{"": json.RawMessage(raw)}, nil
	}

	var inputs map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, NewError(CodeParseError, "input must be a json object keyed by call index")
	}

	return inputs, nil
}

type resultItem struct {
	Result resultData `json:"result"`
}

type resultData struct {
	Data json.RawMessage `json:"data"`
}

type errorItem struct {
	Error json.RawMessage `json:"error"`
}

func (r *Router) call(ctx context.Context, name string, input json.RawMessage) (interface{}, int) {
	procedure, ok := r.procedures[name]
	if !ok {
		return r.errorItem(name, NewError(CodeNotFound, fmt.Sprintf("no query procedure on path %q", name)))
	}

	decode := func(out interface{}) error {
		if len(input) == 0 {
			return nil
		}

		return r.config.Transformer.Deserialize(input, out)
	}

	output, err := procedure(ctx, decode)
	if err != nil {
		return r.errorItem(name, err)
	}

	data, err := r.config.Transformer.Serialize(output)
	if err != nil {
		return r.errorItem(name, err)
	}

	r.metrics.RecordRPCProcedureCall(name, "OK")
	return resultItem{resultData{data}}, http.StatusOK
}

func (r *Router) errorItem(name string, err error) (interface{}, int) {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		r.logger.WithError(err).WithField("procedure", name).Error("rpc procedure failed")
		rpcErr = NewError(CodeInternalServerError, err.Error())
	}

	withPath := *rpcErr
	withPath.Path = name

	metricName := name
	if _, known := r.procedures[name]; !known {
		metricName = "unknown"
	}
	r.metrics.RecordRPCProcedureCall(metricName, withPath.Code)

	wire := withPath.toWire()
	serialized, serializeErr := r.config.Transformer.Serialize(wire)
	if serializeErr != nil {
		serialized = json.RawMessage(`{"json":{"message":"internal","code":-32603}}`)
	}

	return errorItem{serialized}, wire.Data.HTTPStatus
}

func (r *Router) wholeRequestError(err error) (int, []byte) {
	item, status := r.errorItem("", err)
	body, _ := json.Marshal(item)
	return status, body
}

// batchStatus is 200 when every call succeeded, the common status when
// all calls failed the same way and 207 otherwise.
func batchStatus(statuses []int) int {
	first := statuses[0]
	for _, status := range statuses[1:] {
		if status != first {
			return http.StatusMultiStatus
		}
	}

	return first
}
