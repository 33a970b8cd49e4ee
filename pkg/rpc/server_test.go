package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testutils "github.com/thebartekbanach/imgproxy/test/utils"
)

type greetingInput struct {
	Name string `json:"name"`
}

type greetingOutput struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func testRouter() *Router {
	router := NewRouter(RouterConfig{}, nil, nil)

	router.Register("greeting.hello", Query(func(_ context.Context, input greetingInput) (greetingOutput, error) {
		return greetingOutput{Message: "hello " + input.Name, At: testTime}, nil
	}))

	router.Register("greeting.missing", Query(func(_ context.Context, input greetingInput) (*greetingOutput, error) {
		return nil, NewError(CodeNotFound, "no greeting for "+input.Name)
	}))

	router.Register("greeting.broken", Query(func(_ context.Context, _ greetingInput) (*greetingOutput, error) {
		return nil, errors.New("database down")
	}))

	return router
}

func batchQuery(t *testing.T, inputs map[string]interface{}) url.Values {
	t.Helper()

	encoded := map[string]json.RawMessage{}
	for key, input := range inputs {
		data, err := SuperJSON{}.Serialize(input)
		require.NoError(t, err)
		encoded[key] = data
	}

	raw, err := json.Marshal(encoded)
	require.NoError(t, err)

	return url.Values{"batch": []string{"1"}, "input": []string{string(raw)}}
}

func TestRouter_HandleBatchKeepsCallOrder(t *testing.T) {
	router := testRouter()

	status, body := router.Handle(context.Background(), "/greeting.hello,greeting.hello", batchQuery(t, map[string]interface{}{
		"0": greetingInput{Name: "first"},
		"1": greetingInput{Name: "second"},
	}))

	require.Equal(t, http.StatusOK, status)

	var items []struct {
		Result struct {
			Data json.RawMessage `json:"data"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 2)

	var first, second greetingOutput
	require.NoError(t, SuperJSON{}.Deserialize(items[0].Result.Data, &first))
	require.NoError(t, SuperJSON{}.Deserialize(items[1].Result.Data, &second))

	assert.Equal(t, "hello first", first.Message)
	assert.Equal(t, "hello second", second.Message)
	assert.Equal(t, map[string][]string{"at": {"Date"}}, metaValues(t, items[0].Result.Data))
}

func TestRouter_HandleStatus(t *testing.T) {
	tests := []struct {
		name       string
		procedures string
		want       int
	}{
		{"all ok", "greeting.hello", http.StatusOK},
		{"all failed alike", "greeting.missing,greeting.missing", http.StatusNotFound},
		{"mixed", "greeting.hello,greeting.missing", http.StatusMultiStatus},
		{"unknown procedure", "greeting.nope", http.StatusNotFound},
		{"internal error", "greeting.broken", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := testRouter().Handle(context.Background(), tt.procedures, batchQuery(t, map[string]interface{}{
				"0": greetingInput{Name: "a"},
				"1": greetingInput{Name: "b"},
			}))

			assert.Equal(t, tt.want, status)
		})
	}
}

func TestRouter_HandleRejectsMultipleProceduresWithoutBatch(t *testing.T) {
	status, _ := testRouter().Handle(context.Background(), "greeting.hello,greeting.hello", url.Values{})

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_HandleRejectsMalformedBatchInput(t *testing.T) {
	status, _ := testRouter().Handle(context.Background(), "greeting.hello", url.Values{
		"batch": []string{"1"},
		"input": []string{"[not json"},
	})

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_HandlerRejectsNonGetMethods(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/trpc/greeting.hello", nil)

	testRouter().Handler("/trpc").ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestRouter_RegisterPanicsOnDuplicate(t *testing.T) {
	router := testRouter()

	assert.Panics(t, func() {
		router.Register("greeting.hello", nil)
	})
}

func TestClientAndRouter_OverHTTP(t *testing.T) {
	server := testutils.NewTestHttpServer()
	server.Handle("/trpc/", testRouter().Handler("/trpc"))
	baseURL := server.Start(t)

	clients, err := NewClients(ClientsConfig{ServerURL: baseURL, Client: ClientConfig{Timeout: 5 * time.Second}}, nil, nil)
	require.NoError(t, err)

	var greeting greetingOutput
	err = clients.Server.Query(context.Background(), "greeting.hello", greetingInput{Name: "catalog"}, &greeting)
	require.NoError(t, err)
	assert.Equal(t, "hello catalog", greeting.Message)
	assert.True(t, greeting.At.Equal(testTime))

	err = clients.Server.Query(context.Background(), "greeting.missing", greetingInput{Name: "catalog"}, &greeting)
	assert.True(t, IsNotFound(err))

	var rpcErr *Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "greeting.missing", rpcErr.Path)
	assert.Equal(t, http.StatusNotFound, rpcErr.HTTPStatus)
}
