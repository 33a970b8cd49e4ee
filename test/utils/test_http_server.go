package testutils

import (
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/phayes/freeport"
)

// TestHttpServer is a real listener on a free local port, used where
// a test needs the whole HTTP client path and not just a handler.
type TestHttpServer struct {
	*http.ServeMux
}

func NewTestHttpServer() *TestHttpServer {
	return &TestHttpServer{http.NewServeMux()}
}

// Start serves the mux until the test ends and returns its base url,
// e.g. http://127.0.0.1:41234.
func (s *TestHttpServer) Start(t *testing.T) string {
	t.Helper()

	port, err := freeport.GetFreePort()
	if err != nil {
		t.Fatalf("cannot get free port for test server: %v", err)
	}

	address := fmt.Sprintf("127.0.0.1:%d", port)
	srv := &http.Server{
		Addr:              address,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	t.Cleanup(func() {
		srv.Close()
	})

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			t.Errorf("test server stopped: %v", err)
		}
	}()

	waitForListener(t, address)
	return "http://" + address
}

func waitForListener(t *testing.T, address string) {
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt < 20; attempt++ {
		conn, err := net.DialTimeout("tcp", address, time.Second)
		if err != nil {
			time.Sleep(backoff)
			continue
		}

		conn.Close()
		return
	}

	t.Fatalf("test server on %s not up after 20 attempts", address)
}
