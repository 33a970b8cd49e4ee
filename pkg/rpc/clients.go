package rpc

import (
	"net/http"

	"github.com/thebartekbanach/imgproxy/pkg/metrics"
)

// Clients holds one client per base url. Server is used for calls made
// inside the deployment, Public for calls that must go through the
// public address. Picking one is up to the caller.
type Clients struct {
	Server Client
	Public Client
}

type ClientsConfig struct {
	ServerURL       string
	PublicServerURL string
	RPCPath         string
	Client          ClientConfig
}

func NewClients(config ClientsConfig, httpClient *http.Client, collector *metrics.Collector) (Clients, error) {
	serverClient, err := newClientFor(config.ServerURL, config, httpClient, collector)
	if err != nil {
		return Clients{}, err
	}

	publicURL := config.PublicServerURL
	if publicURL == "" {
		publicURL = config.ServerURL
	}

	publicClient, err := newClientFor(publicURL, config, httpClient, collector)
	if err != nil {
		return Clients{}, err
	}

	return Clients{
		Server: serverClient,
		Public: publicClient,
	}, nil
}

func (c Clients) For(public bool) Client {
	if public {
		return c.Public
	}

	return c.Server
}

func newClientFor(serverURL string, config ClientsConfig, httpClient *http.Client, collector *metrics.Collector) (Client, error) {
	base, err := BaseURL(serverURL, config.RPCPath)
	if err != nil {
		return nil, err
	}

	clientConfig := config.Client
	clientConfig.URL = base

	return NewClient(clientConfig, httpClient, collector)
}
