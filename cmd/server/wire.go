//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/sirupsen/logrus"
	"github.com/thebartekbanach/imgproxy/pkg/proxy"
)

func InitializeApp(ctx context.Context, config Config) (*App, func()) {
	wire.Build(
		InitializeLogger,
		wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
		InitializeMetrics,
		InitializeHTTPClient,

		InitializeImageFetcher,
		InitializeCDN,
		InitializeOriginStore,
		InitializeGateway,

		InitializeRPCTransformer,
		InitializeRPCClients,
		InitializeImageResolver,
		InitializeCatalogRouter,

		InitializeProxyConfig,
		proxy.NewProxyService,

		NewHandlers,
		NewRouter,
		NewApp,
	)

	return &App{}, nil
}
