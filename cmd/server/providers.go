package main

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/thebartekbanach/imgproxy/pkg/catalog"
	"github.com/thebartekbanach/imgproxy/pkg/catalog/repositories"
	"github.com/thebartekbanach/imgproxy/pkg/connections"
	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
	"github.com/thebartekbanach/imgproxy/pkg/metrics"
	"github.com/thebartekbanach/imgproxy/pkg/origin"
	"github.com/thebartekbanach/imgproxy/pkg/proxy"
	"github.com/thebartekbanach/imgproxy/pkg/rpc"
	"github.com/thebartekbanach/imgproxy/pkg/transformer"
)

const connectionTimeout = time.Minute

func InitializeLogger(config Config) *logrus.Logger {
	logger := logrus.New()

	switch config.LogFormat {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json", "":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.Panicf("IMGPROXY_LOG_FORMAT must be json or text, got %q", config.LogFormat)
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		logrus.Panicf("Error ocurred when parsing IMGPROXY_LOG_LEVEL: %s", err)
	}

	logger.SetLevel(level)
	return logger
}

func InitializeMetrics() *metrics.Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return metrics.NewCollector(registry)
}

// InitializeHTTPClient returns the client shared by every outbound call.
// Deadlines come from request contexts, so it carries no global timeout.
func InitializeHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32

	return &http.Client{Transport: transport}
}

func InitializeImageFetcher(config Config, client *http.Client) imagefetcher.Fetcher {
	if config.MaxBodySize < 0 {
		logrus.Panic("IMGPROXY_MAX_BODY_SIZE cannot be negative")
	}

	return imagefetcher.NewHTTPFetcher(imagefetcher.Config{MaxBodySize: config.MaxBodySize}, client)
}

func InitializeCDN(config Config) origin.CDN {
	if config.CDNScheme != "http" && config.CDNScheme != "https" {
		logrus.Panicf("IMGPROXY_CDN_SCHEME must be http or https, got %q", config.CDNScheme)
	}

	if config.CDNHost == "" {
		logrus.Panic("IMGPROXY_CDN_HOST is required")
	}

	return origin.CDN{Scheme: config.CDNScheme, Host: config.CDNHost}
}

func InitializeMinioConnectionConfig(config Config) connections.ObjectStorageProductionConnectionConfig {
	minioConfig := connections.ObjectStorageProductionConnectionConfig{
		Endpoint:  config.MinioEndpoint,
		AccessKey: config.MinioAccessKey,
		SecretKey: config.MinioSecretKey,
		Bucket:    config.MinioBucket,
		Location:  config.MinioLocation,
		UseSSL:    config.MinioSSL,
	}

	if minioConfig.Endpoint == "" {
		logrus.Panic("IMGPROXY_MINIO_ENDPOINT is required when IMGPROXY_ORIGIN_DRIVER is minio")
	}

	if minioConfig.AccessKey == "" {
		logrus.Panic("IMGPROXY_MINIO_ACCESS_KEY is required when IMGPROXY_ORIGIN_DRIVER is minio")
	}

	if minioConfig.SecretKey == "" {
		logrus.Panic("IMGPROXY_MINIO_SECRET_KEY is required when IMGPROXY_ORIGIN_DRIVER is minio")
	}

	if minioConfig.Bucket == "" {
		logrus.Panic("IMGPROXY_MINIO_BUCKET is required when IMGPROXY_ORIGIN_DRIVER is minio")
	}

	if minioConfig.Location == "" {
		minioConfig.Location = "us-east-1"
	}

	return minioConfig
}

// InitializeOriginStore picks where original images are read from.
func InitializeOriginStore(ctx context.Context, config Config, cdn origin.CDN, fetcher imagefetcher.Fetcher) origin.Store {
	switch config.OriginDriver {
	case originDriverCDN, "":
		return origin.NewCDNStore(cdn, fetcher)

	case originDriverMinio:
		ctx, cancel := context.WithTimeout(ctx, connectionTimeout)
		defer cancel()

		conn, err := connections.NewObjectStorageProductionConnection(ctx, InitializeMinioConnectionConfig(config))
		if err != nil {
			logrus.Panicf("Error ocurred when initializing Minio connection: %s", err)
		}

		return origin.NewMinioStore(&conn, config.MaxBodySize)

	default:
		logrus.Panicf("IMGPROXY_ORIGIN_DRIVER must be cdn or minio, got %q", config.OriginDriver)
		return nil
	}
}

func InitializeGateway(config Config, fetcher imagefetcher.Fetcher) transformer.Gateway {
	allowedDomains := config.AllowedDomains
	if len(allowedDomains) == 0 || len(allowedDomains) == 1 && allowedDomains[0] == "" {
		allowedDomains = []string{config.CDNHost}
	}

	return transformer.NewGateway(transformer.Config{
		AllowedDomains: allowedDomains,
		MaxWidth:       config.GatewayMaxWidth,
		DefaultQuality: config.Quality,
		CacheMaxAge:    config.GatewayCacheMaxAge,
	}, fetcher)
}

func InitializeRPCTransformer(config Config) rpc.Transformer {
	switch config.RPCTransformer {
	case rpcTransformerSuperJSON, "":
		return rpc.SuperJSON{}
	case rpcTransformerJSON:
		return rpc.JSON{}
	default:
		logrus.Panicf("IMGPROXY_RPC_TRANSFORMER must be superjson or json, got %q", config.RPCTransformer)
		return nil
	}
}

func InitializeRPCClients(config Config, rpcTransformer rpc.Transformer, client *http.Client, collector *metrics.Collector) rpc.Clients {
	if _, err := url.ParseRequestURI(config.ServerURL); err != nil {
		logrus.Panicf("Error ocurred when parsing SERVER_URL: %s", err)
	}

	clients, err := rpc.NewClients(rpc.ClientsConfig{
		ServerURL:       config.ServerURL,
		PublicServerURL: config.PublicServerURL,
		RPCPath:         config.RPCPath,
		Client: rpc.ClientConfig{
			BatchWindow:  config.RPCBatchWindow,
			MaxBatchSize: config.RPCMaxBatchSize,
			Timeout:      config.RPCTimeout,
			Transformer:  rpcTransformer,
		},
	}, client, collector)
	if err != nil {
		logrus.Panicf("Error ocurred when initializing rpc clients: %s", err)
	}

	return clients
}

// InitializeImageResolver resolves names from inside the deployment.
func InitializeImageResolver(clients rpc.Clients) catalog.ImageResolver {
	return catalog.NewRPCImageResolver(clients.For(false))
}

func InitializeProxyConfig(config Config, cdn origin.CDN) proxy.Config {
	if _, err := url.ParseRequestURI(config.TransformEndpoint); err != nil {
		logrus.Panicf("Error ocurred when parsing IMGPROXY_TRANSFORM_ENDPOINT: %s", err)
	}

	if config.Quality < 0 || config.Quality > 100 {
		logrus.Panicf("IMGPROXY_QUALITY must be between 1 and 100, got %d", config.Quality)
	}

	return proxy.Config{
		Width:               config.Width,
		Quality:             config.Quality,
		TransformEndpoint:   config.TransformEndpoint,
		CDN:                 cdn,
		LogoName:            config.LogoName,
		LogoPath:            config.LogoPath,
		LogoFilename:        config.LogoFilename,
		FetchTimeout:        config.FetchTimeout,
		ForcePNGContentType: config.ForcePNGContentType,
	}
}

// InitializeCatalogRouter serves image.showOriginal from MongoDB. Without a
// connection string the router is nil and names resolve against SERVER_URL.
func InitializeCatalogRouter(
	ctx context.Context,
	config Config,
	rpcTransformer rpc.Transformer,
	collector *metrics.Collector,
	logger logrus.FieldLogger,
) (*rpc.Router, func()) {
	if config.MongoConnectionString == "" {
		return nil, func() {}
	}

	parsed, err := url.Parse(config.MongoConnectionString)
	if err != nil {
		logrus.Panicf("Error ocurred when parsing IMGPROXY_MONGO_CONNECTION_STRING: %s", err)
	}

	if parsed.Scheme != "mongodb" && parsed.Scheme != "mongodb+srv" {
		logrus.Panic("IMGPROXY_MONGO_CONNECTION_STRING must be a mongodb:// or mongodb+srv:// url")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	conn, err := connections.NewCatalogDBProductionConnection(connectCtx, connections.CatalogDBConfig{
		ConnectionString: config.MongoConnectionString,
		Database:         config.MongoDatabase,
	})
	if err != nil {
		logrus.Panicf("Error ocurred when initializing MongoDB connection: %s", err)
	}

	if err := repositories.EnsureImageRecordsIndexes(connectCtx, conn); err != nil {
		logrus.Panicf("Error ocurred when creating image records indexes: %s", err)
	}

	router := rpc.NewRouter(rpc.RouterConfig{Transformer: rpcTransformer}, collector, logger)
	service := catalog.NewImageService(repositories.NewImageRecordsRepository(conn), logger)
	catalog.RegisterProcedures(router, service)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := conn.Disconnect(ctx); err != nil {
			logger.WithError(err).Error("cannot disconnect from MongoDB")
		}
	}

	return router, cleanup
}
