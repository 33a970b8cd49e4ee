package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	originDriverCDN   = "cdn"
	originDriverMinio = "minio"

	rpcTransformerSuperJSON = "superjson"
	rpcTransformerJSON      = "json"
)

type Config struct {
	Port      int    `mapstructure:"port"`
	LogFormat string `mapstructure:"log_format"`
	LogLevel  string `mapstructure:"log_level"`

	ServerURL       string `mapstructure:"server_url"`
	PublicServerURL string `mapstructure:"public_server_url"`

	CDNScheme string `mapstructure:"cdn_scheme"`
	CDNHost   string `mapstructure:"cdn_host"`

	Width               int           `mapstructure:"width"`
	Quality             int           `mapstructure:"quality"`
	TransformEndpoint   string        `mapstructure:"transform_endpoint"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	MaxBodySize         int64         `mapstructure:"max_body_size"`
	ForcePNGContentType bool          `mapstructure:"force_png_content_type"`

	LogoName     string `mapstructure:"logo_name"`
	LogoPath     string `mapstructure:"logo_path"`
	LogoFilename string `mapstructure:"logo_filename"`

	AllowedDomains      []string      `mapstructure:"allowed_domains"`
	GatewayMaxWidth     int           `mapstructure:"gateway_max_width"`
	GatewayCacheMaxAge  int           `mapstructure:"gateway_cache_max_age"`
	GatewayFetchTimeout time.Duration `mapstructure:"gateway_fetch_timeout"`

	RPCPath         string        `mapstructure:"rpc_path"`
	RPCBatchWindow  time.Duration `mapstructure:"rpc_batch_window"`
	RPCMaxBatchSize int           `mapstructure:"rpc_max_batch_size"`
	RPCTimeout      time.Duration `mapstructure:"rpc_timeout"`
	RPCTransformer  string        `mapstructure:"rpc_transformer"`

	OriginDriver string `mapstructure:"origin_driver"`

	MongoConnectionString string `mapstructure:"mongo_connection_string"`
	MongoDatabase         string `mapstructure:"mongo_database"`

	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioLocation  string `mapstructure:"minio_location"`
	MinioSSL       bool   `mapstructure:"minio_ssl"`
}

// LoadConfig reads ./config/config.yaml when present and lets IMGPROXY_*
// environment variables override it. SERVER_URL and PUBLIC_SERVER_URL are
// read without the prefix since the storefront shares them.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("IMGPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.BindEnv("server_url", "SERVER_URL"); err != nil {
		return Config{}, err
	}

	if err := v.BindEnv("public_server_url", "PUBLIC_SERVER_URL"); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	return config.withDerivedDefaults(), nil
}

// withDerivedDefaults points the transform endpoint and the rpc clients at
// this process when SERVER_URL is not set.
func (c Config) withDerivedDefaults() Config {
	if c.ServerURL == "" {
		c.ServerURL = fmt.Sprintf("http://127.0.0.1:%d", c.Port)
	}

	if c.TransformEndpoint == "" {
		c.TransformEndpoint = strings.TrimRight(c.ServerURL, "/") + transformRoute
	}

	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_format", "json")
	v.SetDefault("log_level", "info")

	v.SetDefault("server_url", "")
	v.SetDefault("public_server_url", "")

	v.SetDefault("cdn_scheme", "https")
	v.SetDefault("cdn_host", "d26xfdx1w8q2y3.cloudfront.net")

	v.SetDefault("width", 64)
	v.SetDefault("quality", 75)
	v.SetDefault("transform_endpoint", "")
	v.SetDefault("fetch_timeout", 10*time.Second)
	v.SetDefault("max_body_size", 32<<20)
	v.SetDefault("force_png_content_type", false)

	v.SetDefault("logo_name", "icb-logo")
	v.SetDefault("logo_path", "")
	v.SetDefault("logo_filename", "")

	v.SetDefault("allowed_domains", []string{})
	v.SetDefault("gateway_max_width", 3840)
	v.SetDefault("gateway_cache_max_age", 86400)
	v.SetDefault("gateway_fetch_timeout", 20*time.Second)

	v.SetDefault("rpc_path", "/trpc")
	v.SetDefault("rpc_batch_window", time.Duration(0))
	v.SetDefault("rpc_max_batch_size", 16)
	v.SetDefault("rpc_timeout", 5*time.Second)
	v.SetDefault("rpc_transformer", rpcTransformerSuperJSON)

	v.SetDefault("origin_driver", originDriverCDN)

	v.SetDefault("mongo_connection_string", "")
	v.SetDefault("mongo_database", "catalog")

	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_bucket", "")
	v.SetDefault("minio_location", "us-east-1")
	v.SetDefault("minio_ssl", false)
}
