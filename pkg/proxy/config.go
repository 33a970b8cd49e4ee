package proxy

import (
	"time"

	"github.com/thebartekbanach/imgproxy/pkg/origin"
)

const (
	DefaultWidth        = 64
	DefaultQuality      = 75
	DefaultLogoName     = "icb-logo"
	DefaultFetchTimeout = 10 * time.Second
)

type Config struct {
	Width   int
	Quality int

	// TransformEndpoint is the absolute url of the transform gateway,
	// usually ${SERVER_URL}/_next/image.
	TransformEndpoint string
	CDN               origin.CDN

	// LogoName is the logical name served by the logo routes. When
	// LogoFilename is set, transform requests for it skip the resolver
	// and read LogoPath/LogoFilename from the CDN.
	LogoName     string
	LogoPath     string
	LogoFilename string

	// FetchTimeout bounds each outbound call of a request.
	FetchTimeout time.Duration

	// ForcePNGContentType answers image/png for every binary response
	// instead of the upstream content type.
	ForcePNGContentType bool
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}

	if c.Quality <= 0 || c.Quality > 100 {
		c.Quality = DefaultQuality
	}

	if c.CDN.Host == "" {
		c.CDN.Host = origin.DefaultCDNHost
	}

	if c.LogoName == "" {
		c.LogoName = DefaultLogoName
	}

	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}

	return c
}
