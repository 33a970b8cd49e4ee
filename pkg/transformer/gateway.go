package transformer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/url"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/ryanuber/go-glob"
	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
)

const (
	DefaultMaxWidth    = 3840
	DefaultQuality     = 75
	DefaultCacheMaxAge = 60 * 60 * 24
)

type Config struct {
	// AllowedDomains are glob patterns matched against the source image host.
	// Empty list allows every host.
	AllowedDomains []string
	MaxWidth       int
	DefaultQuality int
	// CacheMaxAge is sent to clients in seconds, nothing is cached here.
	CacheMaxAge int
}

// Request is a parsed transform gateway request.
type Request struct {
	SourceURL string
	Width     int
	Quality   int
}

type Gateway interface {
	ParseRequest(query url.Values) (Request, error)
	Transform(ctx context.Context, request Request) (imagefetcher.Image, error)
	CacheMaxAge() int
}

type gateway struct {
	config  Config
	fetcher imagefetcher.Fetcher
}

var _ Gateway = (*gateway)(nil)

func NewGateway(config Config, fetcher imagefetcher.Fetcher) Gateway {
	if config.MaxWidth <= 0 {
		config.MaxWidth = DefaultMaxWidth
	}

	if config.DefaultQuality <= 0 || config.DefaultQuality > 100 {
		config.DefaultQuality = DefaultQuality
	}

	if config.CacheMaxAge < 0 {
		config.CacheMaxAge = 0
	}

	return &gateway{config, fetcher}
}

func (g *gateway) ParseRequest(query url.Values) (Request, error) {
	if !query.Has("url") || query.Get("url") == "" {
		return Request{}, ErrURLParamNotIncluded
	}

	source, err := url.Parse(query.Get("url"))
	if err != nil || !source.IsAbs() || (source.Scheme != "http" && source.Scheme != "https") || source.Host == "" {
		return Request{}, ErrInvalidSourceURL
	}

	if !g.isAllowedImageSourceDomain(source.Hostname()) {
		return Request{}, ErrDomainNotAllowed
	}

	width, err := strconv.Atoi(query.Get("w"))
	if err != nil || width <= 0 || width > g.config.MaxWidth {
		return Request{}, ErrInvalidWidth
	}

	quality := g.config.DefaultQuality
	if query.Has("q") {
		quality, err = strconv.Atoi(query.Get("q"))
		if err != nil || quality < 1 || quality > 100 {
			return Request{}, ErrInvalidQuality
		}
	}

	return Request{
		SourceURL: source.String(),
		Width:     width,
		Quality:   quality,
	}, nil
}

func (g *gateway) Transform(ctx context.Context, request Request) (imagefetcher.Image, error) {
	source, err := g.fetcher.Fetch(ctx, request.SourceURL)
	if err != nil {
		return imagefetcher.Image{}, err
	}

	_, formatName, err := image.DecodeConfig(bytes.NewReader(source.Data))
	if err != nil {
		return imagefetcher.Image{}, ErrUnsupportedImage
	}

	img, err := imaging.Decode(bytes.NewReader(source.Data), imaging.AutoOrientation(true))
	if err != nil {
		return imagefetcher.Image{}, ErrUnsupportedImage
	}

	if request.Width < img.Bounds().Dx() {
		img = imaging.Resize(img, request.Width, 0, imaging.Lanczos)
	}

	format, contentType := outputFormat(formatName)

	var buffer bytes.Buffer
	if err := imaging.Encode(&buffer, img, format, imaging.JPEGQuality(request.Quality)); err != nil {
		return imagefetcher.Image{}, err
	}

	return imagefetcher.Image{
		ContentType: contentType,
		Data:        buffer.Bytes(),
	}, nil
}

func (g *gateway) CacheMaxAge() int {
	return g.config.CacheMaxAge
}

func (g *gateway) isAllowedImageSourceDomain(host string) bool {
	if len(g.config.AllowedDomains) == 0 {
		return true
	}

	for _, allowedDomain := range g.config.AllowedDomains {
		if glob.Glob(allowedDomain, host) {
			return true
		}
	}

	return false
}

func outputFormat(decodedFormat string) (imaging.Format, string) {
	switch decodedFormat {
	case "jpeg":
		return imaging.JPEG, "image/jpeg"
	case "gif":
		return imaging.GIF, "image/gif"
	default:
		return imaging.PNG, "image/png"
	}
}

var (
	ErrURLParamNotIncluded = errors.New("url param not included")
	ErrInvalidSourceURL    = errors.New("url param is not an absolute http url")
	ErrDomainNotAllowed    = errors.New("source image domain not allowed")
	ErrInvalidWidth        = errors.New("w param must be a positive integer within the width limit")
	ErrInvalidQuality      = errors.New("q param must be an integer between 1 and 100")
	ErrUnsupportedImage    = errors.New("source is not a supported image")
)
