package proxy

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thebartekbanach/imgproxy/pkg/catalog"
	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
	"github.com/thebartekbanach/imgproxy/pkg/metrics"
	"github.com/thebartekbanach/imgproxy/pkg/origin"
	"github.com/thebartekbanach/imgproxy/pkg/transformer"
)

const (
	targetGateway = "gateway"
	targetOrigin  = "origin"
	outcomeOK     = "ok"
)

type proxyService struct {
	config   Config
	fetcher  imagefetcher.Fetcher
	store    origin.Store
	resolver catalog.ImageResolver
	metrics  *metrics.Collector
	logger   logrus.FieldLogger
}

var _ ProxyService = (*proxyService)(nil)

func NewProxyService(
	config Config,
	fetcher imagefetcher.Fetcher,
	store origin.Store,
	resolver catalog.ImageResolver,
	collector *metrics.Collector,
	logger logrus.FieldLogger,
) ProxyService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &proxyService{
		config:   config.withDefaults(),
		fetcher:  fetcher,
		store:    store,
		resolver: resolver,
		metrics:  collector,
		logger:   logger,
	}
}

func (p *proxyService) Handle(ctx context.Context, request Request, responseWriter ProxyResponseWriter) {
	log := p.logger.WithField("route", request.Route)
	if request.RequestID != "" {
		log = log.WithField("request_id", request.RequestID)
	}

	image, fail := p.proxy(ctx, request, log)
	if fail != nil {
		p.metrics.RecordProxyRequest(request.Route, fail.reason)

		entry := log.WithFields(logrus.Fields{"reason": fail.reason, "status": fail.status})
		if fail.err != nil {
			entry = entry.WithError(fail.err)
		}

		if fail.status >= http.StatusInternalServerError {
			entry.Error("cannot proxy image")
		} else {
			entry.Info("image request rejected")
		}

		fail.write(request.Errors, responseWriter)
		return
	}

	p.metrics.RecordProxyRequest(request.Route, outcomeOK)

	if request.Encoding == EncodingJSON {
		responseWriter.WriteJSON(http.StatusOK, EncodedImage{
			Body:     base64.StdEncoding.EncodeToString(image.Data),
			Encoding: BinaryEncoding,
		})
		return
	}

	responseWriter.WriteImage(p.contentType(image), image.Data)
}

func (p *proxyService) proxy(ctx context.Context, request Request, log logrus.FieldLogger) (imagefetcher.Image, *failure) {
	location, fail := p.locate(ctx, request)
	if fail != nil {
		return imagefetcher.Image{}, fail
	}

	if request.Mode == ModeOriginal {
		return p.fetchOriginal(ctx, location, log)
	}

	return p.fetchTransformed(ctx, location, log)
}

// locate validates the request and resolves it to an origin location.
// Nothing leaves the process before validation passes.
func (p *proxyService) locate(ctx context.Context, request Request) (catalog.ImageLocation, *failure) {
	if request.Reference != nil {
		location, err := request.Reference.Location()
		if err != nil {
			fail := invalidPathFailure(err)
			return catalog.ImageLocation{}, &fail
		}

		return location, nil
	}

	name := strings.TrimSpace(request.LogicalName)
	if name == "" {
		fail := resolutionFailure(catalog.ErrInvalidImageName)
		return catalog.ImageLocation{}, &fail
	}

	if request.Mode == ModeTransform && name == p.config.LogoName && p.config.LogoFilename != "" {
		return catalog.ImageLocation{Path: p.config.LogoPath, Filename: p.config.LogoFilename}, nil
	}

	if p.resolver == nil {
		fail := internalFailure(catalog.ErrResolverUnavailable)
		return catalog.ImageLocation{}, &fail
	}

	resolveCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	location, err := p.resolver.ShowOriginal(resolveCtx, name)
	if err != nil {
		fail := resolutionFailure(err)
		return catalog.ImageLocation{}, &fail
	}

	return location, nil
}

func (p *proxyService) fetchTransformed(ctx context.Context, location catalog.ImageLocation, log logrus.FieldLogger) (imagefetcher.Image, *failure) {
	sourceURL := p.config.CDN.ObjectURL(location.Path, location.Filename)

	gatewayURL, err := transformer.GatewayURL(p.config.TransformEndpoint, sourceURL, transformer.Params{
		Width:   p.config.Width,
		Quality: p.config.Quality,
	})
	if err != nil {
		fail := internalFailure(err)
		return imagefetcher.Image{}, &fail
	}

	log.WithField("url", gatewayURL).Debug("fetching transformed image")

	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	image, err := p.fetcher.Fetch(fetchCtx, gatewayURL)
	return p.finishFetch(targetGateway, start, image, err)
}

func (p *proxyService) fetchOriginal(ctx context.Context, location catalog.ImageLocation, log logrus.FieldLogger) (imagefetcher.Image, *failure) {
	log.WithFields(logrus.Fields{"path": location.Path, "filename": location.Filename}).Debug("fetching original image")

	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	image, err := p.store.Fetch(fetchCtx, location.Path, location.Filename)
	return p.finishFetch(targetOrigin, start, image, err)
}

func (p *proxyService) finishFetch(target string, start time.Time, image imagefetcher.Image, err error) (imagefetcher.Image, *failure) {
	if err != nil {
		fail := fetchFailure(err)
		p.metrics.RecordUpstreamFetch(target, fail.reason, time.Since(start))
		return imagefetcher.Image{}, &fail
	}

	p.metrics.RecordUpstreamFetch(target, outcomeOK, time.Since(start))
	return image, nil
}

func (p *proxyService) contentType(image imagefetcher.Image) string {
	if p.config.ForcePNGContentType || image.ContentType == "" {
		return DefaultContentType
	}

	return image.ContentType
}
