package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
	"github.com/thebartekbanach/imgproxy/pkg/metrics"
	"github.com/thebartekbanach/imgproxy/pkg/proxy"
	"github.com/thebartekbanach/imgproxy/pkg/rpc"
	"github.com/thebartekbanach/imgproxy/pkg/transformer"
)

const (
	routeImageByPath = "image_by_path"
	routeLogo        = "logo"
	routeAdminLogo   = "admin_logo"

	defaultGatewayTimeout = 20 * time.Second
)

type Handlers struct {
	proxy   proxy.ProxyService
	gateway transformer.Gateway
	catalog *rpc.Router
	metrics *metrics.Collector
	logger  logrus.FieldLogger

	logoName       string
	rpcPath        string
	gatewayTimeout time.Duration
}

// NewHandlers binds the HTTP surface to its services. catalogRouter may be
// nil, in which case no rpc routes are served.
func NewHandlers(
	config Config,
	proxyService proxy.ProxyService,
	gateway transformer.Gateway,
	catalogRouter *rpc.Router,
	collector *metrics.Collector,
	logger logrus.FieldLogger,
) *Handlers {
	logoName := config.LogoName
	if logoName == "" {
		logoName = proxy.DefaultLogoName
	}

	rpcPath := config.RPCPath
	if rpcPath == "" {
		rpcPath = rpc.DefaultRPCPath
	}

	gatewayTimeout := config.GatewayFetchTimeout
	if gatewayTimeout <= 0 {
		gatewayTimeout = defaultGatewayTimeout
	}

	return &Handlers{
		proxy:          proxyService,
		gateway:        gateway,
		catalog:        catalogRouter,
		metrics:        collector,
		logger:         logger,
		logoName:       logoName,
		rpcPath:        rpcPath,
		gatewayTimeout: gatewayTimeout,
	}
}

// handleImageByPath serves /api/:path/:file as base64 JSON of the
// transformed image.
func (h *Handlers) handleImageByPath(c *gin.Context) {
	reference := proxy.ParseImageReference(c.Param("path"), c.Param("file"))

	h.proxy.Handle(c.Request.Context(), proxy.Request{
		Route:     routeImageByPath,
		RequestID: c.GetString(requestIDKey),
		Reference: &reference,
		Mode:      proxy.ModeTransform,
		Encoding:  proxy.EncodingJSON,
		Errors:    proxy.ErrorsMapped,
	}, &proxyResponseWriter{c})
}

// handleLogo resolves the logo through the catalog and streams the
// original bytes.
func (h *Handlers) handleLogo(c *gin.Context) {
	h.proxy.Handle(c.Request.Context(), proxy.Request{
		Route:       routeLogo,
		RequestID:   c.GetString(requestIDKey),
		LogicalName: h.logoName,
		Mode:        proxy.ModeOriginal,
		Encoding:    proxy.EncodingBinary,
		Errors:      proxy.ErrorsMapped,
	}, &proxyResponseWriter{c})
}

func (h *Handlers) handleAdminLogo(c *gin.Context) {
	h.proxy.Handle(c.Request.Context(), proxy.Request{
		Route:       routeAdminLogo,
		RequestID:   c.GetString(requestIDKey),
		LogicalName: h.logoName,
		Mode:        proxy.ModeTransform,
		Encoding:    proxy.EncodingBinary,
		Errors:      proxy.ErrorsFixed,
	}, &proxyResponseWriter{c})
}

func (h *Handlers) handleTransform(c *gin.Context) {
	log := h.logger.WithField("request_id", c.GetString(requestIDKey))

	request, err := h.gateway.ParseRequest(c.Request.URL.Query())
	if err != nil {
		h.writeGatewayError(c, log, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.gatewayTimeout)
	defer cancel()

	image, err := h.gateway.Transform(ctx, request)
	if err != nil {
		h.writeGatewayError(c, log.WithField("url", request.SourceURL), err)
		return
	}

	h.metrics.RecordTransformRequest("ok")

	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", h.gateway.CacheMaxAge()))
	c.Data(http.StatusOK, image.ContentType, image.Data)
}

func (h *Handlers) writeGatewayError(c *gin.Context, log logrus.FieldLogger, err error) {
	status, reason := gatewayErrorStatus(err)
	h.metrics.RecordTransformRequest(reason)

	entry := log.WithError(err).WithField("reason", reason)
	if status >= http.StatusInternalServerError {
		entry.Error("cannot transform image")
	} else {
		entry.Info("transform request rejected")
	}

	c.JSON(status, proxy.ErrorBody{Error: err.Error(), Reason: reason})
}

func gatewayErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, transformer.ErrURLParamNotIncluded),
		errors.Is(err, transformer.ErrInvalidSourceURL),
		errors.Is(err, transformer.ErrInvalidWidth),
		errors.Is(err, transformer.ErrInvalidQuality):
		return http.StatusBadRequest, "invalid_params"
	case errors.Is(err, transformer.ErrDomainNotAllowed):
		return http.StatusForbidden, "domain_not_allowed"
	case errors.Is(err, imagefetcher.ErrResponseStatus404):
		return http.StatusNotFound, "source_not_found"
	case errors.Is(err, transformer.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, "unsupported_image"
	case errors.Is(err, imagefetcher.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	case errors.Is(err, imagefetcher.ErrResponseStatusNotOK),
		errors.Is(err, imagefetcher.ErrResponseTooLarge),
		errors.Is(err, imagefetcher.ErrUnavailable):
		return http.StatusBadGateway, "upstream_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handlers) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) handleMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, proxy.ErrorBody{Error: "only GET method is allowed", Reason: "method_not_allowed"})
}

func (h *Handlers) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, proxy.ErrorBody{Error: "route not found", Reason: "not_found"})
}
