package proxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/thebartekbanach/imgproxy/pkg/catalog"
	"github.com/thebartekbanach/imgproxy/pkg/imagefetcher"
	"github.com/thebartekbanach/imgproxy/pkg/rpc"
)

const (
	ReasonInvalidPath         = "invalid_path"
	ReasonInvalidName         = "invalid_name"
	ReasonImageNotFound       = "image_not_found"
	ReasonUpstreamNotFound    = "upstream_not_found"
	ReasonUpstreamStatus      = "upstream_status"
	ReasonUpstreamTimeout     = "upstream_timeout"
	ReasonUpstreamUnavailable = "upstream_unavailable"
	ReasonResolverUnavailable = "resolver_unavailable"
	ReasonCanceled            = "canceled"
	ReasonInternal            = "internal"
)

// statusClientClosedRequest is written for requests the client abandoned.
const statusClientClosedRequest = 499

type failure struct {
	status  int
	reason  string
	message string
	err     error
}

func invalidPathFailure(err error) failure {
	return failure{http.StatusBadRequest, ReasonInvalidPath, "invalid image path", err}
}

func resolutionFailure(err error) failure {
	switch {
	case errors.Is(err, catalog.ErrImageNotFound):
		return failure{http.StatusNotFound, ReasonImageNotFound, "image not found", err}
	case errors.Is(err, catalog.ErrInvalidImageName):
		return failure{http.StatusBadRequest, ReasonInvalidName, "invalid image name", err}
	case errors.Is(err, rpc.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return failure{http.StatusGatewayTimeout, ReasonUpstreamTimeout, "image resolver timed out", err}
	case errors.Is(err, context.Canceled):
		return failure{statusClientClosedRequest, ReasonCanceled, "request canceled", err}
	case errors.Is(err, catalog.ErrResolverUnavailable):
		return failure{http.StatusBadGateway, ReasonResolverUnavailable, "image resolver unavailable", err}
	default:
		return internalFailure(err)
	}
}

func fetchFailure(err error) failure {
	switch {
	case errors.Is(err, imagefetcher.ErrResponseStatus404):
		return failure{http.StatusNotFound, ReasonUpstreamNotFound, "image not found upstream", err}
	case errors.Is(err, imagefetcher.ErrResponseStatusNotOK), errors.Is(err, imagefetcher.ErrResponseTooLarge):
		return failure{http.StatusBadGateway, ReasonUpstreamStatus, "upstream responded with an error", err}
	case errors.Is(err, imagefetcher.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return failure{http.StatusGatewayTimeout, ReasonUpstreamTimeout, "upstream timed out", err}
	case errors.Is(err, context.Canceled):
		return failure{statusClientClosedRequest, ReasonCanceled, "request canceled", err}
	case errors.Is(err, imagefetcher.ErrUnavailable):
		return failure{http.StatusBadGateway, ReasonUpstreamUnavailable, "upstream unavailable", err}
	default:
		return internalFailure(err)
	}
}

func internalFailure(err error) failure {
	return failure{http.StatusInternalServerError, ReasonInternal, "internal error", err}
}

func (f failure) write(policy ErrorPolicy, responseWriter ProxyResponseWriter) {
	if policy == ErrorsFixed {
		responseWriter.WriteJSON(http.StatusInternalServerError, ErrorBody{Error: FixedErrorMessage})
		return
	}

	responseWriter.WriteJSON(f.status, ErrorBody{Error: f.message, Reason: f.reason})
}
