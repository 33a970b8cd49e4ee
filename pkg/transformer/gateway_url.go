package transformer

import (
	"errors"
	"net/url"
	"strconv"
)

// Params are the resize parameters passed to the gateway.
type Params struct {
	Width   int
	Quality int
}

// GatewayURL builds "<endpoint>?url=<source>&w=<width>&q=<quality>".
// The parameter order is fixed.
func GatewayURL(endpoint, sourceURL string, params Params) (string, error) {
	parsedEndpoint, err := url.Parse(endpoint)
	if err != nil || !parsedEndpoint.IsAbs() {
		return "", ErrInvalidEndpoint
	}

	if params.Width <= 0 {
		return "", ErrInvalidWidth
	}

	if params.Quality < 1 || params.Quality > 100 {
		return "", ErrInvalidQuality
	}

	parsedEndpoint.RawQuery = "url=" + url.QueryEscape(sourceURL) +
		"&w=" + strconv.Itoa(params.Width) +
		"&q=" + strconv.Itoa(params.Quality)
	parsedEndpoint.Fragment = ""

	return parsedEndpoint.String(), nil
}

var ErrInvalidEndpoint = errors.New("transform endpoint must be an absolute url")
