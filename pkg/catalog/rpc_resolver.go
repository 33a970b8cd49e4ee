package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thebartekbanach/imgproxy/pkg/rpc"
)

type rpcImageResolver struct {
	client rpc.Client
}

var _ ImageResolver = (*rpcImageResolver)(nil)

func NewRPCImageResolver(client rpc.Client) ImageResolver {
	return &rpcImageResolver{client}
}

func (r *rpcImageResolver) ShowOriginal(ctx context.Context, name string) (ImageLocation, error) {
	if strings.TrimSpace(name) == "" {
		return ImageLocation{}, ErrInvalidImageName
	}

	var location *ImageLocation
	err := r.client.Query(ctx, ShowOriginalProcedure, ShowOriginalInput{Name: name}, &location)
	if err != nil {
		if rpc.IsNotFound(err) {
			return ImageLocation{}, fmt.Errorf("%w: %s", ErrImageNotFound, name)
		}

		if errors.Is(err, context.Canceled) {
			return ImageLocation{}, err
		}

		return ImageLocation{}, fmt.Errorf("%w: %w", ErrResolverUnavailable, err)
	}

	if location == nil {
		return ImageLocation{}, fmt.Errorf("%w: %s", ErrImageNotFound, name)
	}

	if location.Filename == "" {
		return ImageLocation{}, fmt.Errorf("%w: %s has no filename", ErrImageNotFound, name)
	}

	return *location, nil
}
