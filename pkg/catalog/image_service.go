package catalog

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thebartekbanach/imgproxy/pkg/catalog/repositories"
	"github.com/thebartekbanach/imgproxy/pkg/rpc"
)

type imageService struct {
	repository repositories.ImageRecordsRepository
	logger     logrus.FieldLogger
}

var _ ImageService = (*imageService)(nil)

func NewImageService(repository repositories.ImageRecordsRepository, logger logrus.FieldLogger) ImageService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &imageService{repository, logger}
}

func (s *imageService) ShowOriginal(ctx context.Context, name string) (*repositories.ImageRecordModel, error) {
	record, err := s.repository.GetImageRecordByName(ctx, name)
	if err == repositories.ErrImageRecordNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.WithError(err).WithField("name", name).Error("cannot read image record")
		return nil, err
	}

	return &record, nil
}

// RegisterProcedures exposes the image service on the rpc router.
func RegisterProcedures(router *rpc.Router, service ImageService) {
	router.Register(ShowOriginalProcedure, rpc.Query(func(ctx context.Context, input ShowOriginalInput) (*repositories.ImageRecordModel, error) {
		if strings.TrimSpace(input.Name) == "" {
			return nil, rpc.NewError(rpc.CodeBadRequest, ErrInvalidImageName.Error())
		}

		return service.ShowOriginal(ctx, input.Name)
	}))
}
