package service

import (
	"context"

	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/sirupsen/logrus"
)

// LocationService 位置解析服务
type LocationService interface {
	// Resolve 将位置全称解析为节点，多个匹配时取 node_id 最小者
	Resolve(ctx context.Context, name string) (*model.LocationModel, error)
	List(ctx context.Context) ([]*model.LocationModel, error)
}

type locationService struct {
	locationRepo repository.LocationRepository
}

// NewLocationService 创建位置解析服务
func NewLocationService(locationRepo repository.LocationRepository) LocationService {
	return &locationService{locationRepo: locationRepo}
}

// Resolve 解析位置
func (s *locationService) Resolve(ctx context.Context, name string) (*model.LocationModel, error) {
	if name == "" {
		return nil, form.Invalid("location", "required", "is required")
	}

	matches, err := s.locationRepo.FindByLongName(ctx, name)
	if err != nil {
		return nil, storageError("look up location", err)
	}
	if len(matches) == 0 {
		return nil, &NotFoundError{Resource: "location", Key: name}
	}
	if len(matches) > 1 {
		logger().WithFields(logrus.Fields{
			"location": name,
			"matches":  len(matches),
			"node_id":  matches[0].NodeID,
		}).Debug("multiple locations matched, using lowest node id")
	}
	return matches[0], nil
}

// List 列出全部位置
func (s *locationService) List(ctx context.Context) ([]*model.LocationModel, error) {
	locations, err := s.locationRepo.FindAll(ctx)
	if err != nil {
		return nil, storageError("list locations", err)
	}
	return locations, nil
}
