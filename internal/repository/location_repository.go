package repository

import (
	"context"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationRepository 位置目录仓储接口
type LocationRepository interface {
	FindByLongName(ctx context.Context, longName string) ([]*model.LocationModel, error)
	FindByID(ctx context.Context, nodeID string) (*model.LocationModel, error)
	FindAll(ctx context.Context) ([]*model.LocationModel, error)
	Upsert(ctx context.Context, locations []*model.LocationModel) error
}

// locationRepository 位置目录仓储实现
type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建位置目录仓储
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

// FindByLongName 精确匹配全称，按 node_id 升序返回全部匹配
func (r *locationRepository) FindByLongName(ctx context.Context, longName string) ([]*model.LocationModel, error) {
	var locations []*model.LocationModel
	err := r.db.WithContext(ctx).
		Where("long_name = ?", longName).
		Order("node_id ASC").
		Find(&locations).Error
	return locations, err
}

// FindByID 根据 node_id 查找
func (r *locationRepository) FindByID(ctx context.Context, nodeID string) (*model.LocationModel, error) {
	var location model.LocationModel
	if err := r.db.WithContext(ctx).Where("node_id = ?", nodeID).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// FindAll 查询全部位置
func (r *locationRepository) FindAll(ctx context.Context) ([]*model.LocationModel, error) {
	var locations []*model.LocationModel
	err := r.db.WithContext(ctx).Order("long_name ASC, node_id ASC").Find(&locations).Error
	return locations, err
}

// Upsert 批量写入位置，node_id 冲突时覆盖
func (r *locationRepository) Upsert(ctx context.Context, locations []*model.LocationModel) error {
	if len(locations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "node_id"}},
			UpdateAll: true,
		}).
		Create(&locations).Error
}
