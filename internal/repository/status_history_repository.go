package repository

import (
	"context"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"gorm.io/gorm"
)

// StatusHistoryRepository 状态历史仓储接口
type StatusHistoryRepository interface {
	Save(ctx context.Context, history *model.StatusHistoryModel) error
	FindByRequestID(ctx context.Context, requestID uint) ([]*model.StatusHistoryModel, error)
	DeleteByRequestID(ctx context.Context, requestID uint) error
}

// statusHistoryRepository 状态历史仓储实现
type statusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository 创建状态历史仓储
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

// Save 保存状态历史
func (r *statusHistoryRepository) Save(ctx context.Context, history *model.StatusHistoryModel) error {
	if err := history.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(history).Error
}

// FindByRequestID 根据请求 ID 查找状态历史
func (r *statusHistoryRepository) FindByRequestID(ctx context.Context, requestID uint) ([]*model.StatusHistoryModel, error) {
	var histories []*model.StatusHistoryModel
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("created_at ASC").Find(&histories).Error
	return histories, err
}

// DeleteByRequestID 删除某个请求的状态历史
func (r *statusHistoryRepository) DeleteByRequestID(ctx context.Context, requestID uint) error {
	return r.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(&model.StatusHistoryModel{}).Error
}
