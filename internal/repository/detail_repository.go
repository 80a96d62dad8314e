package repository

import (
	"context"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"gorm.io/gorm"
)

// DetailRepository 类型明细仓储接口，D 为某个明细表模型
type DetailRepository[D any] interface {
	Create(ctx context.Context, detail *D) error
	List(ctx context.Context, filter RequestFilter) ([]D, int64, error)
	DeleteByRequestID(ctx context.Context, requestID uint) (int64, error)
}

// detailRepository 类型明细仓储实现
type detailRepository[D any] struct {
	db *gorm.DB
}

// NewDetailRepository 创建类型明细仓储
func NewDetailRepository[D any](db *gorm.DB) DetailRepository[D] {
	return &detailRepository[D]{db: db}
}

// Create 插入明细，父记录 ID 必须已回填
func (r *detailRepository[D]) Create(ctx context.Context, detail *D) error {
	if parent, ok := any(detail).(interface{ ParentID() uint }); ok && parent.ParentID() == 0 {
		return model.ErrDetailWithoutParent
	}
	return r.db.WithContext(ctx).Omit("Request").Create(detail).Error
}

// List 查询明细并预加载父记录；过滤条件作用于父记录
func (r *detailRepository[D]) List(ctx context.Context, filter RequestFilter) ([]D, int64, error) {
	base := func(db *gorm.DB) *gorm.DB {
		db = db.Model(new(D))
		if filter.Status != "" || filter.Priority != "" {
			parents := filter.apply(r.db.Model(&model.ServiceRequestModel{}).Select("id"), "")
			db = db.Where("request_id IN (?)", parents)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(base).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]D, 0)
	err := r.db.WithContext(ctx).
		Scopes(base, filter.Paginate).
		Preload("Request").
		Order("request_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DeleteByRequestID 删除某个父记录的明细
func (r *detailRepository[D]) DeleteByRequestID(ctx context.Context, requestID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(new(D))
	return result.RowsAffected, result.Error
}
