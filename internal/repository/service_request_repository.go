package repository

import (
	"context"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"gorm.io/gorm"
)

// RequestFilter 列表过滤与分页条件
type RequestFilter struct {
	Type     model.RequestType
	Status   model.Status
	Priority model.Priority
	Page     int // 从 1 开始，0 表示不分页
	PageSize int
}

// Paginate 返回分页 scope
func (f RequestFilter) Paginate(db *gorm.DB) *gorm.DB {
	if f.Page <= 0 || f.PageSize <= 0 {
		return db
	}
	return db.Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize)
}

// apply 将类型、状态、优先级条件应用到 service_requests 查询
func (f RequestFilter) apply(db *gorm.DB, prefix string) *gorm.DB {
	if f.Type != "" {
		db = db.Where(prefix+"type = ?", f.Type)
	}
	if f.Status != "" {
		db = db.Where(prefix+"status = ?", f.Status)
	}
	if f.Priority != "" {
		db = db.Where(prefix+"priority = ?", f.Priority)
	}
	return db
}

// RequestRow 看板行：通用记录 + 位置全称
type RequestRow struct {
	ID           uint              `json:"id"`
	Type         model.RequestType `json:"type"`
	Location     string            `json:"location"`
	LongNameLoc  string            `json:"long_name_loc"`
	Status       model.Status      `json:"status"`
	EmployeeName string            `gorm:"column:emp_name" json:"emp_name"`
	Priority     model.Priority    `json:"priority"`
}

// ServiceRequestRepository 通用服务请求仓储接口
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *model.ServiceRequestModel) error
	FindByID(ctx context.Context, id uint) (*model.ServiceRequestModel, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.ServiceRequestModel, error)
	UpdateStatus(ctx context.Context, id uint, status model.Status) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
	List(ctx context.Context, filter RequestFilter) ([]*RequestRow, int64, error)
	CountByStatus(ctx context.Context) (map[model.Status]int64, error)
}

// serviceRequestRepository 通用服务请求仓储实现
type serviceRequestRepository struct {
	db *gorm.DB
}

// NewServiceRequestRepository 创建通用服务请求仓储
func NewServiceRequestRepository(db *gorm.DB) ServiceRequestRepository {
	return &serviceRequestRepository{db: db}
}

// Create 插入通用记录，ID 由数据库生成并回填
func (r *serviceRequestRepository) Create(ctx context.Context, req *model.ServiceRequestModel) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(req).Error
}

// FindByID 根据 ID 查找
func (r *serviceRequestRepository) FindByID(ctx context.Context, id uint) (*model.ServiceRequestModel, error) {
	var req model.ServiceRequestModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIdempotencyKey 根据幂等键查找
func (r *serviceRequestRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.ServiceRequestModel, error) {
	var req model.ServiceRequestModel
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateStatus 只更新 status 列
func (r *serviceRequestRepository) UpdateStatus(ctx context.Context, id uint, status model.Status) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ServiceRequestModel{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// Delete 删除通用记录
func (r *serviceRequestRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ServiceRequestModel{})
	return result.RowsAffected, result.Error
}

// List 查询看板行，按 ID 升序
func (r *serviceRequestRepository) List(ctx context.Context, filter RequestFilter) ([]*RequestRow, int64, error) {
	base := func(db *gorm.DB) *gorm.DB {
		return filter.apply(db.Model(&model.ServiceRequestModel{}), "service_requests.")
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(base).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*RequestRow
	err := r.db.WithContext(ctx).
		Scopes(base, filter.Paginate).
		Select("service_requests.id, service_requests.type, service_requests.location, " +
			"nodes.long_name AS long_name_loc, service_requests.status, service_requests.emp_name, service_requests.priority").
		Joins("LEFT JOIN nodes ON nodes.node_id = service_requests.location").
		Order("service_requests.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountByStatus 按状态统计数量
func (r *serviceRequestRepository) CountByStatus(ctx context.Context) (map[model.Status]int64, error) {
	var results []struct {
		Status model.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.ServiceRequestModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.Status]int64, len(results))
	for _, s := range model.Statuses() {
		counts[s] = 0
	}
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, nil
}
