package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/metrics"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// UpdateStatusRequest 状态更新请求
type UpdateStatusRequest struct {
	ID     uint         `json:"id"`
	Status model.Status `json:"status"`
}

// RequestService 看板服务：跨类型列表、状态更新、删除
type RequestService interface {
	List(ctx context.Context, filter repository.RequestFilter) ([]*repository.RequestRow, int64, error)
	Get(ctx context.Context, id uint) (*model.ServiceRequestModel, error)
	UpdateStatus(ctx context.Context, req *UpdateStatusRequest) error
	Delete(ctx context.Context, id uint) error
	History(ctx context.Context, id uint) ([]*model.StatusHistoryModel, error)
	Export(ctx context.Context, w io.Writer, filter repository.RequestFilter) error
}

type requestService struct {
	db          *gorm.DB
	auditLogSvc AuditLogService
	notifier    Notifier
	details     map[model.RequestType]DetailStore
}

// NewRequestService 创建看板服务
func NewRequestService(db *gorm.DB, auditLogSvc AuditLogService, notifier Notifier, stores ...DetailStore) RequestService {
	details := make(map[model.RequestType]DetailStore, len(stores))
	for _, store := range stores {
		details[store.RequestType()] = store
	}
	return &requestService{
		db:          db,
		auditLogSvc: auditLogSvc,
		notifier:    notifier,
		details:     details,
	}
}

// List 列出通用记录（带位置全称）
func (s *requestService) List(ctx context.Context, filter repository.RequestFilter) ([]*repository.RequestRow, int64, error) {
	rows, total, err := repository.NewServiceRequestRepository(s.db).List(ctx, filter)
	if err != nil {
		return nil, 0, storageError("list service requests", err)
	}
	return rows, total, nil
}

// Get 获取单条通用记录
func (s *requestService) Get(ctx context.Context, id uint) (*model.ServiceRequestModel, error) {
	req, err := repository.NewServiceRequestRepository(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "get service request")
	}
	return req, nil
}

// UpdateStatus 更新状态，只修改 status 列；状态转换不限制顺序
func (s *requestService) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) error {
	if req.ID == 0 {
		return form.Invalid("id", "required", "is required")
	}
	if !req.Status.Valid() {
		return form.Invalid("status", "status", "must be one of: Unassigned, Assigned, InProgress, Closed")
	}

	var current *model.ServiceRequestModel
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reqRepo := repository.NewServiceRequestRepository(tx)

		var err error
		current, err = reqRepo.FindByID(ctx, req.ID)
		if err != nil {
			return notFoundOr(err, req.ID, "get service request")
		}
		if current.Status == req.Status {
			return nil
		}

		if _, err := reqRepo.UpdateStatus(ctx, req.ID, req.Status); err != nil {
			return storageError("update status", err)
		}

		history := &model.StatusHistoryModel{
			ID:         uuid.New().String(),
			RequestID:  req.ID,
			FromStatus: current.Status,
			ToStatus:   req.Status,
			Operator:   operator(ctx),
			CreatedAt:  time.Now(),
		}
		if err := repository.NewStatusHistoryRepository(tx).Save(ctx, history); err != nil {
			return storageError("save status history", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return storageError("update status", err)
	}
	if !changed {
		return nil
	}

	metrics.RecordStatusUpdate(string(req.Status))
	recordAudit(ctx, s.auditLogSvc, ActionUpdateStatus, current.Type, req.ID, map[string]interface{}{
		"from": current.Status,
		"to":   req.Status,
	})
	notify(s.notifier, RequestEvent{Event: EventStatusChanged, RequestType: current.Type, ID: req.ID, Status: req.Status})
	return nil
}

// Delete 删除通用记录，并在同一事务中显式删除明细和状态历史
func (s *requestService) Delete(ctx context.Context, id uint) error {
	var current *model.ServiceRequestModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reqRepo := repository.NewServiceRequestRepository(tx)

		var err error
		current, err = reqRepo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, id, "get service request")
		}

		if store, ok := s.details[current.Type]; ok {
			if err := store.DeleteDetail(ctx, tx, id); err != nil {
				return err
			}
		}
		if err := repository.NewStatusHistoryRepository(tx).DeleteByRequestID(ctx, id); err != nil {
			return storageError("delete status history", err)
		}

		affected, err := reqRepo.Delete(ctx, id)
		if err != nil {
			return storageError("delete service request", err)
		}
		if affected == 0 {
			return &NotFoundError{Resource: "service request", Key: uintToString(id)}
		}
		return nil
	})
	if err != nil {
		return storageError("delete service request", err)
	}

	metrics.RecordRequestDeleted(string(current.Type))
	recordAudit(ctx, s.auditLogSvc, ActionDelete, current.Type, id, map[string]interface{}{
		"status": current.Status,
	})
	notify(s.notifier, RequestEvent{Event: EventDeleted, RequestType: current.Type, ID: id})
	return nil
}

// History 状态变更历史
func (s *requestService) History(ctx context.Context, id uint) ([]*model.StatusHistoryModel, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	histories, err := repository.NewStatusHistoryRepository(s.db).FindByRequestID(ctx, id)
	if err != nil {
		return nil, storageError("list status history", err)
	}
	return histories, nil
}

// Export 导出看板数据为 xlsx
func (s *requestService) Export(ctx context.Context, w io.Writer, filter repository.RequestFilter) error {
	rows, _, err := s.List(ctx, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Requests"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"ID", "Type", "Location", "Location Name", "Status", "Employee", "Priority"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.ID, string(row.Type), row.Location, row.LongNameLoc,
			string(row.Status), row.EmployeeName, string(row.Priority),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// notFoundOr 将 gorm.ErrRecordNotFound 转换为 NotFoundError
func notFoundOr(err error, id uint, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: "service request", Key: uintToString(id)}
	}
	return storageError(op, err)
}

// operator 当前操作人，未认证时为 system
func operator(ctx context.Context) string {
	if userID := auth.UserIDFromContext(ctx); userID != "" {
		return userID
	}
	return "system"
}
