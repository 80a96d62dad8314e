package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/kgkhs001/BrighamWomensApp/internal/utils"
)

// 审计动作
const (
	ActionCreate       = "create"
	ActionUpdateStatus = "update_status"
	ActionDelete       = "delete"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	meta := utils.RequestMetaFrom(ctx)
	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    meta.RequestID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Details:      string(detailsJSON),
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(ctx, auditLog)
}

// recordAudit 当前用户存在时写审计日志，失败只记录告警
func recordAudit(ctx context.Context, svc AuditLogService, action string, resourceType model.RequestType, id uint, details interface{}) {
	if svc == nil {
		return
	}
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return
	}
	if err := svc.RecordAction(ctx, userID, action, string(resourceType), uintToString(id), details); err != nil {
		logger().WithError(err).WithField("resource_id", id).Warn("failed to record audit log")
	}
}
