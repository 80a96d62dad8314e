package model

import (
	"errors"
	"time"
)

// StatusHistoryModel 状态变更历史
type StatusHistoryModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RequestID  uint      `gorm:"not null;index" json:"request_id"`
	FromStatus Status    `gorm:"type:varchar(32)" json:"from_status"`
	ToStatus   Status    `gorm:"type:varchar(32);not null" json:"to_status"`
	Operator   string    `gorm:"type:varchar(64);not null" json:"operator"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (StatusHistoryModel) TableName() string {
	return "status_history"
}

// Validate 验证状态历史模型
func (m *StatusHistoryModel) Validate() error {
	if m.ID == "" {
		return errors.New("history ID is required")
	}
	if m.RequestID == 0 {
		return errors.New("request ID is required")
	}
	if !m.ToStatus.Valid() {
		return errors.New("to status is invalid")
	}
	if m.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
