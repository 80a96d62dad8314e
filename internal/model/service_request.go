package model

import (
	"errors"
	"time"
)

// Status 服务请求状态
type Status string

const (
	StatusUnassigned Status = "Unassigned"
	StatusAssigned   Status = "Assigned"
	StatusInProgress Status = "InProgress"
	StatusClosed     Status = "Closed"
)

// Statuses 返回全部合法状态（看板下拉框顺序）
func Statuses() []Status {
	return []Status{StatusUnassigned, StatusAssigned, StatusInProgress, StatusClosed}
}

// Valid 判断状态是否为枚举值之一
func (s Status) Valid() bool {
	for _, v := range Statuses() {
		if v == s {
			return true
		}
	}
	return false
}

// Priority 服务请求优先级
type Priority string

const (
	PriorityLow       Priority = "Low"
	PriorityMedium    Priority = "Medium"
	PriorityHigh      Priority = "High"
	PriorityEmergency Priority = "Emergency"
)

// Priorities 返回全部合法优先级
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency}
}

// Valid 判断优先级是否为枚举值之一
func (p Priority) Valid() bool {
	for _, v := range Priorities() {
		if v == p {
			return true
		}
	}
	return false
}

// RequestType 服务请求类型标签，写入 service_requests.type
type RequestType string

const (
	TypeMedicine        RequestType = "Medicine Delivery"
	TypeMedicalDevice   RequestType = "Medical Device Delivery"
	TypeLostAndFound    RequestType = "Lost and Found"
	TypeSanitation      RequestType = "Sanitation"
	TypeLangInterpreter RequestType = "Language Interpreter"
	TypeFlower          RequestType = "Flower Delivery"
)

// routes 类型标签到 REST 路径段的映射
var routes = map[RequestType]string{
	TypeMedicine:        "medicineRequest",
	TypeMedicalDevice:   "medicalDevice",
	TypeLostAndFound:    "lostAndFound",
	TypeSanitation:      "sanitationRequest",
	TypeLangInterpreter: "langInterpreter",
	TypeFlower:          "flowerRequest",
}

// RequestTypes 返回全部请求类型
func RequestTypes() []RequestType {
	return []RequestType{
		TypeMedicine,
		TypeMedicalDevice,
		TypeLostAndFound,
		TypeSanitation,
		TypeLangInterpreter,
		TypeFlower,
	}
}

// Route 返回该类型在 /api 下的路径段
func (t RequestType) Route() string {
	return routes[t]
}

// Valid 判断类型是否已注册
func (t RequestType) Valid() bool {
	_, ok := routes[t]
	return ok
}

// RequestTypeFromRoute 根据路径段反查请求类型
func RequestTypeFromRoute(route string) (RequestType, bool) {
	for t, r := range routes {
		if r == route {
			return t, true
		}
	}
	return "", false
}

// ServiceRequestModel 通用服务请求记录
// 所有请求类型共享此表，类型特有字段存放在各自的明细表中
type ServiceRequestModel struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Type           RequestType `gorm:"type:varchar(64);not null;index" json:"type"`
	Location       string      `gorm:"type:varchar(64);not null;index" json:"location"` // 已解析的 node_id
	Status         Status      `gorm:"type:varchar(32);not null;index" json:"status"`
	EmployeeName   string      `gorm:"column:emp_name;type:varchar(255);not null" json:"emp_name"`
	Priority       Priority    `gorm:"type:varchar(32);not null;index" json:"priority"`
	IdempotencyKey *string     `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	CreatedAt      time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (ServiceRequestModel) TableName() string {
	return "service_requests"
}

// Validate 验证通用服务请求记录
func (m *ServiceRequestModel) Validate() error {
	if !m.Type.Valid() {
		return errors.New("request type is invalid")
	}
	if m.Location == "" {
		return errors.New("location is required")
	}
	if !m.Status.Valid() {
		return errors.New("status is invalid")
	}
	if !m.Priority.Valid() {
		return errors.New("priority is invalid")
	}
	if m.EmployeeName == "" {
		return errors.New("employee name is required")
	}
	return nil
}
