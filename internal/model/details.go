package model

import (
	"errors"
	"time"
)

// 明细记录与 service_requests 一对一，主键即父记录 ID。
// Request 仅在查询时预加载，写入时保持为 nil。

// MedicineRequestModel 药品配送明细
type MedicineRequestModel struct {
	RequestID uint                 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Request   *ServiceRequestModel `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	Medicine  string               `gorm:"type:varchar(255);not null" json:"device"`
	Quantity  int                  `gorm:"not null" json:"quantity"`
	RoomName  string               `gorm:"type:varchar(255)" json:"room_name"`
}

// TableName 指定表名
func (MedicineRequestModel) TableName() string {
	return "medicine_requests"
}

// ParentID 父记录 ID
func (m *MedicineRequestModel) ParentID() uint { return m.RequestID }

// MedicalDeviceRequestModel 医疗设备配送明细
type MedicalDeviceRequestModel struct {
	RequestID    uint                 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Request      *ServiceRequestModel `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	Device       string               `gorm:"type:varchar(255);not null" json:"device"`
	Quantity     int                  `gorm:"not null" json:"quantity"`
	DeliveryDate time.Time            `gorm:"not null" json:"date"`
	RoomName     string               `gorm:"type:varchar(255)" json:"room_name"`
}

// TableName 指定表名
func (MedicalDeviceRequestModel) TableName() string {
	return "medical_device_requests"
}

// ParentID 父记录 ID
func (m *MedicalDeviceRequestModel) ParentID() uint { return m.RequestID }

// LostAndFoundRequestModel 失物招领明细
type LostAndFoundRequestModel struct {
	RequestID  uint                 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Request    *ServiceRequestModel `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	ObjectDesc string               `gorm:"type:text;not null" json:"objectDesc"`
	ItemType   string               `gorm:"type:varchar(32);not null;default:''" json:"type"`
	FoundDate  time.Time            `gorm:"not null" json:"date"`
}

// TableName 指定表名
func (LostAndFoundRequestModel) TableName() string {
	return "lost_and_found_requests"
}

// ParentID 父记录 ID
func (m *LostAndFoundRequestModel) ParentID() uint { return m.RequestID }

// SanitationRequestModel 清洁消毒明细
type SanitationRequestModel struct {
	RequestID uint                 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Request   *ServiceRequestModel `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	Severity  Priority             `gorm:"type:varchar(32);not null" json:"severity"`
	Hazardous bool                 `gorm:"not null;default:false" json:"hazardous"`
	RoomName  string               `gorm:"type:varchar(255)" json:"room_name"`
}

// TableName 指定表名
func (SanitationRequestModel) TableName() string {
	return "sanitation_requests"
}

// ParentID 父记录 ID
func (m *SanitationRequestModel) ParentID() uint { return m.RequestID }

// LangInterpreterRequestModel 口译服务明细
type LangInterpreterRequestModel struct {
	RequestID           uint                 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Request             *ServiceRequestModel `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	Language            string               `gorm:"type:varchar(64);not null" json:"language"`
	Mode                string               `gorm:"type:varchar(32);not null" json:"modeOfInterp"`
	SpecialInstructions string               `gorm:"type:text" json:"specInstruct"`
	RequestedDate       time.Time            `gorm:"not null" json:"date"`
}

// TableName 指定表名
func (LangInterpreterRequestModel) TableName() string {
	return "lang_interpreter_requests"
}

// ParentID 父记录 ID
func (m *LangInterpreterRequestModel) ParentID() uint { return m.RequestID }

// FlowerRequestModel 鲜花配送明细
type FlowerRequestModel struct {
	RequestID   uint                 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Request     *ServiceRequestModel `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	SentBy      string               `gorm:"type:varchar(255);not null" json:"sent_by"`
	SentTo      string               `gorm:"type:varchar(255);not null" json:"sent_to"`
	Note        string               `gorm:"type:text" json:"note"`
	RequestDate time.Time            `gorm:"not null" json:"requestDate"`
	RoomName    string               `gorm:"type:varchar(255)" json:"room_name"`
}

// TableName 指定表名
func (FlowerRequestModel) TableName() string {
	return "flower_requests"
}

// ParentID 父记录 ID
func (m *FlowerRequestModel) ParentID() uint { return m.RequestID }

// ErrDetailWithoutParent 明细记录缺少父记录 ID
var ErrDetailWithoutParent = errors.New("detail record requires a parent request id")

// DetailModels 返回全部明细表模型（迁移使用）
func DetailModels() []interface{} {
	return []interface{}{
		&MedicineRequestModel{},
		&MedicalDeviceRequestModel{},
		&LostAndFoundRequestModel{},
		&SanitationRequestModel{},
		&LangInterpreterRequestModel{},
		&FlowerRequestModel{},
	}
}
