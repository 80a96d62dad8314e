package form

import (
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/utils"
)

// General 通用记录字段，由各类表单提供
type General struct {
	EmployeeName string
	Priority     model.Priority
	Status       model.Status
}

// Form 表单约束：D 为该表单生成的明细记录类型
type Form[D any] interface {
	// Normalize 清理文本并填充默认值，必须在校验前调用
	Normalize()
	// LocationName 返回待解析的位置全称
	LocationName() string
	General() General
	// Detail 基于父记录 ID 构造明细，表单没有明细字段时返回 false
	Detail(requestID uint) (*D, bool)
}

// Meta 所有表单共有的优先级和状态
type Meta struct {
	Priority model.Priority `json:"priority" validate:"priority"`
	Status   model.Status   `json:"status" validate:"status"`
}

// normalize 填充默认值：优先级 Medium，状态 Unassigned
func (m *Meta) normalize() {
	if m.Priority == "" {
		m.Priority = model.PriorityMedium
	}
	if m.Status == "" {
		m.Status = model.StatusUnassigned
	}
}

// MedicineForm 药品配送表单
type MedicineForm struct {
	EmployeeName string   `json:"employeeName" validate:"required,max=255,safetext"`
	RoomName     string   `json:"roomName,omitempty" validate:"required_without=Location,max=255"`
	Location     string   `json:"location,omitempty" validate:"required_without=RoomName,max=255"`
	MedicineName string   `json:"medicineName" validate:"required,max=255,safetext"`
	Quantity     Quantity `json:"quantity" validate:"quantity"`
	Meta
}

// Normalize 清理文本并填充默认值
func (f *MedicineForm) Normalize() {
	f.EmployeeName = utils.CleanText(f.EmployeeName)
	f.RoomName = utils.CleanText(f.RoomName)
	f.Location = utils.CleanText(f.Location)
	f.MedicineName = utils.CleanText(f.MedicineName)
	f.Meta.normalize()
}

// LocationName 优先使用 roomName
func (f *MedicineForm) LocationName() string {
	if f.RoomName != "" {
		return f.RoomName
	}
	return f.Location
}

// General 通用字段
func (f *MedicineForm) General() General {
	return General{EmployeeName: f.EmployeeName, Priority: f.Priority, Status: f.Status}
}

// Detail 药品明细
func (f *MedicineForm) Detail(requestID uint) (*model.MedicineRequestModel, bool) {
	return &model.MedicineRequestModel{
		RequestID: requestID,
		Medicine:  f.MedicineName,
		Quantity:  f.Quantity.Value,
		RoomName:  f.LocationName(),
	}, true
}

// MedicalDeviceForm 医疗设备配送表单
type MedicalDeviceForm struct {
	EmployeeName      string   `json:"employeeName" validate:"required,max=255,safetext"`
	RoomName          string   `json:"roomName" validate:"required,max=255"`
	MedicalDeviceName string   `json:"medicalDeviceName" validate:"required,max=255,safetext"`
	Quantity          Quantity `json:"quantity" validate:"quantity"`
	DeliveryDate      string   `json:"deliveryDate" validate:"required,formdate"`
	Meta
}

// Normalize 清理文本并填充默认值
func (f *MedicalDeviceForm) Normalize() {
	f.EmployeeName = utils.CleanText(f.EmployeeName)
	f.RoomName = utils.CleanText(f.RoomName)
	f.MedicalDeviceName = utils.CleanText(f.MedicalDeviceName)
	f.DeliveryDate = utils.CleanText(f.DeliveryDate)
	f.Meta.normalize()
}

// LocationName 房间名
func (f *MedicalDeviceForm) LocationName() string {
	return f.RoomName
}

// General 通用字段
func (f *MedicalDeviceForm) General() General {
	return General{EmployeeName: f.EmployeeName, Priority: f.Priority, Status: f.Status}
}

// Detail 只有提供了配送日期才生成设备明细
func (f *MedicalDeviceForm) Detail(requestID uint) (*model.MedicalDeviceRequestModel, bool) {
	date, err := ParseDate(f.DeliveryDate)
	if err != nil {
		return nil, false
	}
	return &model.MedicalDeviceRequestModel{
		RequestID:    requestID,
		Device:       f.MedicalDeviceName,
		Quantity:     f.Quantity.Value,
		DeliveryDate: date,
		RoomName:     f.RoomName,
	}, true
}

// LostAndFoundForm 失物招领表单
type LostAndFoundForm struct {
	Name       string `json:"name" validate:"required,max=255,safetext"`
	Location   string `json:"location" validate:"required,max=255"`
	Date       string `json:"date" validate:"required,formdate"`
	ObjectDesc string `json:"objectDesc" validate:"required,max=2000,safetext"`
	ItemType   string `json:"type" validate:"omitempty,oneof=Clothing Device Wallet Bag Other"`
	Meta
}

// Normalize 清理文本并填充默认值
func (f *LostAndFoundForm) Normalize() {
	f.Name = utils.CleanText(f.Name)
	f.Location = utils.CleanText(f.Location)
	f.Date = utils.CleanText(f.Date)
	f.ObjectDesc = utils.CleanText(f.ObjectDesc)
	f.ItemType = utils.CleanText(f.ItemType)
	f.Meta.normalize()
}

// LocationName 拾获位置
func (f *LostAndFoundForm) LocationName() string {
	return f.Location
}

// General 通用字段，name 作为员工姓名
func (f *LostAndFoundForm) General() General {
	return General{EmployeeName: f.Name, Priority: f.Priority, Status: f.Status}
}

// Detail 失物明细
func (f *LostAndFoundForm) Detail(requestID uint) (*model.LostAndFoundRequestModel, bool) {
	date, err := ParseDate(f.Date)
	if err != nil {
		return nil, false
	}
	return &model.LostAndFoundRequestModel{
		RequestID:  requestID,
		ObjectDesc: f.ObjectDesc,
		ItemType:   f.ItemType,
		FoundDate:  date,
	}, true
}

// SanitationForm 清洁消毒表单
type SanitationForm struct {
	EmployeeName string         `json:"employeeName" validate:"required,max=255,safetext"`
	RoomName     string         `json:"roomName" validate:"required,max=255"`
	Severity     model.Priority `json:"severity" validate:"required,priority"`
	Hazardous    YesNo          `json:"hazardous" validate:"required,oneof=Yes No"`
	Meta
}

// Normalize 清理文本并填充默认值
func (f *SanitationForm) Normalize() {
	f.EmployeeName = utils.CleanText(f.EmployeeName)
	f.RoomName = utils.CleanText(f.RoomName)
	f.Hazardous = YesNo(utils.CleanText(string(f.Hazardous)))
	f.Meta.normalize()
}

// LocationName 房间名
func (f *SanitationForm) LocationName() string {
	return f.RoomName
}

// General 通用字段
func (f *SanitationForm) General() General {
	return General{EmployeeName: f.EmployeeName, Priority: f.Priority, Status: f.Status}
}

// Detail 清洁明细
func (f *SanitationForm) Detail(requestID uint) (*model.SanitationRequestModel, bool) {
	return &model.SanitationRequestModel{
		RequestID: requestID,
		Severity:  f.Severity,
		Hazardous: f.Hazardous.Bool(),
		RoomName:  f.RoomName,
	}, true
}

// LangInterpreterForm 口译服务表单
type LangInterpreterForm struct {
	Name         string `json:"name" validate:"required,max=255,safetext"`
	Location     string `json:"location" validate:"required,max=255"`
	Date         string `json:"date" validate:"required,formdate"`
	Language     string `json:"language" validate:"required,language"`
	ModeOfInterp string `json:"modeOfInterp" validate:"required,oneof='In Person' 'Video Call' 'Audio Call' 'Written Word'"`
	SpecInstruct string `json:"specInstruct,omitempty" validate:"max=2000,safetext"`
	Meta
}

// Normalize 清理文本并填充默认值
func (f *LangInterpreterForm) Normalize() {
	f.Name = utils.CleanText(f.Name)
	f.Location = utils.CleanText(f.Location)
	f.Date = utils.CleanText(f.Date)
	f.Language = utils.CleanText(f.Language)
	f.ModeOfInterp = utils.CleanText(f.ModeOfInterp)
	f.SpecInstruct = utils.CleanText(f.SpecInstruct)
	f.Meta.normalize()
}

// LocationName 服务位置
func (f *LangInterpreterForm) LocationName() string {
	return f.Location
}

// General 通用字段，name 作为员工姓名
func (f *LangInterpreterForm) General() General {
	return General{EmployeeName: f.Name, Priority: f.Priority, Status: f.Status}
}

// Detail 口译明细
func (f *LangInterpreterForm) Detail(requestID uint) (*model.LangInterpreterRequestModel, bool) {
	date, err := ParseDate(f.Date)
	if err != nil {
		return nil, false
	}
	return &model.LangInterpreterRequestModel{
		RequestID:           requestID,
		Language:            f.Language,
		Mode:                f.ModeOfInterp,
		SpecialInstructions: f.SpecInstruct,
		RequestedDate:       date,
	}, true
}

// FlowerForm 鲜花配送表单
type FlowerForm struct {
	EmployeeName string `json:"employeeName" validate:"required,max=255,safetext"`
	RoomName     string `json:"roomName" validate:"required,max=255"`
	SentBy       string `json:"sentBy" validate:"required,max=255,safetext"`
	SentTo       string `json:"sentTo" validate:"required,max=255,safetext"`
	RequestDate  string `json:"requestDate" validate:"required,formdate"`
	Note         string `json:"note,omitempty" validate:"max=2000,safetext"`
	Meta
}

// Normalize 清理文本并填充默认值
func (f *FlowerForm) Normalize() {
	f.EmployeeName = utils.CleanText(f.EmployeeName)
	f.RoomName = utils.CleanText(f.RoomName)
	f.SentBy = utils.CleanText(f.SentBy)
	f.SentTo = utils.CleanText(f.SentTo)
	f.RequestDate = utils.CleanText(f.RequestDate)
	f.Note = utils.CleanText(f.Note)
	f.Meta.normalize()
}

// LocationName 房间名
func (f *FlowerForm) LocationName() string {
	return f.RoomName
}

// General 通用字段
func (f *FlowerForm) General() General {
	return General{EmployeeName: f.EmployeeName, Priority: f.Priority, Status: f.Status}
}

// Detail 鲜花明细
func (f *FlowerForm) Detail(requestID uint) (*model.FlowerRequestModel, bool) {
	date, err := ParseDate(f.RequestDate)
	if err != nil {
		return nil, false
	}
	return &model.FlowerRequestModel{
		RequestID:   requestID,
		SentBy:      f.SentBy,
		SentTo:      f.SentTo,
		Note:        f.Note,
		RequestDate: date,
		RoomName:    f.RoomName,
	}, true
}

// 编译期检查各表单满足 Form 约束
var (
	_ Form[model.MedicineRequestModel]        = (*MedicineForm)(nil)
	_ Form[model.MedicalDeviceRequestModel]   = (*MedicalDeviceForm)(nil)
	_ Form[model.LostAndFoundRequestModel]    = (*LostAndFoundForm)(nil)
	_ Form[model.SanitationRequestModel]      = (*SanitationForm)(nil)
	_ Form[model.LangInterpreterRequestModel] = (*LangInterpreterForm)(nil)
	_ Form[model.FlowerRequestModel]          = (*FlowerForm)(nil)
)
