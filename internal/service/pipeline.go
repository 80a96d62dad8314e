package service

import (
	"context"
	"errors"

	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/metrics"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps 提交流水线共享的依赖
type Deps struct {
	DB        *gorm.DB
	Locations LocationService
	AuditLog  AuditLogService
	Notifier  Notifier
}

// SubmitResult 提交结果
type SubmitResult struct {
	ID       uint
	Replayed bool // 幂等键命中，未产生新的写入
}

// DetailStore 按请求类型维护明细表，删除通用记录时级联使用
type DetailStore interface {
	RequestType() model.RequestType
	DeleteDetail(ctx context.Context, tx *gorm.DB, requestID uint) error
}

// Pipeline 单一请求类型的提交流水线
// 校验 -> 解析位置 -> 事务内写通用记录 -> 用返回的 ID 写明细
type Pipeline[D any, F form.Form[D]] struct {
	requestType model.RequestType
	newForm     func() F
	deps        Deps
}

// NewPipeline 创建提交流水线
func NewPipeline[D any, F form.Form[D]](requestType model.RequestType, newForm func() F, deps Deps) *Pipeline[D, F] {
	return &Pipeline[D, F]{
		requestType: requestType,
		newForm:     newForm,
		deps:        deps,
	}
}

// RequestType 流水线处理的请求类型
func (p *Pipeline[D, F]) RequestType() model.RequestType {
	return p.requestType
}

// NewForm 创建空表单
func (p *Pipeline[D, F]) NewForm() F {
	return p.newForm()
}

// Submit 提交表单
// idempotencyKey 非空时，相同键的重复提交返回首次创建的记录 ID
func (p *Pipeline[D, F]) Submit(ctx context.Context, f F, idempotencyKey string) (*SubmitResult, error) {
	f.Normalize()
	if err := form.Validate(f); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		existing, err := p.findByKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &SubmitResult{ID: existing.ID, Replayed: true}, nil
		}
	}

	location, err := p.deps.Locations.Resolve(ctx, f.LocationName())
	if err != nil {
		return nil, err
	}

	general := f.General()
	record := &model.ServiceRequestModel{
		Type:         p.requestType,
		Location:     location.NodeID,
		Status:       general.Status,
		EmployeeName: general.EmployeeName,
		Priority:     general.Priority,
	}
	if idempotencyKey != "" {
		record.IdempotencyKey = &idempotencyKey
	}

	err = p.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewServiceRequestRepository(tx).Create(ctx, record); err != nil {
			return storageError("create service request", err)
		}

		detail, ok := f.Detail(record.ID)
		if !ok {
			return nil
		}
		if err := repository.NewDetailRepository[D](tx).Create(ctx, detail); err != nil {
			return storageError("create request detail", err)
		}
		return nil
	})
	if err != nil {
		// 并发的重试请求可能先提交了同一个幂等键
		if idempotencyKey != "" {
			if existing, findErr := p.findByKey(ctx, idempotencyKey); findErr == nil && existing != nil {
				return &SubmitResult{ID: existing.ID, Replayed: true}, nil
			}
		}
		err = storageError("commit service request", err)
		logger().WithError(err).WithFields(logrus.Fields{
			"type":     p.requestType,
			"location": location.NodeID,
		}).Error("service request submission failed")
		return nil, err
	}

	metrics.RecordRequestCreated(string(p.requestType))
	recordAudit(ctx, p.deps.AuditLog, ActionCreate, p.requestType, record.ID, map[string]interface{}{
		"location": record.Location,
		"status":   record.Status,
		"priority": record.Priority,
	})
	notify(p.deps.Notifier, RequestEvent{Event: EventCreated, RequestType: p.requestType, ID: record.ID, Status: record.Status})

	return &SubmitResult{ID: record.ID}, nil
}

// List 列出该类型的明细记录（含父记录）
func (p *Pipeline[D, F]) List(ctx context.Context, filter repository.RequestFilter) ([]D, int64, error) {
	rows, total, err := repository.NewDetailRepository[D](p.deps.DB).List(ctx, filter)
	if err != nil {
		return nil, 0, storageError("list request details", err)
	}
	return rows, total, nil
}

// DeleteDetail 在给定事务中删除明细
func (p *Pipeline[D, F]) DeleteDetail(ctx context.Context, tx *gorm.DB, requestID uint) error {
	if _, err := repository.NewDetailRepository[D](tx).DeleteByRequestID(ctx, requestID); err != nil {
		return storageError("delete request detail", err)
	}
	return nil
}

func (p *Pipeline[D, F]) findByKey(ctx context.Context, key string) (*model.ServiceRequestModel, error) {
	existing, err := repository.NewServiceRequestRepository(p.deps.DB).FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError("look up idempotency key", err)
	}
	return existing, nil
}

// 各请求类型的流水线
type (
	MedicinePipeline        = Pipeline[model.MedicineRequestModel, *form.MedicineForm]
	MedicalDevicePipeline   = Pipeline[model.MedicalDeviceRequestModel, *form.MedicalDeviceForm]
	LostAndFoundPipeline    = Pipeline[model.LostAndFoundRequestModel, *form.LostAndFoundForm]
	SanitationPipeline      = Pipeline[model.SanitationRequestModel, *form.SanitationForm]
	LangInterpreterPipeline = Pipeline[model.LangInterpreterRequestModel, *form.LangInterpreterForm]
	FlowerPipeline          = Pipeline[model.FlowerRequestModel, *form.FlowerForm]
)

// Pipelines 全部请求类型的流水线
type Pipelines struct {
	Medicine        *MedicinePipeline
	MedicalDevice   *MedicalDevicePipeline
	LostAndFound    *LostAndFoundPipeline
	Sanitation      *SanitationPipeline
	LangInterpreter *LangInterpreterPipeline
	Flower          *FlowerPipeline
}

// NewPipelines 创建全部请求类型的流水线
func NewPipelines(deps Deps) *Pipelines {
	return &Pipelines{
		Medicine: NewPipeline[model.MedicineRequestModel](model.TypeMedicine,
			func() *form.MedicineForm { return &form.MedicineForm{} }, deps),
		MedicalDevice: NewPipeline[model.MedicalDeviceRequestModel](model.TypeMedicalDevice,
			func() *form.MedicalDeviceForm { return &form.MedicalDeviceForm{} }, deps),
		LostAndFound: NewPipeline[model.LostAndFoundRequestModel](model.TypeLostAndFound,
			func() *form.LostAndFoundForm { return &form.LostAndFoundForm{} }, deps),
		Sanitation: NewPipeline[model.SanitationRequestModel](model.TypeSanitation,
			func() *form.SanitationForm { return &form.SanitationForm{} }, deps),
		LangInterpreter: NewPipeline[model.LangInterpreterRequestModel](model.TypeLangInterpreter,
			func() *form.LangInterpreterForm { return &form.LangInterpreterForm{} }, deps),
		Flower: NewPipeline[model.FlowerRequestModel](model.TypeFlower,
			func() *form.FlowerForm { return &form.FlowerForm{} }, deps),
	}
}

// DetailStores 返回全部明细表，供删除级联使用
func (p *Pipelines) DetailStores() []DetailStore {
	return []DetailStore{p.Medicine, p.MedicalDevice, p.LostAndFound, p.Sanitation, p.LangInterpreter, p.Flower}
}
