package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/config"
	"github.com/kgkhs001/BrighamWomensApp/internal/database"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// recordingNotifier 记录推送的事件
type recordingNotifier struct {
	mu     sync.Mutex
	events []service.RequestEvent
}

func (n *recordingNotifier) Notify(event service.RequestEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []service.RequestEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.RequestEvent(nil), n.events...)
}

type testEnv struct {
	db        *gorm.DB
	pipelines *service.Pipelines
	requests  service.RequestService
	notifier  *recordingNotifier
}

// setupTestEnv 创建内存数据库、位置目录和服务
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	ctx := context.Background()
	require.NoError(t, repository.NewLocationRepository(db).Upsert(ctx, []*model.LocationModel{
		{NodeID: "ICU04", LongName: "ICU-4"},
		{NodeID: "LOBBY2", LongName: "Lobby"},
		{NodeID: "LOBBY1", LongName: "Lobby"},
		{NodeID: "PHARM1", LongName: "Pharmacy"},
	}))

	notifier := &recordingNotifier{}
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	pipelines := service.NewPipelines(service.Deps{
		DB:        db,
		Locations: service.NewLocationService(repository.NewLocationRepository(db)),
		AuditLog:  auditSvc,
		Notifier:  notifier,
	})
	return &testEnv{
		db:        db,
		pipelines: pipelines,
		requests:  service.NewRequestService(db, auditSvc, notifier, pipelines.DetailStores()...),
		notifier:  notifier,
	}
}

func (e *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func medicineForm(t *testing.T, body string) *form.MedicineForm {
	t.Helper()
	var f form.MedicineForm
	require.NoError(t, json.Unmarshal([]byte(body), &f))
	return &f
}

const exampleMedicine = `{"employeeName":"Jane","roomName":"ICU-4","medicineName":"Aspirin","quantity":"5","status":"Unassigned","priority":"Medium"}`

// TestPipeline_SubmitMedicine 测试提交后通用记录和明细一一对应
func TestPipeline_SubmitMedicine(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	result, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "")
	require.NoError(t, err)
	require.NotZero(t, result.ID)
	assert.False(t, result.Replayed)

	general, err := env.requests.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeMedicine, general.Type)
	assert.Equal(t, "ICU04", general.Location)
	assert.Equal(t, model.StatusUnassigned, general.Status)
	assert.Equal(t, "Jane", general.EmployeeName)
	assert.Equal(t, model.PriorityMedium, general.Priority)

	details, total, err := env.pipelines.Medicine.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, details, 1)
	assert.Equal(t, result.ID, details[0].RequestID)
	assert.Equal(t, "Aspirin", details[0].Medicine)
	assert.Equal(t, 5, details[0].Quantity)
	require.NotNil(t, details[0].Request)
	assert.Equal(t, "ICU04", details[0].Request.Location)

	rows, _, err := env.requests.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ICU-4", rows[0].LongNameLoc)

	events := env.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, service.EventCreated, events[0].Event)
	assert.Equal(t, model.TypeMedicine, events[0].RequestType)
}

// TestPipeline_AllTypes 测试六种请求类型均写入正确的明细表
func TestPipeline_AllTypes(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.pipelines.MedicalDevice.Submit(ctx, &form.MedicalDeviceForm{
		EmployeeName: "Sam", RoomName: "ICU-4", MedicalDeviceName: "Stethoscope",
		Quantity: form.NewQuantity(2), DeliveryDate: "2024-04-01",
	}, "")
	require.NoError(t, err)
	_, err = env.pipelines.LostAndFound.Submit(ctx, &form.LostAndFoundForm{
		Name: "Ray", Location: "Lobby", Date: "2024-03-09", ObjectDesc: "Blue scarf", ItemType: "Clothing",
	}, "")
	require.NoError(t, err)
	_, err = env.pipelines.Sanitation.Submit(ctx, &form.SanitationForm{
		EmployeeName: "Lee", RoomName: "Lobby", Severity: model.PriorityHigh, Hazardous: "Yes",
	}, "")
	require.NoError(t, err)
	_, err = env.pipelines.LangInterpreter.Submit(ctx, &form.LangInterpreterForm{
		Name: "Ana", Location: "Pharmacy", Date: "2024-05-02T10:30", Language: "Spanish", ModeOfInterp: "In Person",
	}, "")
	require.NoError(t, err)
	_, err = env.pipelines.Flower.Submit(ctx, &form.FlowerForm{
		EmployeeName: "Kim", RoomName: "ICU-4", SentBy: "Kim", SentTo: "Pat", RequestDate: "2024-02-14", Note: "Get well",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(5), env.count(t, &model.ServiceRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.MedicalDeviceRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.LostAndFoundRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.SanitationRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.LangInterpreterRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.FlowerRequestModel{}))

	lost, _, err := env.pipelines.LostAndFound.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, lost, 1)
	assert.Equal(t, "LOBBY1", lost[0].Request.Location, "lowest node id wins")
}

// TestPipeline_ValidationNoWrites 测试校验失败时不写入任何记录
func TestPipeline_ValidationNoWrites(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, `{"employeeName":"Jane","roomName":"ICU-4","medicineName":"Aspirin","quantity":"500"}`), "")
	require.Error(t, err)
	assert.True(t, service.IsValidation(err))

	_, err = env.pipelines.Medicine.Submit(ctx, medicineForm(t, `{"employeeName":"Jane","roomName":"ICU-4","medicineName":"Aspirin","quantity":1,"status":"Done"}`), "")
	assert.True(t, service.IsValidation(err))

	_, err = env.pipelines.Medicine.Submit(ctx, medicineForm(t, `{"employeeName":"Jane","roomName":"Mars Base","medicineName":"Aspirin","quantity":1}`), "")
	var notFound *service.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "location", notFound.Resource)

	assert.Zero(t, env.count(t, &model.ServiceRequestModel{}))
	assert.Zero(t, env.count(t, &model.MedicineRequestModel{}))
	assert.Empty(t, env.notifier.Events())
}

// TestPipeline_DetailFailureRollsBack 测试明细写入失败时通用记录一并回滚
func TestPipeline_DetailFailureRollsBack(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.db.Migrator().DropTable(&model.MedicineRequestModel{}))

	_, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "")
	var storageErr *service.StorageError
	require.True(t, errors.As(err, &storageErr), "got %v", err)
	assert.Zero(t, env.count(t, &model.ServiceRequestModel{}))
}

// TestPipeline_ConcurrentSubmissions 测试并发提交不会交叉关联明细
func TestPipeline_ConcurrentSubmissions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	ids := make([]uint, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f := medicineForm(t, fmt.Sprintf(`{"employeeName":"Nurse %d","roomName":"ICU-4","medicineName":"Med %d","quantity":%d}`, i, i, i))
			result, err := env.pipelines.Medicine.Submit(ctx, f, "")
			errs[i] = err
			if err == nil {
				ids[i] = result.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}

	details, _, err := env.pipelines.Medicine.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, details, n)
	for _, d := range details {
		var i int
		_, err := fmt.Sscanf(d.Medicine, "Med %d", &i)
		require.NoError(t, err)
		assert.Equal(t, ids[i], d.RequestID)
		assert.Equal(t, i, d.Quantity)
		assert.Equal(t, fmt.Sprintf("Nurse %d", i), d.Request.EmployeeName)
	}
}

// TestPipeline_ConcurrentIdenticalSubmissions 测试内容相同的并发提交各自拥有明细
func TestPipeline_ConcurrentIdenticalSubmissions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]uint, 2)
	errs := make([]error, 2)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "")
			errs[i] = err
			if err == nil {
				ids[i] = result.ID
			}
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, ids[0], ids[1])
	assert.Equal(t, int64(2), env.count(t, &model.ServiceRequestModel{}))

	details, _, err := env.pipelines.Medicine.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, details, 2)
	perParent := map[uint]int{}
	for _, d := range details {
		perParent[d.RequestID]++
		assert.Equal(t, "Aspirin", d.Medicine)
		assert.Equal(t, 5, d.Quantity)
	}
	assert.Equal(t, map[uint]int{ids[0]: 1, ids[1]: 1}, perParent)
}

// TestPipeline_LostAndFoundWithoutItemType 测试失物类型可留空
func TestPipeline_LostAndFoundWithoutItemType(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	var f form.LostAndFoundForm
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ann","location":"Lobby","date":"2024-03-01","objectDesc":"black umbrella","priority":"Low","status":"Unassigned"}`), &f))
	result, err := env.pipelines.LostAndFound.Submit(ctx, &f, "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), env.count(t, &model.ServiceRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.LostAndFoundRequestModel{}))

	lost, _, err := env.pipelines.LostAndFound.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, lost, 1)
	assert.Equal(t, result.ID, lost[0].RequestID)
	assert.Equal(t, "black umbrella", lost[0].ObjectDesc)
	assert.Empty(t, lost[0].ItemType)
}

// TestPipeline_IdempotentReplay 测试相同幂等键只写入一次
func TestPipeline_IdempotentReplay(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "key-1")
	require.NoError(t, err)
	second, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Replayed)
	assert.Equal(t, int64(1), env.count(t, &model.ServiceRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.MedicineRequestModel{}))
	assert.Len(t, env.notifier.Events(), 1)

	third, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "key-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

// TestRequestService_UpdateStatus 测试状态更新只影响 status，并记录历史和审计
func TestRequestService_UpdateStatus(t *testing.T) {
	env := setupTestEnv(t)
	claims := &auth.Claims{}
	claims.Subject = "user-1"
	ctx := auth.ContextWithClaims(context.Background(), claims)

	result, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "")
	require.NoError(t, err)
	before, err := env.requests.Get(ctx, result.ID)
	require.NoError(t, err)

	require.NoError(t, env.requests.UpdateStatus(ctx, &service.UpdateStatusRequest{ID: result.ID, Status: model.StatusAssigned}))
	// 状态不变时不产生历史
	require.NoError(t, env.requests.UpdateStatus(ctx, &service.UpdateStatusRequest{ID: result.ID, Status: model.StatusAssigned}))
	// 状态转换不限制顺序
	require.NoError(t, env.requests.UpdateStatus(ctx, &service.UpdateStatusRequest{ID: result.ID, Status: model.StatusUnassigned}))

	after, err := env.requests.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnassigned, after.Status)
	assert.Equal(t, before.Location, after.Location)
	assert.Equal(t, before.EmployeeName, after.EmployeeName)
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.Type, after.Type)

	history, err := env.requests.History(ctx, result.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusUnassigned, history[0].FromStatus)
	assert.Equal(t, model.StatusAssigned, history[0].ToStatus)
	assert.Equal(t, "user-1", history[0].Operator)

	logs, err := repository.NewAuditLogRepository(env.db).FindByResource(ctx, string(model.TypeMedicine), fmt.Sprint(result.ID))
	require.NoError(t, err)
	assert.Len(t, logs, 3, "create + two status changes")

	events := env.notifier.Events()
	require.Len(t, events, 3)
	assert.Equal(t, service.EventStatusChanged, events[1].Event)
	assert.Equal(t, model.StatusAssigned, events[1].Status)
}

// TestRequestService_UpdateStatusErrors 测试无效状态和不存在的记录
func TestRequestService_UpdateStatusErrors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	err := env.requests.UpdateStatus(ctx, &service.UpdateStatusRequest{ID: 999, Status: model.StatusClosed})
	assert.True(t, service.IsNotFound(err))

	result, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "")
	require.NoError(t, err)

	err = env.requests.UpdateStatus(ctx, &service.UpdateStatusRequest{ID: result.ID, Status: "Done"})
	assert.True(t, service.IsValidation(err))

	err = env.requests.UpdateStatus(ctx, &service.UpdateStatusRequest{Status: model.StatusClosed})
	assert.True(t, service.IsValidation(err))

	general, err := env.requests.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnassigned, general.Status)
}

// TestRequestService_DeleteCascade 测试删除通用记录时明细和历史一并删除
func TestRequestService_DeleteCascade(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	result, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "")
	require.NoError(t, err)
	other, err := env.pipelines.Flower.Submit(ctx, &form.FlowerForm{
		EmployeeName: "Kim", RoomName: "ICU-4", SentBy: "Kim", SentTo: "Pat", RequestDate: "2024-02-14",
	}, "")
	require.NoError(t, err)
	require.NoError(t, env.requests.UpdateStatus(ctx, &service.UpdateStatusRequest{ID: result.ID, Status: model.StatusClosed}))

	require.NoError(t, env.requests.Delete(ctx, result.ID))

	assert.Zero(t, env.count(t, &model.MedicineRequestModel{}))
	assert.Zero(t, env.count(t, &model.StatusHistoryModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.ServiceRequestModel{}))
	assert.Equal(t, int64(1), env.count(t, &model.FlowerRequestModel{}))

	_, err = env.requests.Get(ctx, result.ID)
	assert.True(t, service.IsNotFound(err))
	assert.True(t, service.IsNotFound(env.requests.Delete(ctx, result.ID)), "second delete reports not found")

	_, err = env.requests.Get(ctx, other.ID)
	assert.NoError(t, err)

	events := env.notifier.Events()
	assert.Equal(t, service.EventDeleted, events[len(events)-1].Event)
}

// TestRequestService_Export 测试导出 xlsx
func TestRequestService_Export(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.pipelines.Medicine.Submit(ctx, medicineForm(t, exampleMedicine), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.requests.Export(ctx, &buf, repository.RequestFilter{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Requests")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Medicine Delivery", rows[1][1])
	assert.Equal(t, "ICU-4", rows[1][3])
}

// TestLocationService_Resolve 测试位置解析
func TestLocationService_Resolve(t *testing.T) {
	env := setupTestEnv(t)
	svc := service.NewLocationService(repository.NewLocationRepository(env.db))
	ctx := context.Background()

	loc, err := svc.Resolve(ctx, "Lobby")
	require.NoError(t, err)
	assert.Equal(t, "LOBBY1", loc.NodeID)

	_, err = svc.Resolve(ctx, "Nowhere")
	assert.True(t, service.IsNotFound(err))

	_, err = svc.Resolve(ctx, "")
	assert.True(t, service.IsValidation(err))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

// TestInventoryService_CheckStock 测试低库存阈值（小于等于阈值）
func TestInventoryService_CheckStock(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	repo := repository.NewInventoryRepository(env.db)
	require.NoError(t, repo.Upsert(ctx, []*model.InventoryItemModel{
		{Name: "Aspirin", ItemType: "medicine", Quantity: 3},
		{Name: "Gauze", ItemType: "device", Quantity: 10},
		{Name: "Stethoscope", ItemType: "device", Quantity: 11},
	}))

	svc := service.NewInventoryService(repo, 0)
	assert.Equal(t, service.DefaultLowStockThreshold, svc.LowStockThreshold())

	tests := []struct {
		name  string
		quant int
		low   bool
	}{
		{"Aspirin", 3, true},
		{"Gauze", 10, true},
		{"Stethoscope", 11, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := svc.CheckStock(ctx, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.quant, level.Quant)
			assert.Equal(t, tt.low, level.LowStock)
			assert.Equal(t, 10, level.Threshold)
		})
	}

	svc.SetLowStockThreshold(2)
	level, err := svc.CheckStock(ctx, "Aspirin")
	require.NoError(t, err)
	assert.False(t, level.LowStock)

	_, err = svc.CheckStock(ctx, "Unobtainium")
	assert.True(t, service.IsNotFound(err))
	_, err = svc.CheckStock(ctx, "")
	assert.True(t, service.IsValidation(err))

	devices, err := svc.List(ctx, "device")
	require.NoError(t, err)
	assert.Len(t, devices, 2)
}
