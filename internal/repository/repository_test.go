package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kgkhs001/BrighamWomensApp/internal/config"
	"github.com/kgkhs001/BrighamWomensApp/internal/database"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB 创建并迁移内存数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedLocations(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, repository.NewLocationRepository(db).Upsert(context.Background(), []*model.LocationModel{
		{NodeID: "ICU04", LongName: "ICU-4", Floor: "2"},
		{NodeID: "LOBBY2", LongName: "Lobby", Floor: "1"},
		{NodeID: "LOBBY1", LongName: "Lobby", Floor: "1"},
	}))
}

func newRequest(reqType model.RequestType, location string, status model.Status) *model.ServiceRequestModel {
	return &model.ServiceRequestModel{
		Type:         reqType,
		Location:     location,
		Status:       status,
		EmployeeName: "Jane",
		Priority:     model.PriorityMedium,
	}
}

// TestServiceRequestRepository_CreateAndFind 测试创建后 ID 回填
func TestServiceRequestRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewServiceRequestRepository(db)
	ctx := context.Background()

	req := newRequest(model.TypeMedicine, "ICU04", model.StatusUnassigned)
	require.NoError(t, repo.Create(ctx, req))
	require.NotZero(t, req.ID)

	found, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeMedicine, found.Type)
	assert.Equal(t, "Jane", found.EmployeeName)

	_, err = repo.FindByID(ctx, req.ID+100)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	invalid := newRequest("Pizza", "ICU04", model.StatusUnassigned)
	assert.Error(t, repo.Create(ctx, invalid))
}

// TestServiceRequestRepository_IdempotencyKey 测试幂等键唯一
func TestServiceRequestRepository_IdempotencyKey(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewServiceRequestRepository(db)
	ctx := context.Background()

	key := "session-1"
	first := newRequest(model.TypeFlower, "LOBBY1", model.StatusUnassigned)
	first.IdempotencyKey = &key
	require.NoError(t, repo.Create(ctx, first))

	found, err := repo.FindByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	dup := newRequest(model.TypeFlower, "LOBBY1", model.StatusUnassigned)
	dup.IdempotencyKey = &key
	assert.Error(t, repo.Create(ctx, dup))

	// 未设置幂等键的记录可以有多条
	require.NoError(t, repo.Create(ctx, newRequest(model.TypeFlower, "LOBBY1", model.StatusUnassigned)))
	require.NoError(t, repo.Create(ctx, newRequest(model.TypeFlower, "LOBBY1", model.StatusUnassigned)))
}

// TestServiceRequestRepository_UpdateStatus 测试只修改 status 列
func TestServiceRequestRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewServiceRequestRepository(db)
	ctx := context.Background()

	req := newRequest(model.TypeSanitation, "LOBBY1", model.StatusUnassigned)
	require.NoError(t, repo.Create(ctx, req))

	affected, err := repo.UpdateStatus(ctx, req.ID, model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	found, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, found.Status)
	assert.Equal(t, req.Location, found.Location)
	assert.Equal(t, req.EmployeeName, found.EmployeeName)
	assert.Equal(t, req.Priority, found.Priority)

	affected, err = repo.UpdateStatus(ctx, 12345, model.StatusClosed)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

// TestServiceRequestRepository_List 测试看板列表带位置全称、过滤和分页
func TestServiceRequestRepository_List(t *testing.T) {
	db := setupTestDB(t)
	seedLocations(t, db)
	repo := repository.NewServiceRequestRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRequest(model.TypeMedicine, "ICU04", model.StatusUnassigned)))
	require.NoError(t, repo.Create(ctx, newRequest(model.TypeFlower, "LOBBY1", model.StatusClosed)))
	require.NoError(t, repo.Create(ctx, newRequest(model.TypeMedicine, "UNKNOWN", model.StatusClosed)))

	rows, total, err := repo.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, "ICU-4", rows[0].LongNameLoc)
	assert.Equal(t, "Jane", rows[0].EmployeeName)
	assert.Equal(t, "Lobby", rows[1].LongNameLoc)
	assert.Equal(t, "", rows[2].LongNameLoc, "unknown node keeps the row")

	rows, total, err = repo.List(ctx, repository.RequestFilter{Type: model.TypeMedicine, Status: model.StatusClosed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "UNKNOWN", rows[0].Location)

	rows, total, err = repo.List(ctx, repository.RequestFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 1)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.StatusClosed])
	assert.Equal(t, int64(1), counts[model.StatusUnassigned])
	assert.Equal(t, int64(0), counts[model.StatusAssigned])
}

// TestDetailRepository 测试明细写入、预加载父记录和删除
func TestDetailRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	reqRepo := repository.NewServiceRequestRepository(db)
	detailRepo := repository.NewDetailRepository[model.MedicineRequestModel](db)

	parent := newRequest(model.TypeMedicine, "ICU04", model.StatusUnassigned)
	require.NoError(t, reqRepo.Create(ctx, parent))
	closed := newRequest(model.TypeMedicine, "ICU04", model.StatusClosed)
	require.NoError(t, reqRepo.Create(ctx, closed))

	require.NoError(t, detailRepo.Create(ctx, &model.MedicineRequestModel{RequestID: parent.ID, Medicine: "Aspirin", Quantity: 5}))
	require.NoError(t, detailRepo.Create(ctx, &model.MedicineRequestModel{RequestID: closed.ID, Medicine: "Ibuprofen", Quantity: 2}))

	err := detailRepo.Create(ctx, &model.MedicineRequestModel{Medicine: "Orphan", Quantity: 1})
	assert.ErrorIs(t, err, model.ErrDetailWithoutParent)

	rows, total, err := detailRepo.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Request)
	assert.Equal(t, parent.ID, rows[0].Request.ID)
	assert.Equal(t, "Aspirin", rows[0].Medicine)

	rows, total, err = detailRepo.List(ctx, repository.RequestFilter{Status: model.StatusClosed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ibuprofen", rows[0].Medicine)

	affected, err := detailRepo.DeleteByRequestID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

// TestLocationRepository_FindByLongName 测试多条匹配按 node_id 排序
func TestLocationRepository_FindByLongName(t *testing.T) {
	db := setupTestDB(t)
	seedLocations(t, db)
	repo := repository.NewLocationRepository(db)
	ctx := context.Background()

	matches, err := repo.FindByLongName(ctx, "Lobby")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "LOBBY1", matches[0].NodeID)

	matches, err = repo.FindByLongName(ctx, "lobby")
	require.NoError(t, err)
	assert.Empty(t, matches, "match is exact")

	loc, err := repo.FindByID(ctx, "ICU04")
	require.NoError(t, err)
	assert.Equal(t, "ICU-4", loc.LongName)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// TestInventoryRepository 测试库存写入与查询
func TestInventoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewInventoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []*model.InventoryItemModel{
		{Name: "Aspirin", ItemType: "medicine", Quantity: 3},
		{Name: "Stethoscope", ItemType: "device", Quantity: 11},
	}))
	require.NoError(t, repo.Upsert(ctx, []*model.InventoryItemModel{
		{Name: "Aspirin", ItemType: "medicine", Quantity: 40},
	}))

	item, err := repo.FindByName(ctx, "Aspirin")
	require.NoError(t, err)
	assert.Equal(t, 40, item.Quantity)

	devices, err := repo.FindAll(ctx, "device")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Stethoscope", devices[0].Name)

	_, err = repo.FindByName(ctx, "Gauze")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

// TestStatusHistoryRepository 测试状态历史
func TestStatusHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewStatusHistoryRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Save(ctx, &model.StatusHistoryModel{
		ID: "h1", RequestID: 1, FromStatus: model.StatusUnassigned, ToStatus: model.StatusAssigned, Operator: "u", CreatedAt: now,
	}))
	require.NoError(t, repo.Save(ctx, &model.StatusHistoryModel{
		ID: "h2", RequestID: 1, FromStatus: model.StatusAssigned, ToStatus: model.StatusClosed, Operator: "u", CreatedAt: now.Add(time.Second),
	}))
	assert.Error(t, repo.Save(ctx, &model.StatusHistoryModel{ID: "h3", RequestID: 1, ToStatus: "Done", Operator: "u"}))

	histories, err := repo.FindByRequestID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, model.StatusClosed, histories[1].ToStatus)

	require.NoError(t, repo.DeleteByRequestID(ctx, 1))
	histories, err = repo.FindByRequestID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, histories)
}

// TestAuditLogRepository 测试审计日志
func TestAuditLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAuditLogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &model.AuditLogModel{
		ID: "a1", UserID: "user-1", Action: "create", ResourceType: string(model.TypeMedicine),
		ResourceID: "1", Details: `{"location":"ICU04"}`, CreatedAt: time.Now(),
	}))
	assert.Error(t, repo.Save(ctx, &model.AuditLogModel{ID: "a2"}))

	logs, err := repo.FindByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)

	logs, err = repo.FindByResource(ctx, string(model.TypeMedicine), "1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)
}
