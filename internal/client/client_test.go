package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kgkhs001/BrighamWomensApp/internal/api"
	"github.com/kgkhs001/BrighamWomensApp/internal/auth"
	"github.com/kgkhs001/BrighamWomensApp/internal/client"
	"github.com/kgkhs001/BrighamWomensApp/internal/config"
	"github.com/kgkhs001/BrighamWomensApp/internal/database"
	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/kgkhs001/BrighamWomensApp/internal/service"
	"github.com/kgkhs001/BrighamWomensApp/internal/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("client-secret")

type testServer struct {
	*httptest.Server
	db  *gorm.DB
	hub *websocket.Hub
}

// setupServer 启动带内存数据库的完整服务
func setupServer(t *testing.T, validator auth.TokenValidator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	require.NoError(t, repository.NewLocationRepository(db).Upsert(ctx, []*model.LocationModel{
		{NodeID: "ICU04", LongName: "ICU-4"},
		{NodeID: "LOBBY1", LongName: "Lobby"},
	}))
	require.NoError(t, repository.NewInventoryRepository(db).Upsert(ctx, []*model.InventoryItemModel{
		{Name: "Aspirin", ItemType: "medicine", Quantity: 10},
		{Name: "Ibuprofen", ItemType: "medicine", Quantity: 11},
	}))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hubCtx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(hubCtx)
	notifier := websocket.NewRequestNotifier(hub, logger)

	cfg := config.Default()
	cfg.Server.RateLimitRPS = 0

	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	locations := service.NewLocationService(repository.NewLocationRepository(db))
	pipelines := service.NewPipelines(service.Deps{DB: db, Locations: locations, AuditLog: auditSvc, Notifier: notifier})
	router := api.SetupRoutes(api.RouterDeps{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Hub:       hub,
		Validator: validator,
		Pipelines: pipelines,
		Requests:  service.NewRequestService(db, auditSvc, notifier, pipelines.DetailStores()...),
		Locations: locations,
		Inventory: service.NewInventoryService(repository.NewInventoryRepository(db), cfg.Inventory.LowStockThreshold),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		_ = database.Close(db)
	})
	return &testServer{Server: srv, db: db, hub: hub}
}

func newMedicineSession(c *client.Client, onInvalidate func(model.RequestType)) *client.FormSession[model.MedicineRequestModel, *form.MedicineForm] {
	return client.NewFormSession[model.MedicineRequestModel](c, model.TypeMedicine,
		func() *form.MedicineForm { return &form.MedicineForm{} }, onInvalidate)
}

func fillMedicine(f *form.MedicineForm) {
	f.EmployeeName = "Jane"
	f.RoomName = "ICU-4"
	f.MedicineName = "Aspirin"
	f.Quantity = form.NewQuantity(5)
}

// TestValidTransition 测试状态转换表
func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to client.State
		ok       bool
	}{
		{client.StateEditing, client.StateValidating, true},
		{client.StateValidating, client.StateInvalid, true},
		{client.StateValidating, client.StateValid, true},
		{client.StateInvalid, client.StateEditing, true},
		{client.StateValid, client.StateSubmitting, true},
		{client.StateSubmitting, client.StateFailed, true},
		{client.StateSubmitting, client.StateSucceeded, true},
		{client.StateFailed, client.StateEditing, true},
		{client.StateSucceeded, client.StateConfirmed, true},
		{client.StateConfirmed, client.StateReset, true},
		{client.StateReset, client.StateEditing, true},
		{client.StateEditing, client.StateSubmitting, false},
		{client.StateInvalid, client.StateSubmitting, false},
		{client.StateSucceeded, client.StateEditing, false},
		{client.StateFailed, client.StateSucceeded, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, client.ValidTransition(tt.from, tt.to))
		})
	}
}

// TestFormSession_HappyPath 测试 Editing -> Valid -> Succeeded -> Reset
func TestFormSession_HappyPath(t *testing.T) {
	srv := setupServer(t, nil)
	c := client.New(srv.URL)

	var invalidated []model.RequestType
	session := newMedicineSession(c, func(rt model.RequestType) { invalidated = append(invalidated, rt) })
	assert.Equal(t, client.StateEditing, session.State())

	require.NoError(t, session.Edit(fillMedicine))
	require.NoError(t, session.Validate())
	assert.Equal(t, client.StateValid, session.State())

	readBack, err := session.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.StateSucceeded, session.State())
	assert.Positive(t, readBack.ID)
	assert.Equal(t, "Aspirin", readBack.Form.MedicineName)
	assert.Equal(t, model.PriorityMedium, readBack.Form.Priority)

	// 确认前不能编辑
	assert.ErrorIs(t, session.Edit(fillMedicine), client.ErrInvalidTransition)

	key := session.IdempotencyKey()
	require.NoError(t, session.Confirm())
	assert.Equal(t, client.StateEditing, session.State())
	assert.NotEqual(t, key, session.IdempotencyKey())
	assert.Nil(t, session.ReadBack())
	assert.Equal(t, []model.RequestType{model.TypeMedicine}, invalidated)

	// 表单已清空
	assert.Error(t, session.Validate())
	assert.Equal(t, client.StateInvalid, session.State())
}

// TestFormSession_InvalidDoesNotSubmit 测试校验失败时不发送请求
func TestFormSession_InvalidDoesNotSubmit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	session := newMedicineSession(client.New(srv.URL), nil)
	require.NoError(t, session.Edit(func(f *form.MedicineForm) {
		fillMedicine(f)
		f.Quantity = form.NewQuantity(101)
	}))

	_, err := session.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, client.StateInvalid, session.State())
	require.NotNil(t, session.Errors())
	assert.Equal(t, "quantity", session.Errors().Fields[0].Field)
	assert.Zero(t, calls.Load())

	require.NoError(t, session.Edit(func(f *form.MedicineForm) { f.Quantity = form.NewQuantity(100) }))
	assert.Equal(t, client.StateEditing, session.State())
	require.NoError(t, session.Validate())
}

// TestFormSession_FailedRetryKeepsKey 测试失败后重试使用同一个幂等键
func TestFormSession_FailedRetryKeepsKey(t *testing.T) {
	srv := setupServer(t, nil)
	c := client.New(srv.URL)
	session := newMedicineSession(c, nil)

	require.NoError(t, session.Edit(func(f *form.MedicineForm) {
		fillMedicine(f)
		f.RoomName = "Atlantis"
	}))
	_, err := session.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Equal(t, client.StateFailed, session.State())
	key := session.IdempotencyKey()

	require.NoError(t, session.Edit(func(f *form.MedicineForm) { f.RoomName = "ICU-4" }))
	first, err := session.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key, session.IdempotencyKey())

	// 同一个键再次提交（例如响应丢失后的重试）不会产生新记录
	id, err := c.Submit(context.Background(), model.TypeMedicine, first.Form, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)

	var count int64
	require.NoError(t, srv.db.Model(&model.ServiceRequestModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// TestClient_APIError 测试结构化错误解码
func TestClient_APIError(t *testing.T) {
	srv := setupServer(t, nil)
	c := client.New(srv.URL)

	_, err := c.Submit(context.Background(), model.TypeMedicine, map[string]string{"employeeName": "Jane"}, "")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "validation", apiErr.Kind)
	assert.NotEmpty(t, apiErr.Fields)
	assert.False(t, client.IsRetryable(err))

	err = c.UpdateStatus(context.Background(), 42, model.StatusClosed)
	assert.True(t, client.IsNotFound(err))
}

// refreshingTokens 第一个令牌已过期，刷新后返回有效令牌
type refreshingTokens struct {
	t         *testing.T
	refreshes atomic.Int32
}

func (s *refreshingTokens) sign(ttl time.Duration) string {
	claims := jwt.RegisteredClaims{Subject: "nurse-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(s.t, err)
	return token
}

func (s *refreshingTokens) Token(context.Context) (string, error) {
	if s.refreshes.Load() == 0 {
		return s.sign(-time.Minute), nil
	}
	return s.sign(time.Hour), nil
}

func (s *refreshingTokens) Refresh(context.Context) (string, error) {
	s.refreshes.Add(1)
	return s.sign(time.Hour), nil
}

// TestClient_RefreshOnUnauthorized 测试 401 后刷新令牌并重试
func TestClient_RefreshOnUnauthorized(t *testing.T) {
	srv := setupServer(t, auth.NewHMACValidator(testSecret, "", ""))
	tokens := &refreshingTokens{t: t}
	c := client.New(srv.URL, client.WithTokenSource(tokens))

	rows, err := c.FetchAll(context.Background(), repository.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int32(1), tokens.refreshes.Load())

	// 无令牌时直接返回认证错误
	_, err = client.New(srv.URL).FetchAll(context.Background(), repository.RequestFilter{})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.True(t, apiErr.Retryable)
}

// TestClient_CheckStock 测试低库存提示
func TestClient_CheckStock(t *testing.T) {
	srv := setupServer(t, nil)
	c := client.New(srv.URL)

	warning, err := c.CheckStock(context.Background(), "Aspirin")
	require.NoError(t, err)
	assert.True(t, warning.LowStock)
	assert.Equal(t, 10, warning.Quant)
	assert.Contains(t, warning.Message, "only 10 Aspirin left")

	warning, err = c.CheckStock(context.Background(), "Ibuprofen")
	require.NoError(t, err)
	assert.False(t, warning.LowStock)
	assert.Empty(t, warning.Message)

	_, err = c.CheckStock(context.Background(), "Unobtainium")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
}

// fakeDashboardAPI 可控失败的看板接口
type fakeDashboardAPI struct {
	mu        sync.Mutex
	rows      []repository.RequestRow
	updateErr error
	fetches   []model.RequestType
}

func (f *fakeDashboardAPI) FetchAll(_ context.Context, filter repository.RequestFilter) ([]repository.RequestRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, filter.Type)
	var out []repository.RequestRow
	for _, row := range f.rows {
		if filter.Type == "" || row.Type == filter.Type {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeDashboardAPI) UpdateStatus(context.Context, uint, model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateErr
}

func (f *fakeDashboardAPI) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return &client.APIError{StatusCode: http.StatusNotFound, Kind: "not_found"}
}

// TestDashboard_OptimisticUpdate 测试状态更新失败时回滚
func TestDashboard_OptimisticUpdate(t *testing.T) {
	fake := &fakeDashboardAPI{rows: []repository.RequestRow{
		{ID: 1, Type: model.TypeMedicine, Status: model.StatusUnassigned},
		{ID: 2, Type: model.TypeFlower, Status: model.StatusUnassigned},
	}}
	dashboard := client.NewDashboard(fake, nil)
	require.NoError(t, dashboard.Load(context.Background()))

	require.NoError(t, dashboard.UpdateStatus(context.Background(), 1, model.StatusAssigned))
	assert.Equal(t, model.StatusAssigned, dashboard.Rows(model.TypeMedicine)[0].Status)

	fake.updateErr = &client.APIError{StatusCode: http.StatusInternalServerError, Kind: "storage", Retryable: true}
	err := dashboard.UpdateStatus(context.Background(), 1, model.StatusClosed)
	require.Error(t, err)
	assert.True(t, client.IsRetryable(err))
	assert.Equal(t, model.StatusAssigned, dashboard.Rows(model.TypeMedicine)[0].Status)
	assert.Equal(t, model.StatusUnassigned, dashboard.Rows(model.TypeFlower)[0].Status)
}

// TestDashboard_DeleteAndInvalidate 测试本地删除和按类型刷新
func TestDashboard_DeleteAndInvalidate(t *testing.T) {
	fake := &fakeDashboardAPI{rows: []repository.RequestRow{
		{ID: 1, Type: model.TypeMedicine},
		{ID: 2, Type: model.TypeMedicine},
		{ID: 3, Type: model.TypeFlower},
	}}
	dashboard := client.NewDashboard(fake, nil)
	require.NoError(t, dashboard.Load(context.Background()))

	require.NoError(t, dashboard.Delete(context.Background(), 1))
	rows := dashboard.Rows(model.TypeMedicine)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(2), rows[0].ID)

	// 重复删除：服务端 404，本地同样视为已删除
	require.NoError(t, dashboard.Delete(context.Background(), 1))

	fake.mu.Lock()
	fake.rows = append(fake.rows, repository.RequestRow{ID: 4, Type: model.TypeFlower})
	fake.fetches = nil
	fake.mu.Unlock()

	require.NoError(t, dashboard.Invalidate(context.Background(), model.TypeFlower))
	assert.Len(t, dashboard.Rows(model.TypeFlower), 2)
	assert.Len(t, dashboard.Rows(model.TypeMedicine), 1)
	assert.Equal(t, []model.RequestType{model.TypeFlower}, fake.fetches)
}

// TestDashboard_FollowEvents 测试 WebSocket 事件触发列表刷新
func TestDashboard_FollowEvents(t *testing.T) {
	srv := setupServer(t, nil)
	c := client.New(srv.URL)

	dashboard := client.NewDashboard(c, nil)
	require.NoError(t, dashboard.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := c.Events(ctx, model.TypeMedicine)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.hub.SubscriberCount(model.TypeMedicine) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, srv.hub.SubscriberCount(model.TypeFlower))
	go dashboard.Follow(ctx, events)

	session := newMedicineSession(c, nil)
	require.NoError(t, session.Edit(fillMedicine))
	_, err = session.Submit(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(dashboard.Rows(model.TypeMedicine)) == 1
	}, 2*time.Second, 20*time.Millisecond)
}
