package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/kgkhs001/BrighamWomensApp/internal/form"
	"github.com/kgkhs001/BrighamWomensApp/internal/metrics"
	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultLowStockThreshold 默认低库存阈值，数量小于等于该值时告警
const DefaultLowStockThreshold = 10

// StockLevel 库存查询结果
type StockLevel struct {
	Name      string `json:"name"`
	Quant     int    `json:"quant"`
	LowStock  bool   `json:"lowStock"`
	Threshold int    `json:"threshold"`
}

// InventoryService 库存服务
type InventoryService interface {
	CheckStock(ctx context.Context, name string) (*StockLevel, error)
	List(ctx context.Context, itemType string) ([]*model.InventoryItemModel, error)
	SetLowStockThreshold(threshold int)
	LowStockThreshold() int
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	threshold     atomic.Int64
}

// NewInventoryService 创建库存服务
func NewInventoryService(inventoryRepo repository.InventoryRepository, threshold int) InventoryService {
	s := &inventoryService{inventoryRepo: inventoryRepo}
	s.SetLowStockThreshold(threshold)
	return s
}

// SetLowStockThreshold 设置低库存阈值（配置热更新使用），非正数时使用默认值
func (s *inventoryService) SetLowStockThreshold(threshold int) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	s.threshold.Store(int64(threshold))
}

// LowStockThreshold 当前低库存阈值
func (s *inventoryService) LowStockThreshold() int {
	return int(s.threshold.Load())
}

// CheckStock 查询库存数量并判断是否低库存
func (s *inventoryService) CheckStock(ctx context.Context, name string) (*StockLevel, error) {
	if name == "" {
		return nil, form.Invalid("name", "required", "is required")
	}

	item, err := s.inventoryRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "inventory item", Key: name}
		}
		return nil, storageError("look up inventory", err)
	}

	threshold := s.LowStockThreshold()
	level := &StockLevel{
		Name:      item.Name,
		Quant:     item.Quantity,
		LowStock:  IsLowStock(item.Quantity, threshold),
		Threshold: threshold,
	}
	if level.LowStock {
		metrics.RecordLowStock(item.Name)
		logger().WithFields(logrus.Fields{
			"item":      item.Name,
			"quantity":  item.Quantity,
			"threshold": threshold,
		}).Warn("inventory item is low on stock")
	}
	return level, nil
}

// List 列出库存
func (s *inventoryService) List(ctx context.Context, itemType string) ([]*model.InventoryItemModel, error) {
	items, err := s.inventoryRepo.FindAll(ctx, itemType)
	if err != nil {
		return nil, storageError("list inventory", err)
	}
	return items, nil
}

// IsLowStock 数量小于等于阈值即为低库存
func IsLowStock(quantity, threshold int) bool {
	return quantity <= threshold
}
