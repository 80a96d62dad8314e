package repository

import (
	"context"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository 库存仓储接口
type InventoryRepository interface {
	FindByName(ctx context.Context, name string) (*model.InventoryItemModel, error)
	FindAll(ctx context.Context, itemType string) ([]*model.InventoryItemModel, error)
	Upsert(ctx context.Context, items []*model.InventoryItemModel) error
}

// inventoryRepository 库存仓储实现
type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓储
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// FindByName 根据名称查找
func (r *inventoryRepository) FindByName(ctx context.Context, name string) (*model.InventoryItemModel, error) {
	var item model.InventoryItemModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindAll 查询库存，itemType 为空时返回全部
func (r *inventoryRepository) FindAll(ctx context.Context, itemType string) ([]*model.InventoryItemModel, error) {
	var items []*model.InventoryItemModel
	query := r.db.WithContext(ctx).Order("name ASC")
	if itemType != "" {
		query = query.Where("item_type = ?", itemType)
	}
	err := query.Find(&items).Error
	return items, err
}

// Upsert 批量写入库存，名称冲突时更新数量和类型
func (r *inventoryRepository) Upsert(ctx context.Context, items []*model.InventoryItemModel) error {
	if len(items) == 0 {
		return nil
	}
	// 不写入调用方的 ID，冲突只按名称判断
	rows := make([]*model.InventoryItemModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, &model.InventoryItemModel{Name: item.Name, ItemType: item.ItemType, Quantity: item.Quantity})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"item_type", "quantity"}),
		}).
		Create(&rows).Error
}
