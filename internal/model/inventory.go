package model

import "errors"

// InventoryItemModel 库存条目（药品、设备等消耗品）
type InventoryItemModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id" yaml:"-"`
	Name     string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name" yaml:"name"`
	ItemType string `gorm:"type:varchar(32);not null;index" json:"type" yaml:"type"` // medicine/device
	Quantity int    `gorm:"not null;default:0" json:"quant" yaml:"quantity"`
}

// TableName 指定表名
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// Validate 验证库存条目
func (m *InventoryItemModel) Validate() error {
	if m.Name == "" {
		return errors.New("item name is required")
	}
	if m.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	return nil
}
