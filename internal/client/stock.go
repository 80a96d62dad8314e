package client

import (
	"context"
	"fmt"
)

// StockWarning 库存提示，只用于显示，不阻止提交
type StockWarning struct {
	Name      string
	Quant     int
	LowStock  bool
	Threshold int
	Message   string
}

// CheckStock 查询库存，数量不大于阈值时给出低库存提示
// 未知物品返回错误，由调用方展示给用户
func (c *Client) CheckStock(ctx context.Context, name string) (*StockWarning, error) {
	level, err := c.GetNum(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%q is not in the inventory: %w", name, err)
		}
		return nil, err
	}

	warning := &StockWarning{
		Name:      name,
		Quant:     level.Quant,
		LowStock:  level.LowStock,
		Threshold: level.Threshold,
	}
	if warning.LowStock {
		warning.Message = fmt.Sprintf("Low stock: only %d %s left", level.Quant, name)
	}
	return warning, nil
}
